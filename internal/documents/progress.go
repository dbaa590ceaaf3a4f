package documents

import "io"

// ProgressFunc receives upload progress as a percentage in [0,100].
// Calls are monotonically non-decreasing and end at 100 on success.
type ProgressFunc func(pct int)

// progressReader reports byte-level progress while the object store drains it.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	lastPct  int
	progress ProgressFunc
}

func newProgressReader(r io.Reader, total int64, progress ProgressFunc) *progressReader {
	return &progressReader{r: r, total: total, progress: progress}
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.read += int64(n)
		p.report(p.pct())
	}
	return n, err
}

func (p *progressReader) pct() int {
	if p.total <= 0 {
		return 0
	}
	pct := int(p.read * 100 / p.total)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// finish marks the transfer complete. The declared size may disagree with the
// bytes actually read, so the terminal 100 is reported here, not in Read.
func (p *progressReader) finish() {
	p.report(100)
}

func (p *progressReader) report(pct int) {
	if p.progress == nil {
		return
	}
	if pct < p.lastPct {
		return
	}
	p.lastPct = pct
	p.progress(pct)
}
