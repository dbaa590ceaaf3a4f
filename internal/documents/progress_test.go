package documents

import (
	"io"
	"strings"
	"testing"
)

func TestProgressReaderReportsMonotonically(t *testing.T) {
	payload := strings.Repeat("x", 1000)
	var reports []int
	pr := newProgressReader(strings.NewReader(payload), int64(len(payload)), func(pct int) {
		reports = append(reports, pct)
	})

	buf := make([]byte, 100)
	if _, err := io.CopyBuffer(io.Discard, pr, buf); err != nil {
		t.Fatalf("copy: %v", err)
	}
	pr.finish()

	if len(reports) == 0 {
		t.Fatalf("expected progress reports")
	}
	for i := 1; i < len(reports); i++ {
		if reports[i] < reports[i-1] {
			t.Fatalf("progress went backwards: %v", reports)
		}
	}
	if reports[len(reports)-1] != 100 {
		t.Fatalf("last report = %d, want 100", reports[len(reports)-1])
	}
}

func TestProgressReaderCapsAtHundred(t *testing.T) {
	// Declared size smaller than actual bytes must not push past 100.
	payload := strings.Repeat("x", 500)
	var last int
	pr := newProgressReader(strings.NewReader(payload), 200, func(pct int) {
		last = pct
	})

	if _, err := io.Copy(io.Discard, pr); err != nil {
		t.Fatalf("copy: %v", err)
	}
	pr.finish()

	if last != 100 {
		t.Fatalf("last report = %d, want 100", last)
	}
}

func TestProgressReaderNilCallback(t *testing.T) {
	pr := newProgressReader(strings.NewReader("data"), 4, nil)
	if _, err := io.Copy(io.Discard, pr); err != nil {
		t.Fatalf("copy: %v", err)
	}
	pr.finish()
}
