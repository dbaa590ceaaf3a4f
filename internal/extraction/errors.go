package extraction

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is the soft failure: the extraction service is not
	// provisioned. Callers skip the review step and never surface it as an
	// error to the user.
	ErrUnavailable = errors.New("extraction service unavailable")

	// ErrExtractionPending rejects a re-entrant extract call while a prior
	// extraction on the same document is still pending.
	ErrExtractionPending = errors.New("extraction already pending")

	// errNoDocumentText marks a document whose text layer is empty, typically
	// a scan stored as PDF. Hard failure: upload the pages as images instead.
	errNoDocumentText = errors.New("document has no extractable text; upload scanned pages as images to extract them")
)

// ExtractionFailedError is the hard failure: any extraction error other than
// missing credentials. Surfaced to the user; re-extraction is the recovery.
type ExtractionFailedError struct {
	Reason string
	Err    error
}

func (e *ExtractionFailedError) Error() string {
	return fmt.Sprintf("extraction failed: %s", e.Reason)
}

func (e *ExtractionFailedError) Unwrap() error {
	return e.Err
}
