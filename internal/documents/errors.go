package documents

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// UploadFailedError reports a failed transfer. No Document record exists when
// this is returned.
type UploadFailedError struct {
	Status  int
	Message string
	Err     error
}

func (e *UploadFailedError) Error() string {
	return fmt.Sprintf("upload failed (status %d): %s", e.Status, e.Message)
}

func (e *UploadFailedError) Unwrap() error {
	return e.Err
}
