package ingest

import (
	"errors"
	"fmt"
)

// ErrFetchTimeout marks a remote fetch that produced no response within the
// configured timeout.
var ErrFetchTimeout = errors.New("remote fetch timed out")

// ErrContentBlockMissing marks a detail page without the content block.
// Fatal for that single item; the cycle continues with the next one.
var ErrContentBlockMissing = errors.New("content block missing from detail page")

// HTTPStatusError is returned when the remote site answers with a
// non-success status.
type HTTPStatusError struct {
	URL    string
	Status int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("remote returned status %d for %s", e.Status, e.URL)
}

// RowError describes a single index row that failed strict parsing. The
// offending row is skipped; the surrounding fetch still succeeds.
type RowError struct {
	Row   int
	Field string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: field %q: %v", e.Row, e.Field, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
