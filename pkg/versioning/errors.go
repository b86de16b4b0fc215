// ABOUTME: Service-level error for exhausted create retries
// ABOUTME: Wraps the last losing conflict so callers can still inspect it

package versioning

import (
	"errors"
	"fmt"
)

// WriteConflictError reports that numbering contention persisted past the
// retry bound. Attempts counts every try including the first.
type WriteConflictError struct {
	DocumentID string
	Attempts   int
	Last       error
}

func (e *WriteConflictError) Error() string {
	return fmt.Sprintf("write conflict on document %q after %d attempts", e.DocumentID, e.Attempts)
}

func (e *WriteConflictError) Unwrap() error {
	return e.Last
}

// IsWriteConflict reports whether err marks an abandoned create.
func IsWriteConflict(err error) bool {
	var wc *WriteConflictError
	return errors.As(err, &wc)
}
