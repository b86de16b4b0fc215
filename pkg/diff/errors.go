// ABOUTME: Typed error for malformed diff input
// ABOUTME: Binary or invalid UTF-8 content is rejected before alignment

package diff

import "errors"

// Error reports input that cannot be diffed as text.
type Error struct {
	Input  string
	Reason string
}

func (e *Error) Error() string {
	return "diff: " + e.Input + " " + e.Reason
}

// IsInputError reports whether err marks rejected diff input.
func IsInputError(err error) bool {
	var de *Error
	return errors.As(err, &de)
}
