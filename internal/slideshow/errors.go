package slideshow

import "fmt"

// CompositionError is the single failure surfaced by Compose. Err is the
// underlying cause (audio, rendering to disk, or encoding).
type CompositionError struct {
	OutputID string
	Err      error
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("error generating video %s: %v", e.OutputID, e.Err)
}

func (e *CompositionError) Unwrap() error { return e.Err }

func compositionError(id string, format string, args ...any) *CompositionError {
	return &CompositionError{OutputID: id, Err: fmt.Errorf(format, args...)}
}
