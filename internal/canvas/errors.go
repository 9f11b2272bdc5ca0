package canvas

import "fmt"

// InvalidStateError reports an operation invoked when the canvas was not in
// a state that permits it, such as appending a point with no active stroke.
type InvalidStateError struct {
	Op     string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("canvas: %s: %s", e.Op, e.Reason)
}
