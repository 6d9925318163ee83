package types

import "fmt"

// InvalidTypeError reports an operation a type cannot support, such as
// passing a class without a default interface across the ABI.
type InvalidTypeError struct {
	Type   string
	Op     string
	Reason string
}

func (e *InvalidTypeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("invalid type %s: %s: %s", e.Type, e.Op, e.Reason)
}

// invariant aborts on a logic error inside the classification pipeline.
func invariant(format string, args ...any) {
	panic(fmt.Errorf("types: "+format, args...))
}
