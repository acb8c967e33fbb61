// Package kernel holds the types shared by every kernel subsystem.
package kernel

// Error describes a kernel error. Kernel errors are declared as package-level
// pointers to Error values because the Go allocator is not available during
// early boot, so errors.New cannot be used.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is the same kernel error value or an Error with an
// identical module and message. It allows errors.Is to match copies of the
// package-level error values.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok || e == nil || other == nil {
		return e == other
	}

	return e.Module == other.Module && e.Message == other.Message
}
