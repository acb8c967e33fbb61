package gdt

import "unsafe"

const (
	// ExceptionStackSize is the usable size of the double fault stack.
	ExceptionStackSize = 4096 * 5

	// StackAlignment is the alignment the CPU and the amd64 ABI expect
	// for a stack top.
	StackAlignment = 16
)

// ExceptionStack is a statically allocated, zero-filled stack reserved for a
// single exception class. The CPU switches to it through an IST slot, so its
// address is baked into the TSS and must never change: the only instance is a
// package-level variable, and Go never moves globals.
//
// Go cannot over-align a variable, so the buffer carries StackAlignment spare
// bytes and Base/Top describe the aligned ExceptionStackSize window inside it.
type ExceptionStack struct {
	buf [ExceptionStackSize + StackAlignment]byte
}

// Base returns the lowest address of the aligned stack window.
func (s *ExceptionStack) Base() uintptr {
	return alignUp(uintptr(unsafe.Pointer(&s.buf[0])))
}

// Top returns the address one past the end of the stack window. Stacks grow
// down, so this is the value loaded into RSP on a stack switch.
func (s *ExceptionStack) Top() uintptr {
	return s.Base() + ExceptionStackSize
}

func alignUp(addr uintptr) uintptr {
	return (addr + StackAlignment - 1) &^ (StackAlignment - 1)
}

var (
	doubleFaultStack ExceptionStack
	doubleFaultTop   uintptr
)

// DoubleFaultStackTop returns the top of the stack reserved for the double
// fault handler. The address is computed on first use; every later call
// returns the same value.
func DoubleFaultStackTop() uintptr {
	stackOnce.Do(func() {
		doubleFaultTop = doubleFaultStack.Top()
	})
	return doubleFaultTop
}
