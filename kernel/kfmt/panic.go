package kfmt

import (
	"sync/atomic"

	"lmkernel/kernel"
	"lmkernel/kernel/cpu"
)

var (
	// cpuHaltFn is mocked by tests and is automatically inlined by the compiler.
	cpuHaltFn = cpu.Halt

	// panicking is set by the first Panic call. The report is printed once;
	// a fault raised while printing it only halts.
	panicking uint32

	errRuntimePanic   = &kernel.Error{Module: "rt", Message: "unknown cause"}
	errRecursivePanic = &kernel.Error{Module: "kfmt", Message: "panic while reporting a panic"}
)

// Panic prints e to the active output sink and halts the CPU; it never
// returns. The kernel build redirects runtime.gopanic here, so plain panic()
// calls with a *kernel.Error, an error or a string end up in Panic too. This
// is how table overflows and bad stack indexes in the segmentation setup are
// reported, since those panic with their *kernel.Error value.
//
//go:redirect-from runtime.gopanic
func Panic(e interface{}) {
	if !atomic.CompareAndSwapUint32(&panicking, 0, 1) {
		Printf("\n[%s] %s\n", errRecursivePanic.Module, errRecursivePanic.Message)
		cpuHaltFn()
		return
	}

	var err *kernel.Error

	switch t := e.(type) {
	case *kernel.Error:
		err = t
	case string:
		panicString(t)
		return
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	Printf("\n-----------------------------------\n")
	if err != nil {
		Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	Printf("*** kernel panic: system halted ***")
	Printf("\n-----------------------------------\n")

	cpuHaltFn()
}

// panicString is the redirect target for runtime.throw.
//
//go:redirect-from runtime.throw
func panicString(msg string) {
	errRuntimePanic.Message = msg
	Panic(errRuntimePanic)
}
