package kmain

import (
	"lmkernel/kernel"
	"lmkernel/kernel/gdt"
	"lmkernel/kernel/kfmt"
)

var (
	errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

	// Mocked by tests.
	gdtInitFn = gdt.Init
	panicFn   = kfmt.Panic
)

// Kmain is the only Go symbol that is visible (exported) from the rt0
// initialization code. It is invoked on the boot core once the CPU runs in
// long mode with the temporary descriptor table installed by rt0, and before
// any interrupt is enabled.
//
// Kmain replaces the rt0 segmentation state with the kernel descriptor table
// and TSS so that double faults run on their own stack. The IDT setup that
// follows must route the double fault vector through
// gdt.ISTOffset(gdt.DoubleFaultISTIndex).
//
// Kmain is not expected to return. If it does, the rt0 code will halt the CPU.
//
//go:noinline
func Kmain() {
	gdtInitFn()
	kfmt.Printf("[kmain] segmentation ready; double fault IST offset %d\n", gdt.ISTOffset(gdt.DoubleFaultISTIndex))

	// Use panicFn instead of panic to prevent the compiler from treating
	// kfmt.Panic as dead-code and eliminating it.
	panicFn(errKmainReturned)
}
