package main

import "lmkernel/kernel/kmain"

// main makes a dummy call to the actual kernel main entrypoint function. It
// is intentionally defined to prevent the Go compiler from optimizing away the
// real kernel code.
//
// The rt0 code never calls main; it jumps straight to kmain.Kmain.
func main() {
	kmain.Kmain()
}
