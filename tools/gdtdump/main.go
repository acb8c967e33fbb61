// Command gdtdump prints the kernel descriptor table, selectors and TSS as the
// kernel builds them. It runs on the build host and never loads anything into
// the CPU.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"lmkernel/kernel/kfmt"
)

var verbose = flag.Bool("v", false, "copy the kernel log to stderr.")

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&layoutCmd{}, "")
	subcommands.Register(&selectorsCmd{}, "")
	subcommands.Register(&tssCmd{}, "")

	flag.Parse()
	if *verbose {
		kfmt.SetOutputSink(os.Stderr)
	}

	os.Exit(int(subcommands.Execute(context.Background())))
}
