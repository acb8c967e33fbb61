// Command redirects wires the go:redirect-from annotations of the kernel into
// the redirect table of a linked kernel image. It must be run from the module
// root.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

// countCmd implements subcommands.Command for the "count" command.
type countCmd struct{}

// Name implements subcommands.Command.Name.
func (*countCmd) Name() string { return "count" }

// Synopsis implements subcommands.Command.Synopsis.
func (*countCmd) Synopsis() string { return "print the number of redirect table entries" }

// Usage implements subcommands.Command.Usage.
func (*countCmd) Usage() string {
	return `count - print the number of go:redirect-from annotations in kernel/.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*countCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*countCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	redirects, err := kernelRedirects()
	if err != nil {
		return fail(err)
	}

	fmt.Printf("%d", len(redirects))
	return subcommands.ExitSuccess
}

// populateCmd implements subcommands.Command for the "populate-table" command.
type populateCmd struct{}

// Name implements subcommands.Command.Name.
func (*populateCmd) Name() string { return "populate-table" }

// Synopsis implements subcommands.Command.Synopsis.
func (*populateCmd) Synopsis() string { return "write the redirect table into a kernel image" }

// Usage implements subcommands.Command.Usage.
func (*populateCmd) Usage() string {
	return `populate-table <kernel image> - resolve redirect symbols and patch the image.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*populateCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*populateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	imgFile := f.Arg(0)

	redirects, err := kernelRedirects()
	if err != nil {
		return fail(err)
	}

	if err = elfResolveRedirectSymbols(redirects, imgFile); err != nil {
		return fail(err)
	}

	if err = elfWriteRedirectTable(redirects, imgFile); err != nil {
		return fail(err)
	}

	return subcommands.ExitSuccess
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "[redirects] error: %s\n", err.Error())
	return subcommands.ExitFailure
}

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(&countCmd{}, "")
	subcommands.Register(&populateCmd{}, "")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
