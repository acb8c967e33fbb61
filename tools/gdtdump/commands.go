package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"lmkernel/kernel/gdt"
)

// layoutCmd implements subcommands.Command for the "layout" command.
type layoutCmd struct {
	output string
}

// Name implements subcommands.Command.Name.
func (*layoutCmd) Name() string { return "layout" }

// Synopsis implements subcommands.Command.Synopsis.
func (*layoutCmd) Synopsis() string { return "print every descriptor table slot" }

// Usage implements subcommands.Command.Usage.
func (*layoutCmd) Usage() string {
	return `layout [-o table|json] - print the raw and decoded descriptor table slots.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *layoutCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "table", "Output format (table, json).")
}

// Execute implements subcommands.Command.Execute.
func (c *layoutCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	out, ok := layoutOutputs[c.output]
	if !ok {
		return fail(fmt.Errorf("unsupported output format %q", c.output))
	}

	table, _ := gdt.DescriptorTable()
	if err := out(os.Stdout, decodeSlots(table)); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

// selectorsCmd implements subcommands.Command for the "selectors" command.
type selectorsCmd struct{}

// Name implements subcommands.Command.Name.
func (*selectorsCmd) Name() string { return "selectors" }

// Synopsis implements subcommands.Command.Synopsis.
func (*selectorsCmd) Synopsis() string { return "print the kernel segment selectors" }

// Usage implements subcommands.Command.Usage.
func (*selectorsCmd) Usage() string {
	return `selectors - print the code, data and TSS selectors.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*selectorsCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*selectorsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, sel := gdt.DescriptorTable()
	if err := writeSelectors(os.Stdout, sel); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

// tssCmd implements subcommands.Command for the "tss" command.
type tssCmd struct{}

// Name implements subcommands.Command.Name.
func (*tssCmd) Name() string { return "tss" }

// Synopsis implements subcommands.Command.Synopsis.
func (*tssCmd) Synopsis() string { return "print the kernel TSS stack tables" }

// Usage implements subcommands.Command.Usage.
func (*tssCmd) Usage() string {
	return `tss - print the privilege and interrupt stack tables of the kernel TSS.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*tssCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*tssCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := writeTSS(os.Stdout, gdt.TSS()); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "[gdtdump] error: %s\n", err.Error())
	return subcommands.ExitFailure
}
