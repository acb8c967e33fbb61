package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"lmkernel/kernel/gdt"
)

// slotInfo describes a single 8-byte descriptor table slot.
type slotInfo struct {
	Slot  int      `json:"slot"`
	Raw   string   `json:"raw"`
	Kind  string   `json:"kind"`
	Flags []string `json:"flags,omitempty"`
}

type layoutFunc func(io.Writer, []slotInfo) error

var (
	layoutOutputs = map[string]layoutFunc{
		"table": writeLayoutTable,
		"json":  writeLayoutJSON,
	}

	userSegmentFlags = []struct {
		flag gdt.DescriptorFlags
		name string
	}{
		{gdt.Accessed, "accessed"},
		{gdt.Writable, "writable"},
		{gdt.Conforming, "conforming"},
		{gdt.Executable, "executable"},
		{gdt.UserSegment, "user-segment"},
		{gdt.Present, "present"},
		{gdt.Available, "available"},
		{gdt.LongMode, "long-mode"},
		{gdt.DefaultSize, "default-size"},
		{gdt.Granularity, "granularity"},
	}
)

// decodeSlots walks the slots in use by table. A system descriptor consumes
// two slots; the second one is reported as its high half.
func decodeSlots(table *gdt.Table) []slotInfo {
	slots := make([]slotInfo, 0, table.Slots())

	for i := 0; i < table.Slots(); i++ {
		low := table.Entry(i)
		info := slotInfo{Slot: i, Raw: fmt.Sprintf("0x%016x", low)}

		switch {
		case i == 0:
			info.Kind = "null"
		case gdt.DescriptorFlags(low)&gdt.UserSegment != 0:
			desc := gdt.DecodeDescriptor(low, 0)
			info.Kind = "data"
			if desc.Flags()&gdt.Executable != 0 {
				info.Kind = "code"
			}
			for _, f := range userSegmentFlags {
				if desc.Flags()&f.flag != 0 {
					info.Flags = append(info.Flags, f.name)
				}
			}
			info.Flags = append(info.Flags, fmt.Sprintf("dpl=%d", desc.DPL()))
		default:
			var high uint64
			if i+1 < table.Slots() {
				high = table.Entry(i + 1)
			}
			desc := gdt.DecodeDescriptor(low, high)

			info.Kind = fmt.Sprintf("system(type=%#x)", desc.SystemType())
			if st := desc.SystemType(); st == 0x9 || st == 0xb {
				info.Kind = "tss"
			}
			if desc.Flags()&gdt.Present != 0 {
				info.Flags = append(info.Flags, "present")
			}
			if desc.TSSBusy() {
				info.Flags = append(info.Flags, "busy")
			}
			info.Flags = append(info.Flags,
				fmt.Sprintf("base=%#x", desc.Base()),
				fmt.Sprintf("limit=%d", desc.Limit()),
			)
			slots = append(slots, info)

			i++
			info = slotInfo{Slot: i, Raw: fmt.Sprintf("0x%016x", high), Kind: "high"}
		}

		slots = append(slots, info)
	}

	return slots
}

func writeLayoutTable(w io.Writer, slots []slotInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tRAW\tKIND\tFLAGS")
	for _, s := range slots {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Slot, s.Raw, s.Kind, strings.Join(s.Flags, ","))
	}
	return tw.Flush()
}

func writeLayoutJSON(w io.Writer, slots []slotInfo) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(slots)
}

func writeSelectors(w io.Writer, sel gdt.Selectors) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEGMENT\tSELECTOR\tINDEX\tRPL\tTABLE")
	for _, s := range []struct {
		name string
		sel  gdt.SegmentSelector
	}{
		{"code", sel.Code},
		{"data", sel.Data},
		{"tss", sel.TSS},
	} {
		table := "gdt"
		if s.sel.LocalTable() {
			table = "ldt"
		}
		fmt.Fprintf(tw, "%s\t0x%02x\t%d\t%d\t%s\n", s.name, uint16(s.sel), s.sel.Index(), s.sel.RPL(), table)
	}
	return tw.Flush()
}

// writeTSS lists the stack slots that hold an address, followed by the I/O
// map base. Zero slots are not configured and are left out.
func writeTSS(w io.Writer, tss *gdt.TaskStateSegment) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STACK\tADDRESS")
	for ring := gdt.Ring0; ring <= gdt.Ring2; ring++ {
		if addr := tss.PrivilegeStack(ring); addr != 0 {
			fmt.Fprintf(tw, "rsp%d\t0x%016x\n", ring, addr)
		}
	}
	for i := 0; i < gdt.InterruptStackTableSize; i++ {
		if addr := tss.InterruptStack(i); addr != 0 {
			fmt.Fprintf(tw, "ist[%d]\t0x%016x\n", i, addr)
		}
	}
	fmt.Fprintf(tw, "iomap\t%d\n", tss.IOMapBase)
	return tw.Flush()
}
