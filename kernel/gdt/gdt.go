// Package gdt builds the long mode segmentation state of the kernel: a global
// descriptor table with kernel code and data segments, a task state segment
// whose interrupt stack table points at a dedicated double fault stack, and
// the routine that makes both live on a CPU core.
//
// The stack, the TSS and the table are process-wide singletons. Each one is
// built on first use, exactly once, and never modified afterwards (apart from
// the TSS busy bit, which the CPU itself flips). Every core activates the same
// shared table by calling Init.
package gdt

import (
	"lmkernel/kernel"
	"lmkernel/kernel/cpu"
	"lmkernel/kernel/kfmt"
	"lmkernel/kernel/sync"
	"sync/atomic"
)

// DoubleFaultISTIndex is the IST slot (0-based) holding the double fault
// stack. The IDT gate for the double fault vector must select it; see
// ISTOffset.
const DoubleFaultISTIndex = 0

var (
	errTableFull           = &kernel.Error{Module: "gdt", Message: "descriptor table full"}
	errISTIndex            = &kernel.Error{Module: "gdt", Message: "interrupt stack table index out of range"}
	errPrivilegeStackIndex = &kernel.Error{Module: "gdt", Message: "privilege stack index out of range"}
)

// ISTOffset converts a 0-based IST slot index into the value stored in the
// IST field of an IDT gate, where 0 means "do not switch stacks".
func ISTOffset(index int) uint8 {
	if index < 0 || index >= InterruptStackTableSize {
		panic(errISTIndex)
	}
	return uint8(index + 1)
}

// Selectors holds the selectors of the descriptors in the kernel table, in
// the order they were appended.
type Selectors struct {
	Code SegmentSelector
	Data SegmentSelector
	TSS  SegmentSelector
}

// state tracks the process-wide segmentation lifecycle. It only moves
// forward.
type state uint32

const (
	stateUninitialized state = iota
	stateTablesBuilt
	stateActivated
)

// segmentLoader is the boundary between the table logic and the privileged
// instructions that install it. Arguments are passed by value: a pointer
// handed to an interface method escapes, and nothing may be heap allocated
// this early.
type segmentLoader interface {
	LoadGDT(ptr cpu.DescriptorTablePointer)
	SetCS(sel SegmentSelector)
	LoadDS(sel SegmentSelector)
	LoadES(sel SegmentSelector)
	LoadSS(sel SegmentSelector)
	LoadTSS(sel SegmentSelector)
}

// cpuSegmentLoader executes the real instructions.
type cpuSegmentLoader struct{}

func (cpuSegmentLoader) LoadGDT(ptr cpu.DescriptorTablePointer) { cpu.LoadGDT(&ptr) }
func (cpuSegmentLoader) SetCS(sel SegmentSelector)              { cpu.SetCodeSegment(uint16(sel)) }
func (cpuSegmentLoader) LoadDS(sel SegmentSelector)             { cpu.LoadDataSegment(uint16(sel)) }
func (cpuSegmentLoader) LoadES(sel SegmentSelector)             { cpu.LoadExtraSegment(uint16(sel)) }
func (cpuSegmentLoader) LoadSS(sel SegmentSelector)             { cpu.LoadStackSegment(uint16(sel)) }
func (cpuSegmentLoader) LoadTSS(sel SegmentSelector)            { cpu.LoadTaskRegister(uint16(sel)) }

var (
	// loader is mocked by tests.
	loader segmentLoader = cpuSegmentLoader{}

	stackOnce, tssOnce, tableOnce sync.Once

	kernelTable     Table
	kernelSelectors Selectors

	// trLock serializes the busy bit reset and LTR pair across cores.
	trLock sync.Spinlock

	segState uint32
)

// DescriptorTable returns the kernel descriptor table and the selectors of its
// entries. The table is built on first use with the kernel code segment, the
// kernel data segment and the TSS descriptor, in that order.
func DescriptorTable() (*Table, Selectors) {
	tableOnce.Do(func() {
		tss := TSS()
		kernelSelectors.Code = kernelTable.Append(KernelCodeSegment())
		kernelSelectors.Data = kernelTable.Append(KernelDataSegment())
		kernelSelectors.TSS = kernelTable.Append(TSSSegment(tss))

		advanceState(stateUninitialized, stateTablesBuilt)
		logTable(&kernelSelectors, tss)
	})
	return &kernelTable, kernelSelectors
}

// Init installs the kernel descriptor table and TSS on the calling core. It
// must be invoked once per core after entering long mode and before the
// double fault vector is enabled. The tables are built by the first call on
// any core; later calls only reload the segment registers.
func Init() {
	table, sel := DescriptorTable()
	activate(loader, table, sel)
	advanceState(stateTablesBuilt, stateActivated)
}

// activate loads table into the GDTR, switches CS, then DS/ES/SS and finally
// loads the task register. The selectors must come from table.
func activate(l segmentLoader, table *Table, sel Selectors) {
	l.LoadGDT(table.Pointer())

	l.SetCS(sel.Code)
	l.LoadDS(sel.Data)
	l.LoadES(sel.Data)
	l.LoadSS(sel.Data)

	trLock.Acquire()
	table.markTSSAvailable(sel.TSS)
	l.LoadTSS(sel.TSS)
	trLock.Release()
}

func advanceState(from, to state) {
	atomic.CompareAndSwapUint32(&segState, uint32(from), uint32(to))
}

func currentState() state {
	return state(atomic.LoadUint32(&segState))
}

func logTable(sel *Selectors, tss *TaskStateSegment) {
	kfmt.Printf("[gdt] built descriptor table: code=0x%2x data=0x%2x tss=0x%2x\n",
		uint16(sel.Code), uint16(sel.Data), uint16(sel.TSS))
	kfmt.Printf("[gdt] double fault stack: ist%d top=0x%16x\n",
		DoubleFaultISTIndex, tss.InterruptStack(DoubleFaultISTIndex))
}
