package gdt

import "unsafe"

const (
	// TSSSize is the size of the 64-bit task state segment.
	TSSSize = 104

	// InterruptStackTableSize is the number of IST slots in a TSS.
	InterruptStackTableSize = 7

	// privilegeStackTableSize is the number of RSPn slots in a TSS.
	privilegeStackTableSize = 3
)

// stackPointer is a 64-bit address stored as two dwords. The TSS places its
// stack pointers at 4-byte offsets, so a uint64 field would be padded.
type stackPointer struct {
	lo, hi uint32
}

func (p *stackPointer) set(addr uintptr) {
	p.lo = uint32(addr)
	p.hi = uint32(uint64(addr) >> 32)
}

func (p *stackPointer) get() uintptr {
	return uintptr(uint64(p.hi)<<32 | uint64(p.lo))
}

// TaskStateSegment mirrors the in-memory layout of the 64-bit TSS. Hardware
// task switching does not exist in long mode; the CPU only reads the stack
// tables when it changes privilege level or delivers an interrupt through a
// gate with a non-zero IST field.
type TaskStateSegment struct {
	_               uint32
	privilegeStacks [privilegeStackTableSize]stackPointer
	_               [2]uint32
	interruptStacks [InterruptStackTableSize]stackPointer
	_               [2]uint32
	_               uint16

	// IOMapBase is the offset of the I/O permission bitmap from the start
	// of the TSS. An offset at or past the TSS limit means there is no
	// bitmap and every port access from user mode faults.
	IOMapBase uint16
}

// NewTaskStateSegment returns a TSS with empty stack tables and no I/O
// permission bitmap.
func NewTaskStateSegment() TaskStateSegment {
	return TaskStateSegment{IOMapBase: uint16(unsafe.Sizeof(TaskStateSegment{}))}
}

// SetInterruptStack stores addr in the IST slot with the given 0-based index.
// Slot 0 is the one the hardware calls IST1.
func (tss *TaskStateSegment) SetInterruptStack(index int, addr uintptr) {
	if index < 0 || index >= InterruptStackTableSize {
		panic(errISTIndex)
	}
	tss.interruptStacks[index].set(addr)
}

// InterruptStack returns the address stored in the IST slot with the given
// 0-based index.
func (tss *TaskStateSegment) InterruptStack(index int) uintptr {
	if index < 0 || index >= InterruptStackTableSize {
		panic(errISTIndex)
	}
	return tss.interruptStacks[index].get()
}

// SetPrivilegeStack stores the stack the CPU loads when entering the given
// ring from a less privileged one.
func (tss *TaskStateSegment) SetPrivilegeStack(ring PrivilegeLevel, addr uintptr) {
	if int(ring) >= privilegeStackTableSize {
		panic(errPrivilegeStackIndex)
	}
	tss.privilegeStacks[ring].set(addr)
}

// PrivilegeStack returns the stack registered for ring.
func (tss *TaskStateSegment) PrivilegeStack(ring PrivilegeLevel) uintptr {
	if int(ring) >= privilegeStackTableSize {
		panic(errPrivilegeStackIndex)
	}
	return tss.privilegeStacks[ring].get()
}

var kernelTSS TaskStateSegment

// TSS returns the kernel task state segment. It is built on first use with
// the double fault stack in slot DoubleFaultISTIndex and every other slot
// left empty. The CPU reads it asynchronously once the task register points
// at it, so callers must treat it as read-only.
func TSS() *TaskStateSegment {
	tssOnce.Do(func() {
		kernelTSS = NewTaskStateSegment()
		kernelTSS.SetInterruptStack(DoubleFaultISTIndex, DoubleFaultStackTop())
	})
	return &kernelTSS
}
