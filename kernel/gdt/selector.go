package gdt

// PrivilegeLevel is a CPU protection ring.
type PrivilegeLevel uint8

// Protection rings, from the most to the least privileged.
const (
	Ring0 PrivilegeLevel = iota
	Ring1
	Ring2
	Ring3
)

// SegmentSelector is the 16-bit value loaded into a segment register:
// bits 3-15 hold the descriptor index, bit 2 selects the LDT and bits 0-1
// hold the requested privilege level.
type SegmentSelector uint16

const selectorLocalTable SegmentSelector = 1 << 2

// NewSegmentSelector returns a GDT selector for the descriptor at index.
func NewSegmentSelector(index uint16, rpl PrivilegeLevel) SegmentSelector {
	return SegmentSelector(index<<3 | uint16(rpl&3))
}

// Index returns the descriptor table slot referenced by s.
func (s SegmentSelector) Index() uint16 {
	return uint16(s) >> 3
}

// RPL returns the requested privilege level.
func (s SegmentSelector) RPL() PrivilegeLevel {
	return PrivilegeLevel(s & 3)
}

// LocalTable reports whether s refers to the LDT instead of the GDT.
func (s SegmentSelector) LocalTable() bool {
	return s&selectorLocalTable != 0
}
