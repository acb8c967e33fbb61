package gdt

import (
	"testing"
	"unsafe"
)

func TestUserSegmentDescriptors(t *testing.T) {
	specs := []struct {
		desc     Descriptor
		expRaw   uint64
		expFlags DescriptorFlags
		expDPL   PrivilegeLevel
	}{
		{
			KernelCodeSegment(),
			0x0020980000000000,
			UserSegment | Present | Executable | LongMode,
			Ring0,
		},
		{
			KernelDataSegment(),
			0x0020920000000000,
			UserSegment | Present | Writable | LongMode,
			Ring0,
		},
		{
			UserSegmentDescriptor(UserSegment | Present | Writable | DPLRing3),
			0x0000f20000000000,
			UserSegment | Present | Writable | DPLRing3,
			Ring3,
		},
	}

	for specIndex, spec := range specs {
		if got := spec.desc.Low(); got != spec.expRaw {
			t.Errorf("[spec %d] expected raw descriptor 0x%16x; got 0x%16x", specIndex, spec.expRaw, got)
		}

		if got := spec.desc.Flags(); got != spec.expFlags {
			t.Errorf("[spec %d] expected flags 0x%x; got 0x%x", specIndex, spec.expFlags, got)
		}

		if got := spec.desc.DPL(); got != spec.expDPL {
			t.Errorf("[spec %d] expected DPL %d; got %d", specIndex, spec.expDPL, got)
		}

		if spec.desc.IsSystem() {
			t.Errorf("[spec %d] expected a user segment descriptor", specIndex)
		}
	}
}

func TestTSSSegment(t *testing.T) {
	tss := TSS()
	base := uint64(uintptr(unsafe.Pointer(tss)))
	desc := TSSSegment(tss)

	if !desc.IsSystem() {
		t.Fatal("expected TSS descriptor to be a system descriptor")
	}

	expLow := uint64(1)<<47 | // present
		uint64(0x9)<<40 | // available 64-bit TSS
		uint64(TSSSize-1) |
		(base&0xffffff)<<16 |
		(base>>24&0xff)<<56
	if got := desc.Low(); got != expLow {
		t.Errorf("expected low slot 0x%16x; got 0x%16x", expLow, got)
	}

	if got, exp := desc.High(), base>>32; got != exp {
		t.Errorf("expected high slot 0x%x; got 0x%x", exp, got)
	}

	if got := desc.Base(); got != base {
		t.Errorf("expected decoded base 0x%x; got 0x%x", base, got)
	}

	if got := desc.Limit(); got != TSSSize-1 {
		t.Errorf("expected limit %d; got %d", TSSSize-1, got)
	}

	if desc.Flags()&UserSegment != 0 {
		t.Error("expected TSS descriptor to have the UserSegment bit clear")
	}

	if desc.DPL() != Ring0 {
		t.Errorf("expected TSS descriptor DPL 0; got %d", desc.DPL())
	}
}

func TestDecodeDescriptor(t *testing.T) {
	tssDesc := TSSSegment(TSS())

	specs := []struct {
		low, high uint64
		exp       Descriptor
	}{
		{KernelCodeSegment().Low(), 0xdead, KernelCodeSegment()},
		{KernelDataSegment().Low(), 0, KernelDataSegment()},
		{tssDesc.Low(), tssDesc.High(), tssDesc},
	}

	for specIndex, spec := range specs {
		if got := DecodeDescriptor(spec.low, spec.high); got != spec.exp {
			t.Errorf("[spec %d] expected decoded descriptor %+v; got %+v", specIndex, spec.exp, got)
		}
	}

	if got := tssDesc.SystemType(); got != 0x9 {
		t.Errorf("expected TSS system type 0x9; got 0x%x", got)
	}

	busy := DecodeDescriptor(tssDesc.Low()&^systemTypeMask|tssBusy, tssDesc.High())
	if !busy.TSSBusy() || tssDesc.TSSBusy() {
		t.Error("expected TSSBusy to report the CPU-set busy type only")
	}
}
