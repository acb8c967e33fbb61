package kfmt

import (
	"bytes"
	"errors"
	"lmkernel/kernel"
	"lmkernel/kernel/cpu"
	"testing"
)

func TestPanic(t *testing.T) {
	defer func() {
		cpuHaltFn = cpu.Halt
		outputSink = nil
		panicking = 0
	}()

	var (
		cpuHaltCalled bool
		buf           bytes.Buffer
	)
	cpuHaltFn = func() {
		cpuHaltCalled = true
	}
	SetOutputSink(&buf)

	specs := []struct {
		arg interface{}
		exp string
	}{
		{
			&kernel.Error{Module: "test", Message: "panic test"},
			"\n-----------------------------------\n[test] unrecoverable error: panic test\n*** kernel panic: system halted ***\n-----------------------------------\n",
		},
		{
			errors.New("go error"),
			"\n-----------------------------------\n[rt] unrecoverable error: go error\n*** kernel panic: system halted ***\n-----------------------------------\n",
		},
		{
			"string error",
			"\n-----------------------------------\n[rt] unrecoverable error: string error\n*** kernel panic: system halted ***\n-----------------------------------\n",
		},
		{
			nil,
			"\n-----------------------------------\n*** kernel panic: system halted ***\n-----------------------------------\n",
		},
	}

	for specIndex, spec := range specs {
		cpuHaltCalled = false
		panicking = 0
		buf.Reset()

		Panic(spec.arg)

		if got := buf.String(); got != spec.exp {
			t.Errorf("[spec %d] expected to get:\n%q\ngot:\n%q", specIndex, spec.exp, got)
		}

		if !cpuHaltCalled {
			t.Errorf("[spec %d] expected cpu.Halt() to be called by Panic", specIndex)
		}
	}
}

func TestPanicWhileReporting(t *testing.T) {
	defer func() {
		cpuHaltFn = cpu.Halt
		outputSink = nil
		panicking = 0
	}()

	var (
		haltCount int
		buf       bytes.Buffer
	)
	SetOutputSink(&buf)

	// The halt mock of the outer panic faults again, the way a broken output
	// sink would.
	cpuHaltFn = func() {
		haltCount++
		if haltCount == 1 {
			Panic(&kernel.Error{Module: "test", Message: "nested"})
		}
	}

	Panic(&kernel.Error{Module: "test", Message: "outer"})

	exp := "\n-----------------------------------\n[test] unrecoverable error: outer\n*** kernel panic: system halted ***\n-----------------------------------\n" +
		"\n[kfmt] panic while reporting a panic\n"
	if got := buf.String(); got != exp {
		t.Errorf("expected to get:\n%q\ngot:\n%q", exp, got)
	}

	if haltCount != 2 {
		t.Errorf("expected cpu.Halt() to be called twice; called %d times", haltCount)
	}
}
