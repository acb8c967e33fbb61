// Package kfmt implements the formatted output used by the kernel before the
// Go allocator, the runtime and the console drivers are available.
package kfmt

import (
	"io"
	"unsafe"
)

var (
	errMissingArg   = []byte("%!(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errBadVerb      = []byte("%!(BADVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	// oneByte and numBuf are shared scratch buffers; Fprintf is therefore
	// not reentrant.
	oneByte [1]byte
	numBuf  [64]byte

	// earlyPrintBuffer captures Printf output until an output sink is set.
	earlyPrintBuffer ringBuffer

	// outputSink receives the output of Printf. While nil, output goes to
	// earlyPrintBuffer.
	outputSink io.Writer
)

// SetOutputSink makes w the target of Printf and flushes any output that was
// buffered while no sink was attached.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		earlyPrintBuffer.WriteTo(w)
	}
}

// Printf writes formatted output to the active output sink without allocating
// memory. It supports the following subset of the fmt verbs:
//
//	%s  string or []byte
//	%d  integer, base 10 (space padded)
//	%o  integer, base 8 (zero padded)
//	%x  integer, base 16, lower-case (zero padded)
//	%t  bool
//	%%  a literal percent sign
//
// An optional decimal width may precede the verb. Values shorter than the
// width are left-padded. %p and io.Stringer are not supported: both need
// reflection, which makes the compiler emit allocating conversions.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves like Printf but writes to w. A nil w selects the early
// print buffer.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		argIndex int
		width    int
		verb     byte
	)

	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			writeByte(w, format[i])
			continue
		}

		width = 0
		for i++; i < len(format) && format[i] >= '0' && format[i] <= '9'; i++ {
			width = width*10 + int(format[i]-'0')
		}

		if i == len(format) {
			doWrite(w, errNoVerb)
			break
		}

		switch verb = format[i]; verb {
		case '%':
			writeByte(w, '%')
		case 's', 'd', 'o', 'x', 't':
			if argIndex >= len(args) {
				doWrite(w, errMissingArg)
				continue
			}
			formatArg(w, verb, args[argIndex], width)
			argIndex++
		default:
			doWrite(w, errBadVerb)
		}
	}

	for ; argIndex < len(args); argIndex++ {
		doWrite(w, errExtraArg)
	}
}

func formatArg(w io.Writer, verb byte, arg interface{}, width int) {
	switch verb {
	case 's':
		formatString(w, arg, width)
	case 't':
		formatBool(w, arg)
	case 'd':
		formatInt(w, arg, 10, width)
	case 'o':
		formatInt(w, arg, 8, width)
	case 'x':
		formatInt(w, arg, 16, width)
	}
}

func formatBool(w io.Writer, arg interface{}) {
	v, ok := arg.(bool)
	switch {
	case !ok:
		doWrite(w, errWrongArgType)
	case v:
		doWrite(w, trueValue)
	default:
		doWrite(w, falseValue)
	}
}

func formatString(w io.Writer, arg interface{}, width int) {
	switch v := arg.(type) {
	case string:
		pad(w, ' ', width-len(v))
		// Converting v to a []byte allocates.
		for i := 0; i < len(v); i++ {
			writeByte(w, v[i])
		}
	case []byte:
		pad(w, ' ', width-len(v))
		doWrite(w, v)
	default:
		doWrite(w, errWrongArgType)
	}
}

func formatInt(w io.Writer, arg interface{}, base uint64, width int) {
	var (
		mag uint64
		neg bool
	)

	switch v := arg.(type) {
	case uint8:
		mag = uint64(v)
	case uint16:
		mag = uint64(v)
	case uint32:
		mag = uint64(v)
	case uint64:
		mag = v
	case uint:
		mag = uint64(v)
	case uintptr:
		mag = uint64(v)
	case int8:
		mag, neg = abs(int64(v))
	case int16:
		mag, neg = abs(int64(v))
	case int32:
		mag, neg = abs(int64(v))
	case int64:
		mag, neg = abs(v)
	case int:
		mag, neg = abs(int64(v))
	default:
		doWrite(w, errWrongArgType)
		return
	}

	// Digits are produced right to left at the end of numBuf.
	start := len(numBuf)
	for {
		start--
		numBuf[start] = "0123456789abcdef"[mag%base]
		if mag /= base; mag == 0 {
			break
		}
	}

	digits := len(numBuf) - start
	if neg {
		digits++
	}

	if base == 10 {
		pad(w, ' ', width-digits)
		if neg {
			writeByte(w, '-')
		}
	} else {
		if neg {
			writeByte(w, '-')
		}
		pad(w, '0', width-digits)
	}

	doWrite(w, numBuf[start:])
}

func abs(v int64) (uint64, bool) {
	if v < 0 {
		return uint64(-v), true
	}
	return uint64(v), false
}

func pad(w io.Writer, ch byte, count int) {
	for ; count > 0; count-- {
		writeByte(w, ch)
	}
}

func writeByte(w io.Writer, ch byte) {
	oneByte[0] = ch
	doWrite(w, oneByte[:])
}

// doWrite hides p from escape analysis. The sink is an unknown io.Writer, so
// the compiler would otherwise assume p escapes and make every Printf call
// allocate its argument slice, which crashes the kernel before the allocator
// is initialized.
func doWrite(w io.Writer, p []byte) {
	doRealWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doRealWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w != nil {
		w.Write(p)
		return
	}
	earlyPrintBuffer.Write(p)
}

// noEscape hides a pointer from escape analysis (see runtime/stubs.go).
//
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
