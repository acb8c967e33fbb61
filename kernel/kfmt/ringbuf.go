package kfmt

import "io"

// ringBufferSize is large enough to hold a full 80x25 text console. It must
// be a power of 2.
const ringBufferSize = 2048

// ringBuffer keeps the most recent ringBufferSize bytes written to it. Once
// full, each write overwrites the oldest byte.
type ringBuffer struct {
	buffer [ringBufferSize]byte

	// start is the index of the oldest byte and size the number of
	// buffered bytes.
	start, size int
}

// Write appends p to the buffer, discarding the oldest data if needed.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[(rb.start+rb.size)&(ringBufferSize-1)] = b
		if rb.size == ringBufferSize {
			rb.start = (rb.start + 1) & (ringBufferSize - 1)
			continue
		}
		rb.size++
	}

	return len(p), nil
}

// Read consumes up to len(p) buffered bytes. It returns io.EOF when the buffer
// is empty.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	if rb.size == 0 {
		return 0, io.EOF
	}

	n := 0
	for ; n < len(p) && rb.size > 0; n++ {
		p[n] = rb.buffer[rb.start]
		rb.start = (rb.start + 1) & (ringBufferSize - 1)
		rb.size--
	}

	return n, nil
}

// WriteTo drains the buffer into w. Unlike io.Copy with Read, it writes the
// buffered bytes in place and needs no intermediate allocation.
func (rb *ringBuffer) WriteTo(w io.Writer) (int64, error) {
	var written int64

	for rb.size > 0 {
		end := rb.start + rb.size
		if end > ringBufferSize {
			end = ringBufferSize
		}

		n, err := w.Write(rb.buffer[rb.start:end])
		written += int64(n)
		rb.start = (rb.start + n) & (ringBufferSize - 1)
		rb.size -= n
		if err != nil {
			return written, err
		}
	}

	rb.start = 0
	return written, nil
}
