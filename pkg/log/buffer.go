package log

import (
	"fmt"
	"io"
	"sync"
)

// DefaultBufferSize is the number of records a [Buffer] keeps when created
// with a non-positive size.
const DefaultBufferSize = 100

// Buffer holds the most recent log records written while the UI owns the
// terminal. Each call to Write is one record. Once full, each new record
// replaces the oldest one.
//
// Buffer is safe for concurrent use.
type Buffer struct {
	records [][]byte
	start   int
	n       int
	dropped int
	mu      sync.Mutex
}

// NewBuffer returns a [Buffer] that keeps up to size records.
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultBufferSize
	}

	return &Buffer{records: make([][]byte, size)}
}

// Write implements [io.Writer]. p is copied.
func (b *Buffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	rec := append([]byte(nil), p...)

	b.mu.Lock()
	defer b.mu.Unlock()

	size := len(b.records)
	if b.n < size {
		b.records[(b.start+b.n)%size] = rec
		b.n++

		return len(p), nil
	}

	b.records[b.start] = rec
	b.start = (b.start + 1) % size
	b.dropped++

	return len(p), nil
}

// Records returns copies of the buffered records, oldest first.
func (b *Buffer) Records() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.n == 0 {
		return nil
	}

	out := make([][]byte, b.n)
	for i := range b.n {
		out[i] = append([]byte(nil), b.records[(b.start+i)%len(b.records)]...)
	}

	return out
}

// Len returns the number of buffered records.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.n
}

// Cap returns the maximum number of buffered records.
func (b *Buffer) Cap() int {
	return len(b.records)
}

// Dropped returns the number of records that were overwritten.
func (b *Buffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.dropped
}

// Reset discards all records and the dropped count.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	clear(b.records)
	b.start = 0
	b.n = 0
	b.dropped = 0
}

// WriteTo implements [io.WriterTo]. When records were dropped, a note saying
// how many is written first.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	records := b.Records()

	var total int64

	if dropped := b.Dropped(); dropped > 0 {
		n, err := fmt.Fprintf(w, "... %d earlier log records dropped\n", dropped)
		total += int64(n)

		if err != nil {
			return total, fmt.Errorf("write note: %w", err)
		}
	}

	for _, rec := range records {
		n, err := w.Write(rec)
		total += int64(n)

		if err != nil {
			return total, fmt.Errorf("write record: %w", err)
		}
	}

	return total, nil
}
