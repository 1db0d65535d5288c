package bazel

import (
	"sync"
)

// ringBuffer is a thread-safe, bounded byte buffer that drops old data
// when the capacity is exceeded. Used to keep the tail of command
// output for the terminal CommandResult.
type ringBuffer struct {
	mu      sync.Mutex
	data    []byte
	max     int
	written int64 // total bytes ever written (including dropped)
}

func newRingBuffer(maxBytes int) *ringBuffer {
	return &ringBuffer{
		data: make([]byte, 0, min(maxBytes, 4096)),
		max:  maxBytes,
	}
}

// Write implements io.Writer. Thread-safe.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.data = append(rb.data, p...)
	rb.written += int64(len(p))
	if len(rb.data) > rb.max {
		rb.data = rb.data[len(rb.data)-rb.max:]
	}
	return len(p), nil
}

// String returns the full buffered content.
func (rb *ringBuffer) String() string {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return string(rb.data)
}

// Truncated reports whether older data has been dropped.
func (rb *ringBuffer) Truncated() bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.written > int64(len(rb.data))
}
