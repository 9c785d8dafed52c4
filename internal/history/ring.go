// Package history keeps the bounded, FIFO-evicting buffer of recent observations.
package history

import (
	"fmt"

	"github.com/surgelove/vibe-trader/internal/signal"
)

// Ring is a fixed-capacity circular buffer of observations in arrival order.
// It is not safe for concurrent use; the owner serializes access.
type Ring struct {
	buf   []signal.Observation
	start int
	len   int
}

// New allocates a ring holding at most capacity observations.
func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring{buf: make([]signal.Observation, capacity)}
}

// Push appends obs, evicting the oldest entry when the ring is full.
func (r *Ring) Push(obs signal.Observation) {
	if r.len < len(r.buf) {
		r.buf[(r.start+r.len)%len(r.buf)] = obs
		r.len++
		return
	}
	r.buf[r.start] = obs
	r.start = (r.start + 1) % len(r.buf)
}

// Len returns the number of stored observations.
func (r *Ring) Len() int { return r.len }

// Cap returns the maximum number of stored observations.
func (r *Ring) Cap() int { return len(r.buf) }

// At indexes from the oldest entry for i >= 0 and from the newest for i < 0 (At(-1) is the latest).
func (r *Ring) At(i int) signal.Observation {
	if i < 0 {
		i += r.len
	}
	if i < 0 || i >= r.len {
		panic(fmt.Sprintf("history: index out of range [%d] with length %d", i, r.len))
	}
	return r.buf[(r.start+i)%len(r.buf)]
}

// Snapshot copies the contents in arrival order.
func (r *Ring) Snapshot() []signal.Observation {
	out := make([]signal.Observation, r.len)
	for i := range out {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

// Reset drops every stored observation.
func (r *Ring) Reset() {
	clear(r.buf)
	r.start = 0
	r.len = 0
}

// Slice adapts a plain slice to the same read interface as Ring.
type Slice []signal.Observation

func (s Slice) Len() int { return len(s) }

func (s Slice) At(i int) signal.Observation {
	if i < 0 {
		i += len(s)
	}
	return s[i]
}
