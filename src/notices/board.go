// Package notices keeps the admin-visible notices raised by the relay,
// such as delivery failures seen while an administrator was browsing.
package notices

import (
	"sync"
	"time"
)

const defaultCapacity = 200

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

type Notice struct {
	Seq       uint64    `json:"seq"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Board is a bounded, process-wide notice list. The oldest notices are
// dropped once capacity is reached.
type Board struct {
	mu       sync.RWMutex
	seq      uint64
	capacity int
	items    []Notice
}

func NewBoard(capacity int) *Board {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Board{capacity: capacity}
}

// Post appends a notice and returns its sequence number.
func (b *Board) Post(severity Severity, message string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	b.items = append(b.items, Notice{
		Seq:       b.seq,
		Severity:  severity,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	})
	if over := len(b.items) - b.capacity; over > 0 {
		b.items = append([]Notice(nil), b.items[over:]...)
	}
	return b.seq
}

// Since returns the notices with a sequence number greater than seq.
func (b *Board) Since(seq uint64) []Notice {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := []Notice{}
	for _, n := range b.items {
		if n.Seq > seq {
			out = append(out, n)
		}
	}
	return out
}

// Dismiss removes the notice with seq.
func (b *Board) Dismiss(seq uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, n := range b.items {
		if n.Seq == seq {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return true
		}
	}
	return false
}
