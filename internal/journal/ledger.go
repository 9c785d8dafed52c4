package journal

import "sync"

// Ledger keeps the most recent entries in memory.
type Ledger struct {
	mu      sync.Mutex
	limit   int
	entries []Entry
}

// NewLedger keeps at most limit entries; a non-positive limit keeps everything.
func NewLedger(limit int) *Ledger {
	if limit < 0 {
		limit = 0
	}
	return &Ledger{limit: limit, entries: make([]Entry, 0, min(limit, 1024))}
}

// Record appends entry, dropping the oldest once the limit is reached.
func (l *Ledger) Record(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.limit > 0 && len(l.entries) == l.limit {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:len(l.entries)-1]
	}
	l.entries = append(l.entries, entry)
	return nil
}

// Snapshot returns a copy of the held entries, oldest first.
func (l *Ledger) Snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports how many entries are held.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Reset drops every entry.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.entries = l.entries[:0]
	l.mu.Unlock()
}
