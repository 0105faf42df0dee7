package history

import (
	"sync"

	"github.com/mamadbah2/stockscan/internal/domain/models"
)

// Log is an append-only, newest-first record of committed adjustments.
// A positive capacity drops the oldest entries once exceeded; zero means unbounded.
type Log struct {
	mu       sync.RWMutex
	entries  []models.HistoryEntry
	capacity int
}

// NewLog creates an empty history log.
func NewLog(capacity int) *Log {
	if capacity < 0 {
		capacity = 0
	}
	return &Log{capacity: capacity}
}

// Append inserts entry at the head of the log.
func (l *Log) Append(entry models.HistoryEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, models.HistoryEntry{})
	copy(l.entries[1:], l.entries)
	l.entries[0] = entry

	if l.capacity > 0 && len(l.entries) > l.capacity {
		l.entries[len(l.entries)-1] = models.HistoryEntry{}
		l.entries = l.entries[:l.capacity]
	}
}

// Entries returns a copy of the log, newest first.
func (l *Log) Entries() []models.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Recent returns at most n entries, newest first. n <= 0 returns everything.
func (l *Log) Recent(n int) []models.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]models.HistoryEntry, n)
	copy(out, l.entries[:n])
	return out
}

// Latest returns the head of the log.
func (l *Log) Latest() (models.HistoryEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.entries) == 0 {
		return models.HistoryEntry{}, false
	}
	return l.entries[0], true
}

// Len reports the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
