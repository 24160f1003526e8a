package session

import "code-scanner/internal/models"

// DefaultHistorySize is how many scans a session remembers
const DefaultHistorySize = 10

// History is a fixed capacity ring buffer of scans, oldest evicted first.
// It is not safe for concurrent use, Session guards it.
type History struct {
	entries []models.HistoryEntry
	start   int
	size    int
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{entries: make([]models.HistoryEntry, capacity)}
}

// Push appends e, dropping the oldest entry when full.
func (h *History) Push(e models.HistoryEntry) {
	capacity := len(h.entries)
	if h.size < capacity {
		h.entries[(h.start+h.size)%capacity] = e
		h.size++
		return
	}
	h.entries[h.start] = e
	h.start = (h.start + 1) % capacity
}

// Entries returns a copy of the history, oldest first
func (h *History) Entries() []models.HistoryEntry {
	out := make([]models.HistoryEntry, 0, h.size)
	for i := 0; i < h.size; i++ {
		out = append(out, h.entries[(h.start+i)%len(h.entries)])
	}
	return out
}

func (h *History) Len() int {
	return h.size
}

func (h *History) Cap() int {
	return len(h.entries)
}
