package repository

import (
	"sync"

	"github.com/noah-isme/pa-broadcaster/internal/models"
)

// DefaultHistoryCapacity bounds the history when no capacity is configured.
const DefaultHistoryCapacity = 50

// HistoryRepository keeps the most recent announcement records in a fixed ring.
// Identifiers start at 1, strictly increase and are never reused, even after Clear.
type HistoryRepository struct {
	mu     sync.RWMutex
	buf    []models.AnnouncementRecord
	start  int
	size   int
	nextID int64
}

// NewHistoryRepository constructs a store holding at most capacity records.
func NewHistoryRepository(capacity int) *HistoryRepository {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &HistoryRepository{buf: make([]models.AnnouncementRecord, capacity)}
}

// Append assigns the next identifier, stores the record as the newest entry and
// evicts the oldest one when the ring is full. The stored copy is returned.
func (r *HistoryRepository) Append(record models.AnnouncementRecord) models.AnnouncementRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	record.ID = r.nextID
	stored := record.Clone()

	capacity := len(r.buf)
	if r.size < capacity {
		r.buf[(r.start+r.size)%capacity] = stored
		r.size++
	} else {
		r.buf[r.start] = stored
		r.start = (r.start + 1) % capacity
	}
	return stored.Clone()
}

// Get returns the record with the given identifier if it is still retained.
func (r *HistoryRepository) Get(id int64) (models.AnnouncementRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.size == 0 {
		return models.AnnouncementRecord{}, false
	}
	newest := r.buf[(r.start+r.size-1)%len(r.buf)]
	offset := newest.ID - id
	if offset < 0 || offset >= int64(r.size) {
		return models.AnnouncementRecord{}, false
	}
	rec := r.buf[(r.start+r.size-1-int(offset))%len(r.buf)]
	if rec.ID != id {
		return models.AnnouncementRecord{}, false
	}
	return rec.Clone(), true
}

// List returns a snapshot of every record, most recent first.
func (r *HistoryRepository) List() []models.AnnouncementRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.AnnouncementRecord, 0, r.size)
	for i := r.size - 1; i >= 0; i-- {
		out = append(out, r.buf[(r.start+i)%len(r.buf)].Clone())
	}
	return out
}

// Clear drops every record. The identifier counter is left untouched.
func (r *HistoryRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.buf {
		r.buf[i] = models.AnnouncementRecord{}
	}
	r.start = 0
	r.size = 0
}

// Len reports the number of retained records.
func (r *HistoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Capacity reports the maximum number of retained records.
func (r *HistoryRepository) Capacity() int {
	return len(r.buf)
}
