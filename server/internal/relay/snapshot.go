package relay

import (
	"sync"
	"time"
)

// emptySnapshot is what readers see before any valid payload has arrived.
var emptySnapshot = []byte("{}")

// Snapshot is the single most-recently-received metrics payload. It is
// overwritten on every valid message and never versioned or persisted.
type Snapshot struct {
	mu        sync.RWMutex
	payload   []byte
	updatedAt time.Time
	now       func() time.Time // injectable for deterministic tests
}

// NewSnapshot returns an empty Snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{now: time.Now}
}

// Set overwrites the stored payload. Callers must not modify payload after
// calling Set.
func (s *Snapshot) Set(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload = payload
	s.updatedAt = s.now()
}

// Get returns the stored payload, its update time, and whether a payload has
// been stored yet. When empty, the payload is the literal JSON object `{}`.
func (s *Snapshot) Get() ([]byte, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.payload == nil {
		return emptySnapshot, time.Time{}, false
	}
	return s.payload, s.updatedAt, true
}
