package demo

import "sync"

// StageStore tracks which stage of a scripted demo each thread is on.
// It is injected wherever needed rather than living as ambient
// process-wide state: created per demo session, cleared on reset.
type StageStore interface {
	Stage(threadID string) int
	Advance(threadID string) int
	Reset()
}

// MemoryStore is the in-memory StageStore used by demo sessions.
type MemoryStore struct {
	mu     sync.Mutex
	stages map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stages: make(map[string]int)}
}

// Stage returns the current stage for a thread, starting at zero.
func (s *MemoryStore) Stage(threadID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stages[threadID]
}

// Advance moves a thread to its next stage and returns it.
func (s *MemoryStore) Advance(threadID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages[threadID]++
	return s.stages[threadID]
}

// Reset clears every thread's stage.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages = make(map[string]int)
}

var _ StageStore = (*MemoryStore)(nil)
