package pager

import (
	"sync"

	"github.com/cockroachdb/errors"
)

// MemoryStore keeps records in a map. Addresses are handed out sequentially
// starting at 1 and are never reused.
type MemoryStore struct {
	records map[Addr][]byte
	next    Addr
	root    Addr
	writes  int
	deletes int
	closed  bool
	mu      sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[Addr][]byte),
		next:    1,
	}
}

func (s *MemoryStore) Write(data []byte) (Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return NullAddr, ErrClosed
	}
	addr := s.next
	s.next++
	s.records[addr] = append([]byte(nil), data...)
	s.writes++
	return addr, nil
}

func (s *MemoryStore) Read(addr Addr) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	data, ok := s.records[addr]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "address %s", addr)
	}
	return data, nil
}

func (s *MemoryStore) Delete(addr Addr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.records[addr]; !ok {
		return errors.Wrapf(ErrNotFound, "delete of address %s", addr)
	}
	delete(s.records, addr)
	s.deletes++
	return nil
}

func (s *MemoryStore) Commit(root Addr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.root = root
	return nil
}

func (s *MemoryStore) Root() Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

func (s *MemoryStore) Sync() error {
	return nil
}

// Close marks the store closed. Records are kept so a closed MemoryStore
// can be reopened with Reopen in tests.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Reopen clears the closed flag.
func (s *MemoryStore) Reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = false
}

// Writes returns how many records were written since creation.
func (s *MemoryStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Records returns the number of live records.
func (s *MemoryStore) Records() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Contains reports whether addr still holds a record.
func (s *MemoryStore) Contains(addr Addr) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[addr]
	return ok
}
