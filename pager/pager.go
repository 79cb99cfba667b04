// Package pager holds the persistence collaborators of the B+ tree: stores
// that turn encoded node records into addresses and back.
/*
Store
 ├── MemoryStore   (map of records, used by tests and transient engines)
 ├── FileStore     (append-only record log with a checksummed header)
 └── CachingStore  (ristretto read cache in front of any Store)

- a record is written once and never overwritten
- the store hands out an opaque Addr per record, NullAddr is never valid
- Commit records the address of the latest checkpoint record (the root block)
*/
package pager

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Addr is the opaque address of a persisted record.
type Addr uint64

// NullAddr marks a node that has never been written.
const NullAddr Addr = 0

func (a Addr) String() string {
	if a == NullAddr {
		return "NULL"
	}
	return fmt.Sprintf("0x%x", uint64(a))
}

var (
	ErrNotFound       = errors.New("pager: record not found")
	ErrChecksum       = errors.New("pager: record checksum mismatch")
	ErrClosed         = errors.New("pager: store is closed")
	ErrReadOnly       = errors.New("pager: store is read-only")
	ErrRecordTooLarge = errors.New("pager: record too large")
)

// Store is the persistence abstraction used by the tree. Records are opaque
// byte images; the store never interprets them.
type Store interface {
	// Write appends a record and returns its address.
	Write(data []byte) (Addr, error)
	// Read returns the record stored at addr. Callers must not modify it.
	Read(addr Addr) ([]byte, error)
	// Delete releases a record that is no longer reachable from any commit point.
	Delete(addr Addr) error
	// Commit makes addr the root block of the store.
	Commit(root Addr) error
	// Root returns the last committed root block, or NullAddr.
	Root() Addr
	Sync() error
	Close() error
}
