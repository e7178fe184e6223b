package database

import "github.com/pkg/errors"

// ErrNotFound is returned, wrapped, when a key is missing.
var ErrNotFound = errors.New("not found")

// IsNotFoundError returns true if err wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// DataAccessor reads and writes keys, either directly on a Database or
// inside a Transaction.
type DataAccessor interface {
	// Put overwrites the value stored at key.
	Put(key *Key, value []byte) error

	// Get returns the value stored at key, or an error wrapping ErrNotFound.
	Get(key *Key) ([]byte, error)

	Has(key *Key) (bool, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key *Key) error

	// Cursor iterates over the keys of bucket in byte order.
	Cursor(bucket *Bucket) (Cursor, error)
}

// Database is a key value store that can group writes into transactions.
type Database interface {
	DataAccessor

	Begin() (Transaction, error)
	Close() error
}

// Transaction reads from a snapshot of the database taken when it began, and
// writes all of its changes at once on Commit. Writes are not visible to
// reads of the same transaction.
type Transaction interface {
	DataAccessor

	Commit() error
	Rollback() error

	// RollbackUnlessClosed rolls back a transaction that was neither
	// committed nor rolled back. It is meant to be deferred.
	RollbackUnlessClosed() error
}

// Cursor walks the rows of a single bucket. Keys and values it returns are
// only valid until it moves.
type Cursor interface {
	// First moves to the first row and returns false if the bucket is empty.
	First() bool

	// Next moves to the following row and returns false once exhausted.
	Next() bool

	// Seek moves to key, returning an error wrapping ErrNotFound if the
	// bucket has no such row.
	Seek(key *Key) error

	Key() (*Key, error)
	Value() ([]byte, error)
	Close() error
}
