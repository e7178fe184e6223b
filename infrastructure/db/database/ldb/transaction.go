package ldb

import (
	"github.com/VeriBlock/alt-integration-cpp-sub004/infrastructure/db/database"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBTransaction reads from a leveldb snapshot and buffers its writes in
// a batch that is written atomically on Commit.
type LevelDBTransaction struct {
	db       *LevelDB
	snapshot *leveldb.Snapshot
	batch    *leveldb.Batch
	isClosed bool
}

// Begin starts a transaction over a snapshot of the current state of db.
func (db *LevelDB) Begin() (database.Transaction, error) {
	snapshot, err := db.ldb.GetSnapshot()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &LevelDBTransaction{
		db:       db,
		snapshot: snapshot,
		batch:    new(leveldb.Batch),
	}, nil
}

func (tx *LevelDBTransaction) checkOpen(operation string) error {
	if tx.isClosed {
		return errors.Errorf("cannot %s a closed transaction", operation)
	}
	return nil
}

// close releases the snapshot. Further operations on tx fail.
func (tx *LevelDBTransaction) close() {
	tx.isClosed = true
	tx.snapshot.Release()
}

// Commit writes the buffered changes and closes tx.
func (tx *LevelDBTransaction) Commit() error {
	err := tx.checkOpen("commit")
	if err != nil {
		return err
	}
	tx.close()
	return errors.WithStack(tx.db.ldb.Write(tx.batch, nil))
}

// Rollback drops the buffered changes and closes tx.
func (tx *LevelDBTransaction) Rollback() error {
	err := tx.checkOpen("roll back")
	if err != nil {
		return err
	}
	tx.close()
	tx.batch.Reset()
	return nil
}

// RollbackUnlessClosed rolls tx back if it is still open.
func (tx *LevelDBTransaction) RollbackUnlessClosed() error {
	if tx.isClosed {
		return nil
	}
	return tx.Rollback()
}

// Put buffers a write of value at key.
func (tx *LevelDBTransaction) Put(key *database.Key, value []byte) error {
	err := tx.checkOpen("put into")
	if err != nil {
		return err
	}
	tx.batch.Put(key.Bytes(), value)
	return nil
}

// Get reads key from the snapshot of tx.
func (tx *LevelDBTransaction) Get(key *database.Key) ([]byte, error) {
	err := tx.checkOpen("get from")
	if err != nil {
		return nil, err
	}
	data, err := tx.snapshot.Get(key.Bytes(), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, errors.Wrapf(database.ErrNotFound, "key %s not found", key)
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}

// Has checks whether key exists in the snapshot of tx.
func (tx *LevelDBTransaction) Has(key *database.Key) (bool, error) {
	err := tx.checkOpen("read from")
	if err != nil {
		return false, err
	}
	exists, err := tx.snapshot.Has(key.Bytes(), nil)
	return exists, errors.WithStack(err)
}

// Delete buffers the removal of key.
func (tx *LevelDBTransaction) Delete(key *database.Key) error {
	err := tx.checkOpen("delete from")
	if err != nil {
		return err
	}
	tx.batch.Delete(key.Bytes())
	return nil
}

// Cursor iterates over bucket as it was in the snapshot of tx.
func (tx *LevelDBTransaction) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	err := tx.checkOpen("open a cursor on")
	if err != nil {
		return nil, err
	}
	iterator := tx.snapshot.NewIterator(util.BytesPrefix(bucket.Path()), nil)
	return newLevelDBCursor(iterator, bucket), nil
}
