package blockstore

import (
	"sort"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/infrastructure/db/database"
	"github.com/pkg/errors"
)

var (
	rootBucket = database.MakeBucket([]byte("pop"))
	tipKey     = []byte("tip")
)

// blockStore persists the blocks and the tip of one tree under its own bucket.
type blockStore struct {
	db           database.Database
	name         string
	blocksBucket *database.Bucket
	tipKey       *database.Key
}

// New instantiates a new BlockStore for the tree with the given name.
func New(db database.Database, treeName string) model.BlockStore {
	treeBucket := rootBucket.Bucket([]byte(treeName))
	return &blockStore{
		db:           db,
		name:         treeName,
		blocksBucket: treeBucket.Bucket([]byte("blocks")),
		tipKey:       treeBucket.Key(tipKey),
	}
}

// SaveBlocks replaces the stored blocks of the tree with blocks, atomically.
func (bs *blockStore) SaveBlocks(blocks []*model.StoredBlock) error {
	staleKeys, err := bs.storedKeys()
	if err != nil {
		return err
	}

	dbTx, err := bs.db.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	for _, key := range staleKeys {
		err := dbTx.Delete(key)
		if err != nil {
			return err
		}
	}
	for _, block := range blocks {
		err := dbTx.Put(bs.blocksBucket.Key(block.Header.Hash().ByteSlice()), serializeStoredBlock(block))
		if err != nil {
			return err
		}
	}

	err = dbTx.Commit()
	if err != nil {
		return err
	}
	log.Debugf("Saved %d %s blocks", len(blocks), bs.name)
	return nil
}

func (bs *blockStore) storedKeys() ([]*database.Key, error) {
	cursor, err := bs.db.Cursor(bs.blocksBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var keys []*database.Key
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		suffix := make([]byte, len(key.Suffix()))
		copy(suffix, key.Suffix())
		keys = append(keys, bs.blocksBucket.Key(suffix))
	}
	return keys, nil
}

// LoadBlocks returns the stored blocks of the tree ordered by height.
func (bs *blockStore) LoadBlocks() ([]*model.StoredBlock, error) {
	cursor, err := bs.db.Cursor(bs.blocksBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var blocks []*model.StoredBlock
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		value, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		block, err := deserializeStoredBlock(value)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: corrupted block row %s", bs.name, key)
		}
		if !block.Header.Hash().Equal(hashFromSuffix(key.Suffix())) {
			return nil, errors.Errorf("%s: block row %s holds block %s", bs.name, key, block.Header.Hash())
		}
		blocks = append(blocks, block)
	}

	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].Height != blocks[j].Height {
			return blocks[i].Height < blocks[j].Height
		}
		return blocks[i].Header.Hash().Less(blocks[j].Header.Hash())
	})
	log.Debugf("Loaded %d %s blocks", len(blocks), bs.name)
	return blocks, nil
}

func hashFromSuffix(suffix []byte) *externalapi.DomainHash {
	hash, err := externalapi.NewDomainHashFromByteSlice(suffix)
	if err != nil {
		return &externalapi.DomainHash{}
	}
	return hash
}

// SaveTip stores the hash of the active tip of the tree.
func (bs *blockStore) SaveTip(hash *externalapi.DomainHash) error {
	return bs.db.Put(bs.tipKey, hash.ByteSlice())
}

// LoadTip returns the stored active tip of the tree. It returns nil if no tip
// was stored.
func (bs *blockStore) LoadTip() (*externalapi.DomainHash, error) {
	tipBytes, err := bs.db.Get(bs.tipKey)
	if database.IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return externalapi.NewDomainHashFromByteSlice(tipBytes)
}
