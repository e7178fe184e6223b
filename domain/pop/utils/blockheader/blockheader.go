package blockheader

import (
	"math/big"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/utils/hashes"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/utils/serialization"
	"github.com/pkg/errors"
)

type blockHeader struct {
	version    uint16
	prevHash   externalapi.DomainHash
	merkleRoot externalapi.DomainHash
	timeInSecs int64
	difficulty uint64
	nonce      uint64
	cachedHash *externalapi.DomainHash
	cachedWork *big.Int
}

// NewImmutableBlockHeader returns a new immutable header
func NewImmutableBlockHeader(
	version uint16,
	prevHash *externalapi.DomainHash,
	merkleRoot *externalapi.DomainHash,
	timeInSeconds int64,
	difficulty uint64,
	nonce uint64,
) externalapi.BlockHeader {
	header := &blockHeader{
		version:    version,
		prevHash:   *prevHash,
		merkleRoot: *merkleRoot,
		timeInSecs: timeInSeconds,
		difficulty: difficulty,
		nonce:      nonce,
	}
	header.cachedHash = header.computeHash()
	header.cachedWork = new(big.Int).SetUint64(difficulty)
	return header
}

func (bh *blockHeader) computeHash() *externalapi.DomainHash {
	writer := hashes.NewBlockHeaderHashWriter()
	err := serialization.WriteElements(writer, bh.version, &bh.prevHash, &bh.merkleRoot,
		bh.timeInSecs, bh.difficulty, bh.nonce)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. Hash digest should never return an error"))
	}
	return writer.Finalize()
}

func (bh *blockHeader) Hash() *externalapi.DomainHash {
	hash := *bh.cachedHash
	return &hash
}

func (bh *blockHeader) PreviousHash() *externalapi.DomainHash {
	prevHash := bh.prevHash
	return &prevHash
}

func (bh *blockHeader) Version() uint16 {
	return bh.version
}

func (bh *blockHeader) MerkleRoot() *externalapi.DomainHash {
	merkleRoot := bh.merkleRoot
	return &merkleRoot
}

func (bh *blockHeader) TimeInSeconds() int64 {
	return bh.timeInSecs
}

func (bh *blockHeader) Difficulty() uint64 {
	return bh.difficulty
}

func (bh *blockHeader) Nonce() uint64 {
	return bh.nonce
}

func (bh *blockHeader) Work() *big.Int {
	return new(big.Int).Set(bh.cachedWork)
}

// Clone returns the header itself. Immutable headers never need a deep copy.
func (bh *blockHeader) Clone() externalapi.BlockHeader {
	return bh
}
