package externalapi

import "math/big"

// BlockHeader represents an immutable block header of any of the chains
// a block tree can track.
type BlockHeader interface {
	Hash() *DomainHash
	PreviousHash() *DomainHash
	Version() uint16
	MerkleRoot() *DomainHash
	TimeInSeconds() int64
	Difficulty() uint64
	Nonce() uint64

	// Work returns the amount of work this header contributes to its chain.
	Work() *big.Int

	Clone() BlockHeader
}
