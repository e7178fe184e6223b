package model

import "github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"

// ValidityChangedHandler is notified synchronously whenever the validity
// flags of a block change.
type ValidityChangedHandler func(index *BlockIndex)

// HeaderValidator checks a header against its parent before the header is
// accepted into a tree.
type HeaderValidator interface {
	ValidateHeader(header externalapi.BlockHeader, parent *BlockIndex) error
}

// BlockTree owns the block indices of a single chain, its tips and its
// active chain.
type BlockTree interface {
	Name() string

	Bootstrap(header externalapi.BlockHeader, height int32) (*BlockIndex, error)
	AcceptBlockHeader(header externalapi.BlockHeader) (*BlockIndex, error)
	AcceptPayloads(hash *externalapi.DomainHash, hasPayloads bool) (*BlockIndex, error)

	GetBlockIndex(hash []byte) *BlockIndex
	GetBlockIndexByHash(hash *externalapi.DomainHash) *BlockIndex
	GetBlockIndexByHandle(handle Handle) *BlockIndex
	BestChain() *Chain
	Tips() []*BlockIndex

	RemoveSubtree(index *BlockIndex)
	RemoveLeaf(index *BlockIndex)
	InvalidateSubtree(index *BlockIndex, reason BlockStatus, shouldDetermineBestChain bool)
	RevalidateSubtree(index *BlockIndex, reason BlockStatus, shouldDetermineBestChain bool)
	DetermineBestChain()

	ConnectOnValidityChanged(handler ValidityChangedHandler) int
	Disconnect(id int)
}
