package model

import "github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"

// StoredBlock is the persisted snapshot of a BlockIndex. PopData is only set
// for blocks whose payloads were accepted into a tree with payloads.
type StoredBlock struct {
	Height     int32
	Header     externalapi.BlockHeader
	Status     BlockStatus
	RefCount   int
	PayloadIDs []externalapi.DomainHash
	PopData    *externalapi.PopData
}

// BlockStore persists the blocks and the tip of a single tree.
type BlockStore interface {
	SaveBlocks(blocks []*StoredBlock) error
	LoadBlocks() ([]*StoredBlock, error)
	SaveTip(hash *externalapi.DomainHash) error
	LoadTip() (*externalapi.DomainHash, error)
}
