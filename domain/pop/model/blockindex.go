package model

import (
	"fmt"
	"math/big"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/pkg/errors"
)

// BlockIndex is the metadata of one block of a block tree. The tree owns it;
// every other component refers to it by pointer or by Handle.
type BlockIndex struct {
	arena  *Arena
	handle Handle

	height int32
	header externalapi.BlockHeader
	hash   externalapi.DomainHash
	status BlockStatus

	parent   Handle
	children []Handle

	// chainWork is the cumulative work of the chain ending at this block.
	chainWork *big.Int

	endorsedBy               []*externalapi.Endorsement
	containingEndorsements   map[externalapi.DomainHash]*externalapi.Endorsement
	blockOfProofEndorsements []*externalapi.Endorsement
	payloadIDs               []externalapi.DomainHash

	refCount int
}

func newBlockIndex(arena *Arena, handle Handle, header externalapi.BlockHeader,
	height int32, parent *BlockIndex) *BlockIndex {

	index := &BlockIndex{
		arena:                  arena,
		handle:                 handle,
		height:                 height,
		header:                 header,
		hash:                   *header.Hash(),
		status:                 StatusHeaderKnown,
		parent:                 NoHandle,
		chainWork:              header.Work(),
		containingEndorsements: make(map[externalapi.DomainHash]*externalapi.Endorsement),
	}
	if parent != nil {
		if parent.height+1 != height {
			panic(errors.Errorf("block %s at height %d can't extend %s at height %d",
				index.hash, height, parent.hash, parent.height))
		}
		index.parent = parent.handle
		index.chainWork.Add(index.chainWork, parent.chainWork)
		parent.children = append(parent.children, handle)
	}
	return index
}

// Handle returns the stable arena handle of the index.
func (index *BlockIndex) Handle() Handle {
	return index.handle
}

// Height returns the distance of the block from the root of its chain.
func (index *BlockIndex) Height() int32 {
	return index.height
}

// Header returns the block header.
func (index *BlockIndex) Header() externalapi.BlockHeader {
	return index.header
}

// Hash returns the block hash.
func (index *BlockIndex) Hash() *externalapi.DomainHash {
	hash := index.hash
	return &hash
}

// ShortHash returns the truncated block hash the tree is keyed by.
func (index *BlockIndex) ShortHash() externalapi.ShortHash {
	return index.hash.Short()
}

// Status returns the status bit field of the block.
func (index *BlockIndex) Status() BlockStatus {
	return index.status
}

// HasFlags returns true if every flag in flags is set.
func (index *BlockIndex) HasFlags(flags BlockStatus) bool {
	return index.status.KnownFlags(flags)
}

// SetFlags raises the given flags.
func (index *BlockIndex) SetFlags(flags BlockStatus) {
	index.status |= flags
}

// UnsetFlags lowers the given flags.
func (index *BlockIndex) UnsetFlags(flags BlockStatus) {
	index.status &^= flags
}

// IsValid returns true if the block has no invalidity reason.
func (index *BlockIndex) IsValid() bool {
	return index.status.IsValid()
}

// IsActive returns true if the block is part of the applied chain.
func (index *BlockIndex) IsActive() bool {
	return index.HasFlags(StatusActive)
}

// IsConnected returns true if the block can be applied.
func (index *BlockIndex) IsConnected() bool {
	return index.HasFlags(StatusConnected)
}

// IsDeleted returns true if the block was removed from its tree.
func (index *BlockIndex) IsDeleted() bool {
	return index.HasFlags(StatusDeleted)
}

// IsBootstrap returns true if the block is the root of its tree.
func (index *BlockIndex) IsBootstrap() bool {
	return index.HasFlags(StatusBootstrap)
}

// ParentHandle returns the handle of the parent, or NoHandle for a root.
func (index *BlockIndex) ParentHandle() Handle {
	return index.parent
}

// Parent returns the parent of the block, or nil for a root or a parent that
// was recycled.
func (index *BlockIndex) Parent() *BlockIndex {
	return index.arena.Resolve(index.parent)
}

// Children returns the children of the block in insertion order.
func (index *BlockIndex) Children() []*BlockIndex {
	children := make([]*BlockIndex, 0, len(index.children))
	for _, handle := range index.children {
		child := index.arena.Resolve(handle)
		if child != nil {
			children = append(children, child)
		}
	}
	return children
}

// HasChildren returns true if the block has at least one child.
func (index *BlockIndex) HasChildren() bool {
	return len(index.children) > 0
}

// HasValidChild returns true if any child of the block is valid.
func (index *BlockIndex) HasValidChild() bool {
	for _, child := range index.Children() {
		if child.IsValid() {
			return true
		}
	}
	return false
}

// RemoveChild unlinks child from the block.
func (index *BlockIndex) RemoveChild(child *BlockIndex) {
	for i, handle := range index.children {
		if handle == child.handle {
			index.children = append(index.children[:i], index.children[i+1:]...)
			return
		}
	}
	panic(errors.Errorf("block %s is not a child of %s", child, index))
}

// ChainWork returns the cumulative work of the chain ending at this block.
func (index *BlockIndex) ChainWork() *big.Int {
	return new(big.Int).Set(index.chainWork)
}

// Ancestor returns the ancestor of the block at the given height, the block
// itself if height equals its height, or nil if no such ancestor exists.
func (index *BlockIndex) Ancestor(height int32) *BlockIndex {
	if height < 0 || height > index.height {
		return nil
	}
	current := index
	for current != nil && current.height > height {
		current = current.Parent()
	}
	return current
}

// IsAncestorOf returns true if index is other or one of its ancestors.
func (index *BlockIndex) IsAncestorOf(other *BlockIndex) bool {
	return other.Ancestor(index.height) == index
}

// EndorsedBy returns the endorsements of this block in insertion order.
func (index *BlockIndex) EndorsedBy() []*externalapi.Endorsement {
	endorsedBy := make([]*externalapi.Endorsement, len(index.endorsedBy))
	copy(endorsedBy, index.endorsedBy)
	return endorsedBy
}

// AddEndorsedBy appends an endorsement of this block.
func (index *BlockIndex) AddEndorsedBy(endorsement *externalapi.Endorsement) {
	index.endorsedBy = append(index.endorsedBy, endorsement)
}

// RemoveLastEndorsedBy removes the last endorsement of this block with the
// given id. It returns false if none was found.
func (index *BlockIndex) RemoveLastEndorsedBy(id *externalapi.DomainHash) bool {
	var removed bool
	index.endorsedBy, removed = removeLastEndorsement(index.endorsedBy, id)
	return removed
}

// ContainingEndorsement returns the endorsement with the given id that is
// contained in this block, if any.
func (index *BlockIndex) ContainingEndorsement(id *externalapi.DomainHash) (*externalapi.Endorsement, bool) {
	endorsement, ok := index.containingEndorsements[*id]
	return endorsement, ok
}

// ContainingEndorsements returns the endorsements contained in this block.
func (index *BlockIndex) ContainingEndorsements() map[externalapi.DomainHash]*externalapi.Endorsement {
	clone := make(map[externalapi.DomainHash]*externalapi.Endorsement, len(index.containingEndorsements))
	for id, endorsement := range index.containingEndorsements {
		clone[id] = endorsement
	}
	return clone
}

// AddContainingEndorsement records an endorsement contained in this block.
func (index *BlockIndex) AddContainingEndorsement(endorsement *externalapi.Endorsement) {
	index.containingEndorsements[endorsement.ID] = endorsement
}

// RemoveContainingEndorsement forgets the contained endorsement with the given
// id. It returns false if none was found.
func (index *BlockIndex) RemoveContainingEndorsement(id *externalapi.DomainHash) bool {
	_, ok := index.containingEndorsements[*id]
	delete(index.containingEndorsements, *id)
	return ok
}

// BlockOfProofEndorsements returns the endorsements proven by this block in
// insertion order.
func (index *BlockIndex) BlockOfProofEndorsements() []*externalapi.Endorsement {
	endorsements := make([]*externalapi.Endorsement, len(index.blockOfProofEndorsements))
	copy(endorsements, index.blockOfProofEndorsements)
	return endorsements
}

// AddBlockOfProofEndorsement records an endorsement proven by this block.
func (index *BlockIndex) AddBlockOfProofEndorsement(endorsement *externalapi.Endorsement) {
	index.blockOfProofEndorsements = append(index.blockOfProofEndorsements, endorsement)
}

// RemoveLastBlockOfProofEndorsement removes the last endorsement with the given
// id proven by this block. It returns false if none was found.
func (index *BlockIndex) RemoveLastBlockOfProofEndorsement(id *externalapi.DomainHash) bool {
	var removed bool
	index.blockOfProofEndorsements, removed = removeLastEndorsement(index.blockOfProofEndorsements, id)
	return removed
}

// PayloadIDs returns the ids of the proof payloads registered against this
// block in insertion order.
func (index *BlockIndex) PayloadIDs() []externalapi.DomainHash {
	ids := make([]externalapi.DomainHash, len(index.payloadIDs))
	copy(ids, index.payloadIDs)
	return ids
}

// AddPayloadID registers a proof payload against this block.
func (index *BlockIndex) AddPayloadID(id *externalapi.DomainHash) {
	index.payloadIDs = append(index.payloadIDs, *id)
}

// RemoveLastPayloadID unregisters the last occurrence of id. It returns false
// if id was not registered.
func (index *BlockIndex) RemoveLastPayloadID(id *externalapi.DomainHash) bool {
	for i := len(index.payloadIDs) - 1; i >= 0; i-- {
		if index.payloadIDs[i] == *id {
			index.payloadIDs = append(index.payloadIDs[:i], index.payloadIDs[i+1:]...)
			return true
		}
	}
	return false
}

// RefCount returns the number of commands referencing this block.
func (index *BlockIndex) RefCount() int {
	return index.refCount
}

// AddRef increments the reference count.
func (index *BlockIndex) AddRef() {
	index.refCount++
}

// RemoveRef decrements the reference count. Once a deleted block loses its
// last reference its arena slot is recycled.
func (index *BlockIndex) RemoveRef() {
	if index.refCount == 0 {
		panic(errors.Errorf("block %s has no references to remove", index))
	}
	index.refCount--
	if index.refCount == 0 {
		index.arena.Release(index)
	}
}

func (index *BlockIndex) String() string {
	return fmt.Sprintf("%s@%d", index.hash.Short(), index.height)
}

func removeLastEndorsement(endorsements []*externalapi.Endorsement,
	id *externalapi.DomainHash) ([]*externalapi.Endorsement, bool) {

	for i := len(endorsements) - 1; i >= 0; i-- {
		if endorsements[i].ID == *id {
			return append(endorsements[:i], endorsements[i+1:]...), true
		}
	}
	return endorsements, false
}
