package model

import (
	"fmt"
	"math"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/pkg/errors"
)

// Handle is a stable reference to a BlockIndex owned by an Arena. A handle
// whose slot was recycled no longer resolves.
type Handle struct {
	Slot       uint32
	Generation uint32
}

// NoHandle refers to no block. It is the parent handle of a root.
var NoHandle = Handle{Slot: math.MaxUint32, Generation: math.MaxUint32}

// IsNone returns true if h refers to no block.
func (h Handle) IsNone() bool {
	return h == NoHandle
}

func (h Handle) String() string {
	if h.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%d:%d", h.Slot, h.Generation)
}

type arenaSlot struct {
	generation uint32
	index      *BlockIndex
}

// Arena owns the block indices of a single tree. Removed indices are retired:
// they stay resolvable as tombstones while their reference count is positive
// and their slot is only recycled, with a new generation, once it drops to zero.
type Arena struct {
	slots     []arenaSlot
	freeSlots []uint32
	live      int
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Allocate creates a new index for header at height, linked to parent
// (which may be nil for a root).
func (a *Arena) Allocate(header externalapi.BlockHeader, height int32, parent *BlockIndex) *BlockIndex {
	var slot uint32
	if len(a.freeSlots) > 0 {
		slot = a.freeSlots[len(a.freeSlots)-1]
		a.freeSlots = a.freeSlots[:len(a.freeSlots)-1]
	} else {
		slot = uint32(len(a.slots))
		a.slots = append(a.slots, arenaSlot{})
	}

	handle := Handle{Slot: slot, Generation: a.slots[slot].generation}
	index := newBlockIndex(a, handle, header, height, parent)
	a.slots[slot].index = index
	a.live++
	return index
}

// Resolve returns the index referred to by handle, or nil if the handle is
// stale. Tombstones resolve.
func (a *Arena) Resolve(handle Handle) *BlockIndex {
	if handle.IsNone() || int(handle.Slot) >= len(a.slots) {
		return nil
	}
	slot := a.slots[handle.Slot]
	if slot.generation != handle.Generation {
		return nil
	}
	return slot.index
}

// Retire marks index as deleted. Its slot is recycled right away unless some
// command still references it.
func (a *Arena) Retire(index *BlockIndex) {
	if a.Resolve(index.handle) != index {
		panic(errors.Errorf("block %s is not owned by this arena", index))
	}
	if index.status.KnownFlags(StatusDeleted) {
		panic(errors.Errorf("block %s was already retired", index))
	}
	index.status |= StatusDeleted
	a.live--
	a.Release(index)
}

// Release recycles the slot of a retired index whose reference count dropped
// to zero. It does nothing for indices that are still referenced or alive.
func (a *Arena) Release(index *BlockIndex) {
	if !index.status.KnownFlags(StatusDeleted) || index.refCount > 0 {
		return
	}
	if a.Resolve(index.handle) != index {
		return
	}
	slot := &a.slots[index.handle.Slot]
	slot.index = nil
	slot.generation++
	a.freeSlots = append(a.freeSlots, index.handle.Slot)
}

// Len returns the number of indices that are not retired.
func (a *Arena) Len() int {
	return a.live
}
