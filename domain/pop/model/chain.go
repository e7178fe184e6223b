package model

import "github.com/pkg/errors"

// Chain is a height indexed view of a chain of blocks, from a first block up
// to a tip.
type Chain struct {
	startHeight int32
	blocks      []*BlockIndex
}

// NewChain returns the chain starting at startHeight and ending at tip.
func NewChain(startHeight int32, tip *BlockIndex) *Chain {
	chain := &Chain{startHeight: startHeight}
	chain.SetTip(tip)
	return chain
}

// StartHeight returns the height of the first block of the chain.
func (c *Chain) StartHeight() int32 {
	return c.startHeight
}

// Tip returns the last block of the chain, or nil if the chain is empty.
func (c *Chain) Tip() *BlockIndex {
	if len(c.blocks) == 0 {
		return nil
	}
	return c.blocks[len(c.blocks)-1]
}

// First returns the first block of the chain, or nil if the chain is empty.
func (c *Chain) First() *BlockIndex {
	if len(c.blocks) == 0 {
		return nil
	}
	return c.blocks[0]
}

// Height returns the height of the tip, or startHeight-1 if the chain is empty.
func (c *Chain) Height() int32 {
	return c.startHeight + int32(len(c.blocks)) - 1
}

// Len returns the number of blocks in the chain.
func (c *Chain) Len() int {
	return len(c.blocks)
}

// Get returns the block of the chain at the given height, or nil if the
// height is out of the chain's range.
func (c *Chain) Get(height int32) *BlockIndex {
	if height < c.startHeight || height > c.Height() {
		return nil
	}
	return c.blocks[height-c.startHeight]
}

// Contains returns true if index is part of the chain.
func (c *Chain) Contains(index *BlockIndex) bool {
	return index != nil && c.Get(index.Height()) == index
}

// Next returns the block following index in the chain, or nil if index is
// the tip or is not part of the chain.
func (c *Chain) Next(index *BlockIndex) *BlockIndex {
	if !c.Contains(index) {
		return nil
	}
	return c.Get(index.Height() + 1)
}

// SetTip makes index the tip of the chain, reusing the part of the chain that
// is shared with index. Passing nil empties the chain.
func (c *Chain) SetTip(index *BlockIndex) {
	if index == nil {
		c.blocks = nil
		return
	}
	if index.Height() < c.startHeight {
		panic(errors.Errorf("block %s is below the chain start height %d", index, c.startHeight))
	}

	oldLength := len(c.blocks)
	newLength := int(index.Height()-c.startHeight) + 1
	if newLength > cap(c.blocks) {
		grown := make([]*BlockIndex, oldLength, newLength)
		copy(grown, c.blocks)
		c.blocks = grown
	}
	c.blocks = c.blocks[:newLength]
	for i := oldLength; i < newLength; i++ {
		c.blocks[i] = nil
	}

	for current := index; current != nil && current.Height() >= c.startHeight; current = current.Parent() {
		position := current.Height() - c.startHeight
		if c.blocks[position] == current {
			break
		}
		c.blocks[position] = current
	}
}

// FindFork returns the highest block of the chain that is also an ancestor of
// index (or index itself), or nil if the two do not intersect.
func (c *Chain) FindFork(index *BlockIndex) *BlockIndex {
	if index == nil || len(c.blocks) == 0 {
		return nil
	}
	current := index
	if current.Height() > c.Height() {
		current = current.Ancestor(c.Height())
	}
	for current != nil && !c.Contains(current) {
		current = current.Parent()
	}
	return current
}

// Blocks returns the blocks of the chain from first to tip.
func (c *Chain) Blocks() []*BlockIndex {
	blocks := make([]*BlockIndex, len(c.blocks))
	copy(blocks, c.blocks)
	return blocks
}
