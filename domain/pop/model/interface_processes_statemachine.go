package model

// StateMachine applies and unapplies the payloads of blocks along the active
// chain of a tree. Every operation either fully succeeds or leaves the tree as
// it was.
type StateMachine interface {
	ApplyBlock(index *BlockIndex) error
	UnapplyBlock(index *BlockIndex)
	Apply(from *BlockIndex, to *BlockIndex) error
	Unapply(from *BlockIndex, to *BlockIndex)
	SetState(from *BlockIndex, to *BlockIndex) error
}
