package model

// ForkChoiceStrategy decides whether a tree should switch its active chain
// from current to candidate.
type ForkChoiceStrategy interface {
	ShouldSwitch(current *BlockIndex, candidate *BlockIndex) bool
}
