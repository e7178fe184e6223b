package model

import "github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"

// Command is a reversible mutation of one or more block trees. Unexecute may
// only be called after a successful Execute.
type Command interface {
	Execute() error
	Unexecute()
	String() string
}

// CommandGroup is the ordered set of commands produced by a single payload.
// It executes atomically.
type CommandGroup interface {
	ID() *externalapi.DomainHash
	Execute() error
	Unexecute()
	Len() int
}

// PayloadsProvider builds the command groups of a block, in payload order.
type PayloadsProvider interface {
	CommandGroups(index *BlockIndex) ([]CommandGroup, error)
}

// EndorsementSource returns the endorsements of index as seen from the chain
// ending at chainTip.
type EndorsementSource interface {
	EndorsementsOf(chainTip *BlockIndex, index *BlockIndex) []*externalapi.Endorsement
}

// ProofLocator finds the height, in the proving tree, of the block of proof of
// an endorsement as seen from the chain ending at chainTip. ok is false if the
// block of proof is unknown to that chain or invalid.
type ProofLocator interface {
	BlockOfProofHeight(chainTip *BlockIndex, endorsement *externalapi.Endorsement) (height int32, ok bool)
}
