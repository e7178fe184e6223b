package forkresolution

import (
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
)

// AttachedEndorsements is an EndorsementSource reading the endorsements
// attached to blocks of tree by executed commands.
type AttachedEndorsements struct {
	tree model.BlockTree
}

// NewAttachedEndorsements returns an AttachedEndorsements source for tree.
func NewAttachedEndorsements(tree model.BlockTree) *AttachedEndorsements {
	return &AttachedEndorsements{tree: tree}
}

// EndorsementsOf returns the endorsements of index whose containing block is
// on the chain ending at chainTip.
func (s *AttachedEndorsements) EndorsementsOf(chainTip *model.BlockIndex,
	index *model.BlockIndex) []*externalapi.Endorsement {

	endorsedBy := index.EndorsedBy()
	endorsements := make([]*externalapi.Endorsement, 0, len(endorsedBy))
	for _, endorsement := range endorsedBy {
		containing := s.tree.GetBlockIndexByHash(&endorsement.ContainingHash)
		if IsOnChain(chainTip, containing) {
			endorsements = append(endorsements, endorsement)
		}
	}
	return endorsements
}

// IsOnChain returns true if index is chainTip or one of its ancestors.
func IsOnChain(chainTip *model.BlockIndex, index *model.BlockIndex) bool {
	if index == nil || index.Height() > chainTip.Height() {
		return false
	}
	return chainTip.Ancestor(index.Height()) == index
}
