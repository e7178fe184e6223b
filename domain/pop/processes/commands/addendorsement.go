package commands

import (
	"fmt"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/ruleerrors"
	"github.com/pkg/errors"
)

type addEndorsement struct {
	endorsedTree       model.BlockTree
	provingTree        model.BlockTree
	endorsement        *externalapi.Endorsement
	settlementInterval int32

	executed     bool
	endorsed     model.Handle
	containing   model.Handle
	blockOfProof model.Handle
}

// NewAddEndorsement returns a command attaching endorsement to the blocks of
// endorsedTree it endorses and is contained in, and to its block of proof in
// provingTree.
func NewAddEndorsement(endorsedTree model.BlockTree, provingTree model.BlockTree,
	endorsement *externalapi.Endorsement, settlementInterval int32) model.Command {

	return &addEndorsement{
		endorsedTree:       endorsedTree,
		provingTree:        provingTree,
		endorsement:        endorsement,
		settlementInterval: settlementInterval,
	}
}

func (c *addEndorsement) Execute() error {
	if c.executed {
		panic(errors.Errorf("%s was already executed", c))
	}
	e := c.endorsement

	containing := c.endorsedTree.GetBlockIndexByHash(&e.ContainingHash)
	if containing == nil || !containing.IsConnected() {
		return errors.Wrapf(ruleerrors.ErrContainingBlockNotFound, "%s: containing block %s is unknown or not connected",
			c.endorsedTree.Name(), e.ContainingHash)
	}

	if containing.Height()-e.EndorsedHeight > c.settlementInterval {
		return errors.Wrapf(ruleerrors.ErrExpiredEndorsement,
			"%s: endorsement %s is contained at height %d, more than %d blocks above the endorsed height %d",
			c.endorsedTree.Name(), e.ID, containing.Height(), c.settlementInterval, e.EndorsedHeight)
	}

	var endorsed *model.BlockIndex
	if e.EndorsedHeight < containing.Height() {
		endorsed = containing.Ancestor(e.EndorsedHeight)
	}
	if endorsed == nil || !endorsed.Hash().Equal(&e.EndorsedHash) {
		return errors.Wrapf(ruleerrors.ErrEndorsedBlockOnWrongFork,
			"%s: the ancestor of %s at height %d is not the endorsed block %s",
			c.endorsedTree.Name(), containing, e.EndorsedHeight, e.EndorsedHash)
	}

	for current := containing; current != nil && current.Height() >= endorsed.Height(); current = current.Parent() {
		if _, ok := current.ContainingEndorsement(&e.ID); ok {
			return errors.Wrapf(ruleerrors.ErrDuplicateEndorsement,
				"%s: endorsement %s is already contained in %s", c.endorsedTree.Name(), e.ID, current)
		}
	}

	blockOfProof := c.provingTree.GetBlockIndexByHash(&e.BlockOfProof)
	if blockOfProof == nil || !blockOfProof.IsValid() {
		return errors.Wrapf(ruleerrors.ErrBlockOfProofNotFound, "%s: block of proof %s of endorsement %s is unknown or invalid",
			c.provingTree.Name(), e.BlockOfProof, e.ID)
	}

	endorsed.AddEndorsedBy(e)
	containing.AddContainingEndorsement(e)
	blockOfProof.AddBlockOfProofEndorsement(e)

	c.endorsed = endorsed.Handle()
	c.containing = containing.Handle()
	c.blockOfProof = blockOfProof.Handle()
	c.executed = true
	return nil
}

func (c *addEndorsement) Unexecute() {
	if !c.executed {
		panic(errors.Errorf("%s was never executed", c))
	}
	id := &c.endorsement.ID

	// A block that was removed and recycled took its endorsements with it.
	if endorsed := c.endorsedTree.GetBlockIndexByHandle(c.endorsed); endorsed != nil {
		if !endorsed.RemoveLastEndorsedBy(id) {
			panic(errors.Errorf("%s: endorsement is missing from the endorsed block %s", c, endorsed))
		}
	}
	if containing := c.endorsedTree.GetBlockIndexByHandle(c.containing); containing != nil {
		if !containing.RemoveContainingEndorsement(id) {
			panic(errors.Errorf("%s: endorsement is missing from the containing block %s", c, containing))
		}
	}
	if blockOfProof := c.provingTree.GetBlockIndexByHandle(c.blockOfProof); blockOfProof != nil {
		if !blockOfProof.RemoveLastBlockOfProofEndorsement(id) {
			panic(errors.Errorf("%s: endorsement is missing from the block of proof %s", c, blockOfProof))
		}
	}
	c.executed = false
}

func (c *addEndorsement) String() string {
	return fmt.Sprintf("AddEndorsement{%s %s}", c.endorsedTree.Name(), c.endorsement.ID.Short())
}
