package commands

import (
	"fmt"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/ruleerrors"
	"github.com/pkg/errors"
)

type registerPayload struct {
	tree           model.BlockTree
	containingHash externalapi.DomainHash
	payloadID      externalapi.DomainHash
	containing     model.Handle
	executed       bool
}

// newRegisterPayload returns a command registering payloadID against the
// block of tree containing it.
func newRegisterPayload(tree model.BlockTree, containingHash *externalapi.DomainHash,
	payloadID *externalapi.DomainHash) model.Command {

	return &registerPayload{tree: tree, containingHash: *containingHash, payloadID: *payloadID}
}

func (c *registerPayload) Execute() error {
	if c.executed {
		panic(errors.Errorf("%s was already executed", c))
	}
	containing := c.tree.GetBlockIndexByHash(&c.containingHash)
	if containing == nil {
		return errors.Wrapf(ruleerrors.ErrContainingBlockNotFound, "%s: containing block %s of payload %s is unknown",
			c.tree.Name(), c.containingHash, c.payloadID)
	}
	containing.AddPayloadID(&c.payloadID)
	c.containing = containing.Handle()
	c.executed = true
	return nil
}

func (c *registerPayload) Unexecute() {
	if !c.executed {
		panic(errors.Errorf("%s was never executed", c))
	}
	if containing := c.tree.GetBlockIndexByHandle(c.containing); containing != nil {
		if !containing.RemoveLastPayloadID(&c.payloadID) {
			panic(errors.Errorf("%s: payload is not registered in %s", c, containing))
		}
	}
	c.executed = false
}

func (c *registerPayload) String() string {
	return fmt.Sprintf("RegisterPayload{%s %s}", c.tree.Name(), c.payloadID.Short())
}

type addProof struct {
	payloadID externalapi.DomainHash
	inner     []model.Command
	executed  bool
}

// NewAddVTB returns a command applying a VTB: its BTC context is added to
// btcTree, its endorsement is attached in vbkTree with the proof in btcTree,
// and the VTB id is registered against its containing VBK block.
func NewAddVTB(btcTree model.BlockTree, vbkTree model.BlockTree, vtb *externalapi.VTB,
	settlementInterval int32) model.Command {

	inner := make([]model.Command, 0, len(vtb.BTCContext)+2)
	for _, header := range vtb.BTCContext {
		inner = append(inner, NewAddBlock(btcTree, header))
	}
	inner = append(inner,
		NewAddEndorsement(vbkTree, btcTree, vtb.Endorsement, settlementInterval),
		newRegisterPayload(vbkTree, &vtb.Endorsement.ContainingHash, &vtb.ID))
	return &addProof{payloadID: vtb.ID, inner: inner}
}

func (c *addProof) Execute() error {
	if c.executed {
		panic(errors.Errorf("%s was already executed", c))
	}
	_, err := executeAll(c.inner)
	if err != nil {
		return err
	}
	c.executed = true
	return nil
}

func (c *addProof) Unexecute() {
	if !c.executed {
		panic(errors.Errorf("%s was never executed", c))
	}
	unexecuteAll(c.inner)
	c.executed = false
}

func (c *addProof) String() string {
	return fmt.Sprintf("AddProof{%s}", c.payloadID.Short())
}
