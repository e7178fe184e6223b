package commands

import (
	"testing"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/ruleerrors"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/utils/popdata"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/utils/testutils"
	"github.com/pkg/errors"
)

func TestGroupExecutesAllOrNothing(t *testing.T) {
	vbkTree := newTestTree(t, "vbk", 0)
	btcTree := newTestTree(t, "btc", 1000)
	chain := extendTree(t, vbkTree, 5, 1)

	btcHeaders := testutils.ChainHeaders(btcTree.Root().Header(), 2, 1001)
	endorsement := popdata.NewEndorsement(chain[2].Hash(), 2, chain[4].Hash(), &externalapi.DomainHash{0xee})
	group := NewGroup(&externalapi.DomainHash{1}, []model.Command{
		NewAddBlock(btcTree, btcHeaders[0]),
		NewAddBlock(btcTree, btcHeaders[1]),
		NewAddEndorsement(vbkTree, btcTree, endorsement, testSettlementInterval),
	})

	err := group.Execute()
	if !errors.Is(err, ruleerrors.ErrBlockOfProofNotFound) {
		t.Fatalf("TestGroupExecutesAllOrNothing: expected ErrBlockOfProofNotFound, got %v", err)
	}
	invalidCommand := ruleerrors.ErrInvalidCommand{}
	if !errors.As(err, &invalidCommand) || !invalidCommand.GroupID.Equal(group.ID()) {
		t.Fatalf("TestGroupExecutesAllOrNothing: expected ErrInvalidCommand of the group, got %v", err)
	}
	if reason, _ := ruleerrors.ReasonOf(err); reason != "ErrBlockOfProofNotFound" {
		t.Fatalf("TestGroupExecutesAllOrNothing: unexpected reason %s", reason)
	}
	for _, header := range btcHeaders {
		if btcTree.GetBlockIndexByHash(header.Hash()) != nil {
			t.Fatalf("TestGroupExecutesAllOrNothing: block %s added by the failed group is still there", header.Hash())
		}
	}
	expectPanic(t, "TestGroupExecutesAllOrNothing", group.Unexecute)
}

func TestVTBGroup(t *testing.T) {
	vbkTree := newTestTree(t, "vbk", 0)
	btcTree := newTestTree(t, "btc", 1000)
	chain := extendTree(t, vbkTree, 5, 1)

	btcHeaders := testutils.ChainHeaders(btcTree.Root().Header(), 2, 1001)
	endorsement := popdata.NewEndorsement(chain[2].Hash(), 2, chain[4].Hash(), btcHeaders[1].Hash())
	vtb := popdata.NewVTB(endorsement, btcHeaders)
	group := NewVTBGroup(btcTree, vbkTree, vtb, testSettlementInterval)

	err := group.Execute()
	if err != nil {
		t.Fatalf("TestVTBGroup: Execute: %+v", err)
	}
	proof := btcTree.GetBlockIndexByHash(btcHeaders[1].Hash())
	if proof == nil || !proof.IsActive() || len(proof.BlockOfProofEndorsements()) != 1 {
		t.Fatalf("TestVTBGroup: block of proof was not added to the BTC tree")
	}
	payloadIDs := chain[4].PayloadIDs()
	if len(payloadIDs) != 1 || !payloadIDs[0].Equal(&vtb.ID) {
		t.Fatalf("TestVTBGroup: VTB was not registered in its containing block: %v", payloadIDs)
	}
	if len(chain[2].EndorsedBy()) != 1 {
		t.Fatalf("TestVTBGroup: endorsement was not attached to the endorsed block")
	}

	group.Unexecute()
	for _, header := range btcHeaders {
		if btcTree.GetBlockIndexByHash(header.Hash()) != nil {
			t.Fatalf("TestVTBGroup: block %s is still there after Unexecute", header.Hash())
		}
	}
	if len(chain[4].PayloadIDs()) != 0 || len(chain[2].EndorsedBy()) != 0 {
		t.Fatalf("TestVTBGroup: Unexecute left the VTB behind")
	}
}

func TestATVGroup(t *testing.T) {
	altTree := newTestTree(t, "alt", 0)
	vbkTree := newTestTree(t, "vbk", 1000)
	chain := extendTree(t, altTree, 5, 1)

	vbkHeaders := testutils.ChainHeaders(vbkTree.Root().Header(), 3, 1001)
	endorsement := popdata.NewEndorsement(chain[3].Hash(), 3, chain[5].Hash(), vbkHeaders[2].Hash())
	atv := popdata.NewATV(endorsement, vbkHeaders)
	group := NewATVGroup(vbkTree, altTree, atv, testSettlementInterval)
	if group.Len() != 4 {
		t.Fatalf("TestATVGroup: expected 4 commands, got %d", group.Len())
	}

	err := group.Execute()
	if err != nil {
		t.Fatalf("TestATVGroup: Execute: %+v", err)
	}
	if vbkTree.BestChain().Tip().Height() != 3 {
		t.Fatalf("TestATVGroup: expected the VBK context to become active, got %s", vbkTree.BestChain().Tip())
	}
	if _, ok := chain[5].ContainingEndorsement(&endorsement.ID); !ok {
		t.Fatalf("TestATVGroup: endorsement was not attached to the containing block")
	}

	group.Unexecute()
	if vbkTree.BestChain().Tip() != vbkTree.Root() {
		t.Fatalf("TestATVGroup: expected the VBK root to be active again, got %s", vbkTree.BestChain().Tip())
	}
}
