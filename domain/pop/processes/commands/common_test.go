package commands

import (
	"testing"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/processes/blocktree"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/processes/forkresolution"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/processes/statemachine"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/utils/testutils"
)

func newTestTree(t *testing.T, name string, nonce uint64) *blocktree.Tree {
	tree := blocktree.New(name, false, nil)
	tree.SetStateMachine(statemachine.New(tree, nil))
	tree.SetForkChoiceStrategy(forkresolution.ChainWorkStrategy{})
	_, err := tree.Bootstrap(testutils.NewGenesisHeader(nonce), 0)
	if err != nil {
		t.Fatalf("Bootstrap: %+v", err)
	}
	return tree
}

// extendTree accepts length blocks on top of the active tip of tree and
// returns the whole active chain, root included.
func extendTree(t *testing.T, tree *blocktree.Tree, length int, nonce uint64) []*model.BlockIndex {
	for _, header := range testutils.ChainHeaders(tree.BestChain().Tip().Header(), length, nonce) {
		_, err := tree.AcceptBlockHeader(header)
		if err != nil {
			t.Fatalf("AcceptBlockHeader: %+v", err)
		}
	}
	return tree.BestChain().Blocks()
}

func expectPanic(t *testing.T, testName string, f func()) {
	defer func() {
		if recover() == nil {
			t.Fatalf("%s: expected a panic", testName)
		}
	}()
	f()
}
