package blocktree

import (
	"reflect"
	"testing"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/processes/forkresolution"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/processes/statemachine"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/utils/testutils"
	"github.com/davecgh/go-spew/spew"
)

// newTestTree returns a bootstrapped tree following the chain with the most
// work.
func newTestTree(t *testing.T, hasPayloads bool) (*Tree, *model.BlockIndex) {
	tree := New("test", hasPayloads, nil)
	tree.SetStateMachine(statemachineForTest(tree))
	tree.SetForkChoiceStrategy(forkresolution.ChainWorkStrategy{})
	root, err := tree.Bootstrap(testutils.NewGenesisHeader(0), 0)
	if err != nil {
		t.Fatalf("Bootstrap: %+v", err)
	}
	return tree, root
}

// acceptChain accepts length headers on top of prev.
func acceptChain(t *testing.T, tree *Tree, prev *model.BlockIndex, length int, nonce uint64) []*model.BlockIndex {
	headers := testutils.ChainHeaders(prev.Header(), length, nonce)
	blocks := make([]*model.BlockIndex, length)
	for i, header := range headers {
		index, err := tree.AcceptBlockHeader(header)
		if err != nil {
			t.Fatalf("AcceptBlockHeader: %+v", err)
		}
		blocks[i] = index
	}
	return blocks
}

func tipHashes(tips []*model.BlockIndex) []externalapi.DomainHash {
	hashes := make([]externalapi.DomainHash, len(tips))
	for i, tip := range tips {
		hashes[i] = *tip.Hash()
	}
	return hashes
}

func expectPanic(t *testing.T, testName string, f func()) {
	defer func() {
		if recover() == nil {
			t.Fatalf("%s: expected a panic", testName)
		}
	}()
	f()
}

func statemachineForTest(tree *Tree) model.StateMachine {
	return statemachine.New(tree, nil)
}

// checkTips fails the test if the tips of tree are not exactly its valid
// blocks with no valid child, or if the active tip is not one of them.
func checkTips(t *testing.T, testName string, tree *Tree) {
	var expected []*model.BlockIndex
	for _, block := range tree.Blocks() {
		if block.IsValid() && !block.HasValidChild() {
			expected = append(expected, block)
		}
	}
	sortBlocks(expected)

	tips := tree.Tips()
	if !reflect.DeepEqual(tipHashes(tips), tipHashes(expected)) {
		t.Fatalf("%s: expected tips %s, got %s", testName, spew.Sdump(tipHashes(expected)), spew.Sdump(tipHashes(tips)))
	}
	for _, tip := range tips {
		if tip == tree.BestChain().Tip() {
			return
		}
	}
	t.Fatalf("%s: active tip %s is not a tip", testName, tree.BestChain().Tip())
}
