package blocktree

import (
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/pkg/errors"
)

// RemoveSubtree removes index and all of its descendants. If index is active,
// the active chain is first rolled back to its parent. Removing the bootstrap
// block is a contract violation.
func (t *Tree) RemoveSubtree(index *model.BlockIndex) {
	if index.IsBootstrap() {
		panic(errors.Errorf("%s: the bootstrap block %s can't be removed", t.name, index))
	}
	if index.IsDeleted() {
		panic(errors.Errorf("%s: block %s was already removed", t.name, index))
	}

	parent := index.Parent()
	isOnActiveChain := index.IsActive()
	if isOnActiveChain {
		t.requireStateMachine().Unapply(t.bestChain.Tip(), parent)
	}

	log.Debugf("%s: removing subtree %s", t.name, index)
	parent.RemoveChild(index)
	t.deleteSubtree(index)
	t.updateTip(parent)

	if isOnActiveChain {
		t.DetermineBestChain()
	}
}

// RemoveLeaf removes a block that has no children.
func (t *Tree) RemoveLeaf(index *model.BlockIndex) {
	if index.HasChildren() {
		panic(errors.Errorf("%s: block %s is not a leaf", t.name, index))
	}
	t.RemoveSubtree(index)
}

// deleteSubtree retires index and its descendants, deepest first.
func (t *Tree) deleteSubtree(index *model.BlockIndex) {
	for _, child := range index.Children() {
		t.deleteSubtree(child)
		index.RemoveChild(child)
	}

	delete(t.blocks, index.ShortHash())
	delete(t.tips, index)
	delete(t.pendingConnection, index)
	index.UnsetFlags(model.StatusActive)
	t.arena.Retire(index)
}
