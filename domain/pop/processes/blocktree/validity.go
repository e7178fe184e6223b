package blocktree

import (
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/pkg/errors"
)

// InvalidateSubtree marks index invalid for reason and every descendant as
// having an invalid ancestor. If index is active, the active chain is first
// rolled back to its parent. Invalidating a block for a reason it already has
// is a no-op.
func (t *Tree) InvalidateSubtree(index *model.BlockIndex, reason model.BlockStatus, shouldDetermineBestChain bool) {
	if !reason.IsValidityReason() {
		panic(errors.Errorf("%s: %s is not an invalidity reason", t.name, reason))
	}
	if index.HasFlags(reason) {
		return
	}
	if index.IsBootstrap() {
		panic(errors.Errorf("%s: the bootstrap block %s can't be invalidated", t.name, index))
	}

	parent := index.Parent()
	isOnActiveChain := index.IsActive()
	if isOnActiveChain {
		t.requireStateMachine().Unapply(t.bestChain.Tip(), parent)
	}

	log.Debugf("%s: invalidating %s for %s", t.name, index, reason)
	wasValid := index.IsValid()
	index.SetFlags(reason)
	t.notifyValidityChanged(index)
	changed := []*model.BlockIndex{index}

	if wasValid {
		queue := index.Children()
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			if current.HasFlags(model.StatusFailedChild) {
				continue
			}
			currentWasValid := current.IsValid()
			current.SetFlags(model.StatusFailedChild)
			t.notifyValidityChanged(current)
			changed = append(changed, current)
			if currentWasValid {
				queue = append(queue, current.Children()...)
			}
		}
	}

	for _, block := range changed {
		t.updateTip(block)
	}
	t.updateTip(parent)

	if isOnActiveChain && shouldDetermineBestChain {
		t.DetermineBestChain()
	}
}

// RevalidateSubtree clears reason from index. If index becomes valid, its
// descendants lose the invalid ancestor flag for as long as they become valid
// themselves. Revalidating a reason that is not set is a no-op.
func (t *Tree) RevalidateSubtree(index *model.BlockIndex, reason model.BlockStatus, shouldDetermineBestChain bool) {
	if !reason.IsValidityReason() {
		panic(errors.Errorf("%s: %s is not an invalidity reason", t.name, reason))
	}
	if !index.HasFlags(reason) {
		return
	}

	log.Debugf("%s: revalidating %s for %s", t.name, index, reason)
	index.UnsetFlags(reason)
	t.notifyValidityChanged(index)
	changed := []*model.BlockIndex{index}

	if index.IsValid() {
		queue := index.Children()
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			if !current.HasFlags(model.StatusFailedChild) {
				continue
			}
			current.UnsetFlags(model.StatusFailedChild)
			t.notifyValidityChanged(current)
			changed = append(changed, current)
			if current.IsValid() {
				queue = append(queue, current.Children()...)
			}
		}
	}

	for _, block := range changed {
		t.updateTip(block)
	}
	t.updateTip(index.Parent())

	if shouldDetermineBestChain {
		t.DetermineBestChain()
	}
}
