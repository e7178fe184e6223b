package statemachine

import (
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/ruleerrors"
	"github.com/VeriBlock/alt-integration-cpp-sub004/infrastructure/logger"
	"github.com/pkg/errors"
)

// stateMachine moves the active chain of a tree by executing and unexecuting
// the command groups of its blocks.
type stateMachine struct {
	tree             model.BlockTree
	payloadsProvider model.PayloadsProvider

	// appliedGroups holds the executed command groups of every active block,
	// so that exactly those groups are unexecuted later.
	appliedGroups map[model.Handle][]model.CommandGroup
}

// New instantiates a new StateMachine for tree. A nil payloadsProvider means
// blocks of the tree carry no payloads.
func New(tree model.BlockTree, payloadsProvider model.PayloadsProvider) model.StateMachine {
	return &stateMachine{
		tree:             tree,
		payloadsProvider: payloadsProvider,
		appliedGroups:    make(map[model.Handle][]model.CommandGroup),
	}
}

// ApplyBlock applies index on top of its parent, the active tip. If one of its command
// groups fails, the groups executed so far are unexecuted and the subtree of
// index is invalidated.
func (sm *stateMachine) ApplyBlock(index *model.BlockIndex) error {
	parent := index.Parent()
	if parent == nil || !parent.IsActive() {
		panic(errors.Errorf("%s: can't apply %s, its parent is not active", sm.tree.Name(), index))
	}
	if index.IsActive() {
		panic(errors.Errorf("%s: block %s is already active", sm.tree.Name(), index))
	}
	if tip := sm.tree.BestChain().Tip(); parent != tip {
		panic(errors.Errorf("%s: can't apply %s, its parent is not the active tip %s", sm.tree.Name(), index, tip))
	}
	if !index.IsValid() {
		return errors.Wrapf(ruleerrors.ErrInvalidBlock, "%s: block %s is invalid (%s)",
			sm.tree.Name(), index, index.Status())
	}
	if !index.IsConnected() {
		return errors.Wrapf(ruleerrors.ErrBlockNotConnected, "%s: block %s is not connected",
			sm.tree.Name(), index)
	}

	groups, err := sm.commandGroups(index)
	if err != nil {
		return err
	}
	for i, group := range groups {
		err := group.Execute()
		if err != nil {
			for j := i - 1; j >= 0; j-- {
				groups[j].Unexecute()
			}
			if ruleerrors.IsRuleError(err) {
				log.Debugf("%s: payloads of %s are invalid: %s", sm.tree.Name(), index, err)
				sm.tree.InvalidateSubtree(index, model.StatusFailedPop, false)
			}
			return err
		}
	}

	if len(groups) > 0 {
		sm.appliedGroups[index.Handle()] = groups
	}
	index.SetFlags(model.StatusActive)
	if parent.HasFlags(model.StatusCanBeApplied) {
		index.UnsetFlags(model.StatusCanBeAppliedMaybeWithOtherChain)
		index.SetFlags(model.StatusCanBeApplied)
	} else {
		index.SetFlags(model.StatusCanBeAppliedMaybeWithOtherChain)
	}
	sm.tree.BestChain().SetTip(index)
	log.Tracef("%s: applied %s", sm.tree.Name(), index)
	return nil
}

// UnapplyBlock unexecutes the command groups of the active tip index in
// reverse order.
func (sm *stateMachine) UnapplyBlock(index *model.BlockIndex) {
	if !index.IsActive() {
		panic(errors.Errorf("%s: can't unapply %s, it is not active", sm.tree.Name(), index))
	}
	if index.Parent() == nil {
		panic(errors.Errorf("%s: the root %s can't be unapplied", sm.tree.Name(), index))
	}
	for _, child := range index.Children() {
		if child.IsActive() {
			panic(errors.Errorf("%s: can't unapply %s, its child %s is active", sm.tree.Name(), index, child))
		}
	}

	groups, ok := sm.appliedGroups[index.Handle()]
	if !ok && index.HasFlags(model.StatusHasPayloads) && sm.payloadsProvider != nil {
		panic(errors.Errorf("%s: active block %s has no applied command groups", sm.tree.Name(), index))
	}
	for i := len(groups) - 1; i >= 0; i-- {
		groups[i].Unexecute()
	}
	delete(sm.appliedGroups, index.Handle())

	index.UnsetFlags(model.StatusActive)
	sm.tree.BestChain().SetTip(index.Parent())
	log.Tracef("%s: unapplied %s", sm.tree.Name(), index)
}

// Apply applies every block in (from, to]. On failure every block applied by
// this call is unapplied again.
func (sm *stateMachine) Apply(from *model.BlockIndex, to *model.BlockIndex) error {
	path := sm.path(from, to)
	for i, index := range path {
		err := sm.ApplyBlock(index)
		if err != nil {
			for j := i - 1; j >= 0; j-- {
				sm.UnapplyBlock(path[j])
			}
			return err
		}
	}
	return nil
}

// Unapply unapplies every block in [from, to), from the highest down.
func (sm *stateMachine) Unapply(from *model.BlockIndex, to *model.BlockIndex) {
	path := sm.path(to, from)
	for i := len(path) - 1; i >= 0; i-- {
		sm.UnapplyBlock(path[i])
	}
}

// SetState moves the active chain from from to to. It either fully succeeds
// or leaves the active chain at from.
func (sm *stateMachine) SetState(from *model.BlockIndex, to *model.BlockIndex) error {
	if from == to {
		return nil
	}
	onEnd := logger.LogAndMeasureExecutionTime(log, sm.tree.Name()+" SetState")
	defer onEnd()

	if sm.tree.BestChain().Tip() != from {
		panic(errors.Errorf("%s: SetState must start at the active tip %s, not %s",
			sm.tree.Name(), sm.tree.BestChain().Tip(), from))
	}
	fork := sm.tree.BestChain().FindFork(to)
	if fork == nil {
		panic(errors.Errorf("%s: block %s does not share a fork point with the active chain", sm.tree.Name(), to))
	}

	sm.Unapply(from, fork)
	err := sm.Apply(fork, to)
	if err != nil {
		restoreErr := sm.Apply(fork, from)
		if restoreErr != nil {
			panic(errors.Wrapf(restoreErr, "%s: failed to restore the active chain at %s after %s",
				sm.tree.Name(), from, err))
		}
		return err
	}
	return nil
}

func (sm *stateMachine) commandGroups(index *model.BlockIndex) ([]model.CommandGroup, error) {
	if sm.payloadsProvider == nil || !index.HasFlags(model.StatusHasPayloads) {
		return nil, nil
	}
	return sm.payloadsProvider.CommandGroups(index)
}

// path returns the blocks of (ancestor, descendant] ordered by height.
func (sm *stateMachine) path(ancestor *model.BlockIndex, descendant *model.BlockIndex) []*model.BlockIndex {
	if descendant.Height() < ancestor.Height() {
		panic(errors.Errorf("%s: %s is not an ancestor of %s", sm.tree.Name(), ancestor, descendant))
	}
	path := make([]*model.BlockIndex, descendant.Height()-ancestor.Height())
	current := descendant
	for i := len(path) - 1; i >= 0; i-- {
		path[i] = current
		current = current.Parent()
	}
	if current != ancestor {
		panic(errors.Errorf("%s: %s is not an ancestor of %s", sm.tree.Name(), ancestor, descendant))
	}
	return path
}
