package blocktree

import (
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/ruleerrors"
)

// DetermineBestChain offers every tip to the fork choice strategy. The active
// chain switches only to strictly better tips.
func (t *Tree) DetermineBestChain() {
	if t.forkChoice == nil || t.root == nil {
		return
	}
	for _, tip := range t.Tips() {
		candidate := highestConnectedAncestor(tip)
		if candidate == nil {
			continue
		}
		t.offerCandidate(candidate)
	}
}

// highestConnectedAncestor returns index or its highest connected ancestor.
func highestConnectedAncestor(index *model.BlockIndex) *model.BlockIndex {
	current := index
	for current != nil && !current.IsConnected() {
		current = current.Parent()
	}
	return current
}

// offerCandidate switches the active chain to candidate if the fork choice
// strategy prefers it over the current tip.
func (t *Tree) offerCandidate(candidate *model.BlockIndex) {
	if t.forkChoice == nil {
		return
	}
	current := t.bestChain.Tip()
	if candidate == current || candidate.IsDeleted() || !candidate.IsValid() || !candidate.IsConnected() {
		return
	}
	if t.bestChain.Contains(candidate) {
		return
	}
	if !t.forkChoice.ShouldSwitch(current, candidate) {
		return
	}

	err := t.requireStateMachine().SetState(current, candidate)
	if err != nil {
		if !ruleerrors.IsRuleError(err) {
			panic(err)
		}
		log.Debugf("%s: could not switch from %s to %s: %s", t.name, current, candidate, err)
		return
	}
	log.Debugf("%s: switched active chain from %s to %s", t.name, current, candidate)
}
