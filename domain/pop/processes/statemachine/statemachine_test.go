package statemachine_test

import (
	"reflect"
	"testing"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/processes/blocktree"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/processes/commands"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/processes/forkresolution"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/processes/statemachine"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/ruleerrors"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/utils/testutils"
	"github.com/pkg/errors"
)

type journal struct {
	entries []string
}

type fakeCommand struct {
	name    string
	fail    bool
	journal *journal
}

func (c *fakeCommand) Execute() error {
	if c.fail {
		return errors.Wrapf(ruleerrors.ErrDuplicateEndorsement, "%s failed", c.name)
	}
	c.journal.entries = append(c.journal.entries, "+"+c.name)
	return nil
}

func (c *fakeCommand) Unexecute() {
	c.journal.entries = append(c.journal.entries, "-"+c.name)
}

func (c *fakeCommand) String() string {
	return c.name
}

// fakeProvider builds fresh command groups from the command names registered
// for every block. Names starting with '!' fail.
type fakeProvider struct {
	journal *journal
	groups  map[externalapi.DomainHash][][]string
}

func (p *fakeProvider) CommandGroups(index *model.BlockIndex) ([]model.CommandGroup, error) {
	var groups []model.CommandGroup
	for i, names := range p.groups[*index.Hash()] {
		cmds := make([]model.Command, len(names))
		for j, name := range names {
			cmds[j] = &fakeCommand{name: name, fail: name[0] == '!', journal: p.journal}
		}
		id := externalapi.DomainHash{byte(i)}
		groups = append(groups, commands.NewGroup(&id, cmds))
	}
	return groups, nil
}

type testSetup struct {
	tree         *blocktree.Tree
	stateMachine model.StateMachine
	provider     *fakeProvider
	root         *model.BlockIndex
}

func newTestSetup(t *testing.T, forkChoice model.ForkChoiceStrategy) *testSetup {
	provider := &fakeProvider{journal: &journal{}, groups: make(map[externalapi.DomainHash][][]string)}
	tree := blocktree.New("test", true, nil)
	stateMachine := statemachine.New(tree, provider)
	tree.SetStateMachine(stateMachine)
	tree.SetForkChoiceStrategy(forkChoice)
	root, err := tree.Bootstrap(testutils.NewGenesisHeader(0), 0)
	if err != nil {
		t.Fatalf("Bootstrap: %+v", err)
	}
	return &testSetup{tree: tree, stateMachine: stateMachine, provider: provider, root: root}
}

// addBlock accepts a block on top of parent whose payloads produce one group
// per entry of groups.
func (s *testSetup) addBlock(t *testing.T, parent *model.BlockIndex, nonce uint64,
	groups ...[]string) *model.BlockIndex {

	header := testutils.NewHeader(parent.Hash(), nonce)
	s.provider.groups[*header.Hash()] = groups
	_, err := s.tree.AcceptBlockHeader(header)
	if err != nil {
		t.Fatalf("AcceptBlockHeader: %+v", err)
	}
	index, err := s.tree.AcceptPayloads(header.Hash(), len(groups) > 0)
	if err != nil {
		t.Fatalf("AcceptPayloads: %+v", err)
	}
	return index
}

func TestApplyBlockIsAtomic(t *testing.T) {
	s := newTestSetup(t, forkresolution.ChainWorkStrategy{})
	block := s.addBlock(t, s.root, 1, []string{"a", "!b", "c"})

	expected := []string{"+a", "-a"}
	if !reflect.DeepEqual(s.provider.journal.entries, expected) {
		t.Fatalf("TestApplyBlockIsAtomic: expected journal %v, got %v", expected, s.provider.journal.entries)
	}
	if !block.HasFlags(model.StatusFailedPop) {
		t.Fatalf("TestApplyBlockIsAtomic: failed block is not marked as FailedPop: %s", block.Status())
	}
	if s.tree.BestChain().Tip() != s.root {
		t.Fatalf("TestApplyBlockIsAtomic: expected the root to stay active, got %s", s.tree.BestChain().Tip())
	}
	for _, tip := range s.tree.Tips() {
		if tip == block {
			t.Fatalf("TestApplyBlockIsAtomic: failed block is still a tip")
		}
	}
}

func TestApplyBlockRollsBackEarlierGroups(t *testing.T) {
	s := newTestSetup(t, forkresolution.NoOpStrategy{})
	block := s.addBlock(t, s.root, 1, []string{"a"}, []string{"b1", "b2"}, []string{"!c"})

	err := s.stateMachine.ApplyBlock(block)
	if !errors.Is(err, ruleerrors.ErrDuplicateEndorsement) {
		t.Fatalf("TestApplyBlockRollsBackEarlierGroups: expected the reason of the failed command, got %v", err)
	}
	invalidCommand := ruleerrors.ErrInvalidCommand{}
	if !errors.As(err, &invalidCommand) || invalidCommand.Command != "!c" {
		t.Fatalf("TestApplyBlockRollsBackEarlierGroups: expected ErrInvalidCommand for !c, got %v", err)
	}

	expected := []string{"+a", "+b1", "+b2", "-b2", "-b1", "-a"}
	if !reflect.DeepEqual(s.provider.journal.entries, expected) {
		t.Fatalf("TestApplyBlockRollsBackEarlierGroups: expected journal %v, got %v",
			expected, s.provider.journal.entries)
	}
	if block.IsActive() || !block.HasFlags(model.StatusFailedPop) {
		t.Fatalf("TestApplyBlockRollsBackEarlierGroups: unexpected status %s", block.Status())
	}
}

func TestSetStateRoundTrip(t *testing.T) {
	s := newTestSetup(t, forkresolution.NoOpStrategy{})
	a1 := s.addBlock(t, s.root, 1, []string{"a1"})
	a2 := s.addBlock(t, a1, 2, []string{"a2"})
	a3 := s.addBlock(t, a2, 3)
	b1 := s.addBlock(t, s.root, 11, []string{"b1"})
	b2 := s.addBlock(t, b1, 12, []string{"b2"})

	err := s.stateMachine.SetState(s.root, a3)
	if err != nil {
		t.Fatalf("TestSetStateRoundTrip: SetState: %+v", err)
	}
	err = s.stateMachine.SetState(a3, b2)
	if err != nil {
		t.Fatalf("TestSetStateRoundTrip: SetState: %+v", err)
	}
	err = s.stateMachine.SetState(b2, a3)
	if err != nil {
		t.Fatalf("TestSetStateRoundTrip: SetState: %+v", err)
	}

	expected := []string{"+a1", "+a2", "-a2", "-a1", "+b1", "+b2", "-b2", "-b1", "+a1", "+a2"}
	if !reflect.DeepEqual(s.provider.journal.entries, expected) {
		t.Fatalf("TestSetStateRoundTrip: expected journal %v, got %v", expected, s.provider.journal.entries)
	}
	for _, block := range []*model.BlockIndex{s.root, a1, a2, a3} {
		if !block.IsActive() {
			t.Fatalf("TestSetStateRoundTrip: block %s is not active", block)
		}
	}
	for _, block := range []*model.BlockIndex{b1, b2} {
		if block.IsActive() {
			t.Fatalf("TestSetStateRoundTrip: block %s of the inactive fork is active", block)
		}
	}
	if !a3.HasFlags(model.StatusCanBeApplied) {
		t.Fatalf("TestSetStateRoundTrip: applied block is not marked as CanBeApplied: %s", a3.Status())
	}
}

func TestSetStateRestoresOnFailure(t *testing.T) {
	s := newTestSetup(t, forkresolution.NoOpStrategy{})
	a1 := s.addBlock(t, s.root, 1, []string{"a1"})
	a2 := s.addBlock(t, a1, 2, []string{"a2"})
	b1 := s.addBlock(t, s.root, 11, []string{"b1"})
	b2 := s.addBlock(t, b1, 12, []string{"!b2"})
	b3 := s.addBlock(t, b2, 13)

	err := s.stateMachine.SetState(s.root, a2)
	if err != nil {
		t.Fatalf("TestSetStateRestoresOnFailure: SetState: %+v", err)
	}
	err = s.stateMachine.SetState(a2, b3)
	if !ruleerrors.IsRuleError(err) {
		t.Fatalf("TestSetStateRestoresOnFailure: expected a rule error, got %v", err)
	}

	if s.tree.BestChain().Tip() != a2 {
		t.Fatalf("TestSetStateRestoresOnFailure: expected active tip %s, got %s", a2, s.tree.BestChain().Tip())
	}
	if b1.IsActive() || !b1.IsValid() {
		t.Fatalf("TestSetStateRestoresOnFailure: unexpected status of %s: %s", b1, b1.Status())
	}
	if !b2.HasFlags(model.StatusFailedPop) || !b3.HasFlags(model.StatusFailedChild) {
		t.Fatalf("TestSetStateRestoresOnFailure: failed fork is not invalidated: %s, %s", b2.Status(), b3.Status())
	}

	expected := []string{"+a1", "+a2", "-a2", "-a1", "+b1", "-b1", "+a1", "+a2"}
	if !reflect.DeepEqual(s.provider.journal.entries, expected) {
		t.Fatalf("TestSetStateRestoresOnFailure: expected journal %v, got %v",
			expected, s.provider.journal.entries)
	}
}

func TestUnapplyBlockContract(t *testing.T) {
	s := newTestSetup(t, forkresolution.NoOpStrategy{})
	a1 := s.addBlock(t, s.root, 1)
	a2 := s.addBlock(t, a1, 2)
	err := s.stateMachine.SetState(s.root, a2)
	if err != nil {
		t.Fatalf("TestUnapplyBlockContract: SetState: %+v", err)
	}

	tests := []struct {
		name  string
		block *model.BlockIndex
	}{
		{"active child", a1},
		{"root", s.root},
	}
	for _, test := range tests {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("TestUnapplyBlockContract: unapplying %s did not panic", test.name)
				}
			}()
			s.stateMachine.UnapplyBlock(test.block)
		}()
	}

	s.stateMachine.UnapplyBlock(a2)
	if s.tree.BestChain().Tip() != a1 {
		t.Fatalf("TestUnapplyBlockContract: expected active tip %s, got %s", a1, s.tree.BestChain().Tip())
	}
	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("TestUnapplyBlockContract: unapplying inactive %s did not panic", a2)
			}
		}()
		s.stateMachine.UnapplyBlock(a2)
	}()
}

func TestApplyBlockContract(t *testing.T) {
	s := newTestSetup(t, forkresolution.NoOpStrategy{})
	a1 := s.addBlock(t, s.root, 1)
	a2 := s.addBlock(t, a1, 2)
	b1 := s.addBlock(t, s.root, 3)
	err := s.stateMachine.SetState(s.root, a2)
	if err != nil {
		t.Fatalf("TestApplyBlockContract: SetState: %+v", err)
	}

	tests := []struct {
		name  string
		block *model.BlockIndex
	}{
		{"sibling of an active block", b1},
		{"already active block", a2},
	}
	for _, test := range tests {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("TestApplyBlockContract: applying %s did not panic", test.name)
				}
			}()
			_ = s.stateMachine.ApplyBlock(test.block)
		}()
	}

	if s.tree.BestChain().Tip() != a2 || b1.IsActive() || !a1.IsActive() {
		t.Fatalf("TestApplyBlockContract: the active chain changed, tip %s", s.tree.BestChain().Tip())
	}
}
