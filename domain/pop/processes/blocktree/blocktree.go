package blocktree

import (
	"sort"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/ruleerrors"
	"github.com/pkg/errors"
)

// Tree is the generic block tree every chain is tracked with. It is not safe
// for concurrent use; callers serialize access to a tree.
type Tree struct {
	name        string
	hasPayloads bool

	arena  *model.Arena
	blocks map[externalapi.ShortHash]*model.BlockIndex
	root   *model.BlockIndex
	tips   map[*model.BlockIndex]struct{}

	// pendingConnection holds blocks whose payloads were accepted before
	// their parent got connected.
	pendingConnection map[*model.BlockIndex]struct{}

	bestChain *model.Chain

	headerValidator model.HeaderValidator
	stateMachine    model.StateMachine
	forkChoice      model.ForkChoiceStrategy

	validityHandlers      map[int]model.ValidityChangedHandler
	validityHandlerIDs    []int
	nextValidityHandlerID int
}

// New instantiates a new, not yet bootstrapped, Tree. Blocks of a tree with
// payloads are only connected once their payloads are accepted.
func New(name string, hasPayloads bool, headerValidator model.HeaderValidator) *Tree {
	return &Tree{
		name:              name,
		hasPayloads:       hasPayloads,
		arena:             model.NewArena(),
		blocks:            make(map[externalapi.ShortHash]*model.BlockIndex),
		tips:              make(map[*model.BlockIndex]struct{}),
		pendingConnection: make(map[*model.BlockIndex]struct{}),
		headerValidator:   headerValidator,
		validityHandlers:  make(map[int]model.ValidityChangedHandler),
	}
}

// SetStateMachine sets the state machine used to roll the active chain back
// and forth. It may only be set once.
func (t *Tree) SetStateMachine(stateMachine model.StateMachine) {
	if t.stateMachine != nil {
		panic(errors.Errorf("%s: state machine was already set", t.name))
	}
	t.stateMachine = stateMachine
}

// SetForkChoiceStrategy sets the strategy deciding which tip becomes active.
// It may only be set once.
func (t *Tree) SetForkChoiceStrategy(forkChoice model.ForkChoiceStrategy) {
	if t.forkChoice != nil {
		panic(errors.Errorf("%s: fork choice strategy was already set", t.name))
	}
	t.forkChoice = forkChoice
}

// Name returns the name of the chain the tree tracks.
func (t *Tree) Name() string {
	return t.name
}

// Root returns the bootstrap block, or nil if the tree is not bootstrapped.
func (t *Tree) Root() *model.BlockIndex {
	return t.root
}

// Bootstrap installs the root of the tree.
func (t *Tree) Bootstrap(header externalapi.BlockHeader, height int32) (*model.BlockIndex, error) {
	if t.root != nil {
		return nil, errors.Errorf("%s: tree is already bootstrapped at %s", t.name, t.root)
	}
	if height < 0 {
		return nil, errors.Errorf("%s: can't bootstrap at negative height %d", t.name, height)
	}

	root := t.arena.Allocate(header, height, nil)
	root.SetFlags(model.StatusBootstrap | model.StatusConnected | model.StatusActive | model.StatusCanBeApplied)
	t.blocks[root.ShortHash()] = root
	t.root = root
	t.bestChain = model.NewChain(height, root)
	t.updateTip(root)

	log.Debugf("%s: bootstrapped with %s", t.name, root)
	return root, nil
}

// BootstrapChain bootstraps the tree with the first header and accepts the
// rest on top of it. Every block of the chain is a bootstrap block and the
// last one becomes the active tip.
func (t *Tree) BootstrapChain(headers []externalapi.BlockHeader, startHeight int32) (*model.BlockIndex, error) {
	if len(headers) == 0 {
		return nil, errors.Errorf("%s: can't bootstrap with an empty chain", t.name)
	}
	last, err := t.Bootstrap(headers[0], startHeight)
	if err != nil {
		return nil, err
	}
	for _, header := range headers[1:] {
		last, err = t.AcceptBlockHeader(header)
		if err != nil {
			return nil, err
		}
		last.SetFlags(model.StatusBootstrap)
	}
	if t.bestChain.Tip() != last {
		err = t.requireStateMachine().SetState(t.bestChain.Tip(), last)
		if err != nil {
			return nil, err
		}
	}
	return last, nil
}

// AcceptBlockHeader registers header in the tree. Accepting a known header
// returns the existing index.
func (t *Tree) AcceptBlockHeader(header externalapi.BlockHeader) (*model.BlockIndex, error) {
	if t.root == nil {
		return nil, errors.Errorf("%s: tree is not bootstrapped", t.name)
	}

	hash := header.Hash()
	existing, ok := t.blocks[hash.Short()]
	if ok {
		if !existing.Hash().Equal(hash) {
			return nil, errors.Wrapf(ruleerrors.ErrBadHeader, "%s: short hash of %s collides with %s",
				t.name, hash, existing.Hash())
		}
		return existing, nil
	}

	prevHash := header.PreviousHash()
	parent := t.GetBlockIndexByHash(prevHash)
	if parent == nil {
		return nil, errors.Wrapf(ruleerrors.ErrMissingParent, "%s: parent %s of block %s is unknown",
			t.name, prevHash, hash)
	}
	if !parent.IsValid() {
		return nil, errors.Wrapf(ruleerrors.ErrInvalidAncestorBlock, "%s: parent %s of block %s is invalid (%s)",
			t.name, parent, hash, parent.Status())
	}
	if t.headerValidator != nil {
		err := t.headerValidator.ValidateHeader(header, parent)
		if err != nil {
			return nil, err
		}
	}

	index := t.arena.Allocate(header, parent.Height()+1, parent)
	t.blocks[index.ShortHash()] = index
	log.Tracef("%s: accepted header %s", t.name, index)

	t.updateTip(index)
	t.updateTip(parent)

	if !t.hasPayloads && parent.IsConnected() {
		t.connect(index)
	}
	return index, nil
}

// AcceptPayloads marks the payloads of a block as resolved. The block gets
// connected as soon as its parent is.
func (t *Tree) AcceptPayloads(hash *externalapi.DomainHash, hasPayloads bool) (*model.BlockIndex, error) {
	index := t.GetBlockIndexByHash(hash)
	if index == nil {
		return nil, errors.Wrapf(ruleerrors.ErrUnknownBlock, "%s: block %s is unknown", t.name, hash)
	}
	if index.IsConnected() {
		return nil, errors.Wrapf(ruleerrors.ErrPayloadsAlreadyAccepted, "%s: block %s is already connected",
			t.name, index)
	}
	if hasPayloads {
		index.SetFlags(model.StatusHasPayloads)
	}

	parent := index.Parent()
	if parent == nil || !parent.IsConnected() {
		t.pendingConnection[index] = struct{}{}
		return index, nil
	}
	t.connect(index)
	return index, nil
}

// connect marks index and every pending descendant as connected and offers
// the deepest newly connected blocks to the fork choice strategy.
func (t *Tree) connect(index *model.BlockIndex) {
	connected := make([]*model.BlockIndex, 0, 1)
	queue := []*model.BlockIndex{index}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		delete(t.pendingConnection, current)
		current.SetFlags(model.StatusConnected)
		connected = append(connected, current)

		for _, child := range current.Children() {
			_, pending := t.pendingConnection[child]
			if pending || !t.hasPayloads {
				queue = append(queue, child)
			}
		}
	}

	for _, candidate := range connected {
		if !hasConnectedValidChild(candidate) {
			t.offerCandidate(candidate)
		}
	}
}

func hasConnectedValidChild(index *model.BlockIndex) bool {
	for _, child := range index.Children() {
		if child.IsValid() && child.IsConnected() {
			return true
		}
	}
	return false
}

// GetBlockIndex returns the index of the block with the given full or short
// hash, or nil if the block is unknown.
func (t *Tree) GetBlockIndex(hash []byte) *model.BlockIndex {
	short, err := externalapi.NewShortHashFromByteSlice(hash)
	if err != nil {
		return nil
	}
	index, ok := t.blocks[short]
	if !ok {
		return nil
	}
	if len(hash) == externalapi.DomainHashSize {
		fullHash, err := externalapi.NewDomainHashFromByteSlice(hash)
		if err != nil || !index.Hash().Equal(fullHash) {
			return nil
		}
	}
	return index
}

// GetBlockIndexByHash returns the index of the block with the given hash, or
// nil if the block is unknown.
func (t *Tree) GetBlockIndexByHash(hash *externalapi.DomainHash) *model.BlockIndex {
	index, ok := t.blocks[hash.Short()]
	if !ok || !index.Hash().Equal(hash) {
		return nil
	}
	return index
}

// GetBlockIndexByHandle resolves handle. Handles of removed blocks resolve to
// their tombstone until no command references them anymore.
func (t *Tree) GetBlockIndexByHandle(handle model.Handle) *model.BlockIndex {
	return t.arena.Resolve(handle)
}

// BestChain returns the active chain of the tree.
func (t *Tree) BestChain() *model.Chain {
	return t.bestChain
}

// Tips returns the valid blocks with no valid child, highest first.
func (t *Tree) Tips() []*model.BlockIndex {
	tips := make([]*model.BlockIndex, 0, len(t.tips))
	for tip := range t.tips {
		tips = append(tips, tip)
	}
	sortBlocks(tips)
	return tips
}

// Blocks returns every block of the tree ordered by height.
func (t *Tree) Blocks() []*model.BlockIndex {
	blocks := make([]*model.BlockIndex, 0, len(t.blocks))
	for _, index := range t.blocks {
		blocks = append(blocks, index)
	}
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].Height() != blocks[j].Height() {
			return blocks[i].Height() < blocks[j].Height()
		}
		return blocks[i].Hash().Less(blocks[j].Hash())
	})
	return blocks
}

// sortBlocks orders blocks by descending height, then by hash.
func sortBlocks(blocks []*model.BlockIndex) {
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].Height() != blocks[j].Height() {
			return blocks[i].Height() > blocks[j].Height()
		}
		return blocks[i].Hash().Less(blocks[j].Hash())
	})
}

func (t *Tree) isTip(index *model.BlockIndex) bool {
	_, ok := t.tips[index]
	return ok
}

// updateTip adds index to the tips if it is a valid block with no valid
// child, and removes it otherwise.
func (t *Tree) updateTip(index *model.BlockIndex) {
	if index == nil {
		return
	}
	if !index.IsDeleted() && index.IsValid() && !index.HasValidChild() {
		t.tips[index] = struct{}{}
		return
	}
	delete(t.tips, index)
}

func (t *Tree) requireStateMachine() model.StateMachine {
	if t.stateMachine == nil {
		panic(errors.Errorf("%s: no state machine was set", t.name))
	}
	return t.stateMachine
}
