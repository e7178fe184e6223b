package pop

import (
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/processes/blocktree"
	"github.com/VeriBlock/alt-integration-cpp-sub004/infrastructure/logger"
	"github.com/pkg/errors"
)

// errNoDatabase is returned by SaveState and LoadState of a context created
// without a database.
var errNoDatabase = errors.New("the pop context has no database")

// SaveState persists the blocks and the active tips of all three trees.
func (pc *popContext) SaveState() error {
	pc.lock.RLock()
	defer pc.lock.RUnlock()

	if pc.altBlockStore == nil {
		return errNoDatabase
	}
	onEnd := logger.LogAndMeasureExecutionTime(log, "SaveState")
	defer onEnd()

	for _, save := range []struct {
		tree  *blocktree.Tree
		store model.BlockStore
	}{
		{pc.btcTree, pc.btcBlockStore},
		{pc.vbkTree, pc.vbkBlockStore},
		{pc.altTree, pc.altBlockStore},
	} {
		err := pc.saveTree(save.tree, save.store)
		if err != nil {
			return errors.Wrapf(err, "failed to save the %s tree", save.tree.Name())
		}
	}
	return nil
}

func (pc *popContext) saveTree(tree *blocktree.Tree, store model.BlockStore) error {
	blocks := tree.Blocks()
	storedBlocks := make([]*model.StoredBlock, len(blocks))
	for i, index := range blocks {
		storedBlocks[i] = &model.StoredBlock{
			Height:     index.Height(),
			Header:     index.Header(),
			Status:     index.Status(),
			RefCount:   index.RefCount(),
			PayloadIDs: index.PayloadIDs(),
		}
		if tree == pc.altTree {
			if popData, ok := pc.payloadStore.PopData(index.Hash()); ok {
				storedBlocks[i].PopData = popData
			}
		}
	}

	err := store.SaveBlocks(storedBlocks)
	if err != nil {
		return err
	}
	return store.SaveTip(tree.BestChain().Tip().Hash())
}

// LoadState rebuilds the trees of a freshly created context from the stored
// state. ALT blocks are replayed with their payloads, which rebuilds the VBK
// and BTC trees. The rebuilt VBK and BTC blocks are checked against the
// stored ones.
func (pc *popContext) LoadState() error {
	pc.lock.Lock()
	defer pc.lock.Unlock()

	if pc.altBlockStore == nil {
		return errNoDatabase
	}
	onEnd := logger.LogAndMeasureExecutionTime(log, "LoadState")
	defer onEnd()

	for _, tree := range []*blocktree.Tree{pc.btcTree, pc.vbkTree, pc.altTree} {
		if len(tree.Blocks()) != 1 {
			return errors.Errorf("%s: state can only be loaded into an empty tree", tree.Name())
		}
	}

	altBlocks, err := pc.loadBlocks(pc.altTree, pc.altBlockStore)
	if err != nil {
		return err
	}
	if len(altBlocks) == 0 {
		log.Infof("No stored state was found")
		return nil
	}
	err = pc.replayALTBlocks(altBlocks)
	if err != nil {
		return err
	}

	altTip, err := pc.altBlockStore.LoadTip()
	if err != nil {
		return err
	}
	if altTip != nil && !altTip.Equal(pc.altTree.BestChain().Tip().Hash()) {
		err := pc.setState(altTip)
		if err != nil {
			return errors.Wrapf(err, "failed to restore the active %s tip %s", pc.altTree.Name(), altTip)
		}
	}

	err = pc.verifyTree(pc.vbkTree, pc.vbkBlockStore)
	if err != nil {
		return err
	}
	err = pc.verifyTree(pc.btcTree, pc.btcBlockStore)
	if err != nil {
		return err
	}

	log.Infof("Loaded %d %s blocks, active tip is %s", len(altBlocks), pc.altTree.Name(),
		pc.altTree.BestChain().Tip())
	return nil
}

// loadBlocks returns the stored blocks of tree, making sure they start at the
// bootstrap block of the tree.
func (pc *popContext) loadBlocks(tree *blocktree.Tree, store model.BlockStore) ([]*model.StoredBlock, error) {
	blocks, err := store.LoadBlocks()
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, nil
	}
	if !blocks[0].Header.Hash().Equal(tree.Root().Hash()) || blocks[0].Height != tree.Root().Height() {
		return nil, errors.Errorf("%s: stored state starts at %s@%d, not at the bootstrap block %s",
			tree.Name(), blocks[0].Header.Hash(), blocks[0].Height, tree.Root())
	}
	return blocks, nil
}

func (pc *popContext) replayALTBlocks(blocks []*model.StoredBlock) error {
	for _, block := range blocks[1:] {
		_, err := pc.altTree.AcceptBlockHeader(block.Header)
		if err != nil {
			return errors.Wrapf(err, "%s: failed to replay header %s", pc.altTree.Name(), block.Header.Hash())
		}
	}

	for _, block := range blocks[1:] {
		reason := block.Status & (model.StatusFailedBlock | model.StatusFailedPop)
		if reason == 0 {
			continue
		}
		index := pc.altTree.GetBlockIndexByHash(block.Header.Hash())
		for _, flag := range []model.BlockStatus{model.StatusFailedBlock, model.StatusFailedPop} {
			if reason&flag != 0 {
				pc.altTree.InvalidateSubtree(index, flag, false)
			}
		}
	}

	for _, block := range blocks[1:] {
		if block.Status&model.StatusConnected == 0 {
			continue
		}
		if block.PopData == nil && block.Status&model.StatusHasPayloads != 0 {
			return errors.Errorf("%s: stored block %s has payloads but no PopData",
				pc.altTree.Name(), block.Header.Hash())
		}
		err := pc.acceptBlock(block.Header.Hash(), block.PopData)
		if err != nil {
			return errors.Wrapf(err, "%s: failed to replay the payloads of %s",
				pc.altTree.Name(), block.Header.Hash())
		}
	}
	return nil
}

// verifyTree checks that every stored block of tree still referenced by a
// payload was rebuilt with the same references.
func (pc *popContext) verifyTree(tree *blocktree.Tree, store model.BlockStore) error {
	blocks, err := pc.loadBlocks(tree, store)
	if err != nil {
		return err
	}
	for _, block := range blocks {
		if block.RefCount == 0 {
			continue
		}
		index := tree.GetBlockIndexByHash(block.Header.Hash())
		if index == nil {
			return errors.Errorf("%s: stored block %s was not rebuilt", tree.Name(), block.Header.Hash())
		}
		if index.RefCount() != block.RefCount || !payloadIDsEqual(index.PayloadIDs(), block.PayloadIDs) {
			return errors.Errorf("%s: block %s was rebuilt with %d references and %d payloads, "+
				"%d references and %d payloads were stored", tree.Name(), index, index.RefCount(),
				len(index.PayloadIDs()), block.RefCount, len(block.PayloadIDs))
		}
	}
	return nil
}

func payloadIDsEqual(a, b []externalapi.DomainHash) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
