package pop

import (
	"sync"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/orphans"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/processes/blocktree"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/processes/forkresolution"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/processes/payloadsprovider"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/ruleerrors"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/popconfig"
	"github.com/pkg/errors"
)

// PopContext tracks the blocks of an ALT chain together with the VBK and BTC
// blocks its payloads carry, and decides which ALT chain is the best one.
// It is safe for concurrent use.
type PopContext interface {
	AcceptBlockHeader(header externalapi.BlockHeader) (isOrphan bool, err error)
	AcceptBlock(blockHash *externalapi.DomainHash, popData *externalapi.PopData) error
	SetState(blockHash *externalapi.DomainHash) error
	RemoveSubtree(blockHash *externalapi.DomainHash) error

	GetBestChain() []*model.BlockIndex
	GetBlockIndex(blockHash *externalapi.DomainHash) *model.BlockIndex
	GetVBKBlockIndex(blockHash *externalapi.DomainHash) *model.BlockIndex
	GetBTCBlockIndex(blockHash *externalapi.DomainHash) *model.BlockIndex
	ComparePopScore(chainA *externalapi.DomainHash, chainB *externalapi.DomainHash) (int, error)

	ConnectOnValidityChanged(handler model.ValidityChangedHandler) int
	Disconnect(id int)

	SaveState() error
	LoadState() error
}

type popContext struct {
	lock sync.RWMutex

	params *popconfig.Params

	btcTree *blocktree.Tree
	vbkTree *blocktree.Tree
	altTree *blocktree.Tree

	altStateMachine model.StateMachine
	altComparator   *forkresolution.Comparator

	payloadStore model.PayloadStore
	orphanPool   *orphans.Pool

	btcBlockStore model.BlockStore
	vbkBlockStore model.BlockStore
	altBlockStore model.BlockStore
}

// AcceptBlockHeader adds an ALT header to the tree. A header whose parent is
// unknown is kept as an orphan until its parent arrives, and isOrphan is set.
func (pc *popContext) AcceptBlockHeader(header externalapi.BlockHeader) (isOrphan bool, err error) {
	pc.lock.Lock()
	defer pc.lock.Unlock()

	return pc.acceptBlockHeader(header)
}

func (pc *popContext) acceptBlockHeader(header externalapi.BlockHeader) (isOrphan bool, err error) {
	hash := header.Hash()
	if pc.orphanPool.IsKnownOrphan(hash) {
		return true, nil
	}

	_, err = pc.altTree.AcceptBlockHeader(header)
	if errors.Is(err, ruleerrors.ErrMissingParent) {
		err := pc.orphanPool.Add(header)
		if err != nil {
			return false, err
		}
		log.Infof("Adding orphan header %s with missing ancestor %s", hash,
			pc.orphanPool.MissingAncestor(hash))
		return true, nil
	}
	if err != nil {
		return false, err
	}

	accepted, err := pc.orphanPool.ProcessOrphans(hash, func(orphan externalapi.BlockHeader) error {
		_, err := pc.altTree.AcceptBlockHeader(orphan)
		return err
	})
	if err != nil {
		return false, err
	}
	if len(accepted) > 0 {
		log.Debugf("Accepted %d orphan headers on top of %s", len(accepted), hash)
	}
	return false, nil
}

// AcceptBlock attaches popData to the known ALT block blockHash. The block is
// connected once its parent is, and competes for the best chain from then on.
func (pc *popContext) AcceptBlock(blockHash *externalapi.DomainHash, popData *externalapi.PopData) error {
	pc.lock.Lock()
	defer pc.lock.Unlock()

	return pc.acceptBlock(blockHash, popData)
}

func (pc *popContext) acceptBlock(blockHash *externalapi.DomainHash, popData *externalapi.PopData) error {
	index := pc.altTree.GetBlockIndexByHash(blockHash)
	if index == nil {
		return errors.Wrapf(ruleerrors.ErrUnknownBlock, "%s: block %s is unknown", pc.altTree.Name(), blockHash)
	}
	if _, ok := pc.payloadStore.PopData(blockHash); ok || index.IsConnected() {
		return errors.Wrapf(ruleerrors.ErrPayloadsAlreadyAccepted, "%s: payloads of %s were already accepted",
			pc.altTree.Name(), index)
	}
	if popData == nil {
		popData = &externalapi.PopData{}
	}
	err := payloadsprovider.ValidatePopData(blockHash, popData)
	if err != nil {
		return err
	}

	pc.payloadStore.Stage(blockHash, popData)
	_, err = pc.altTree.AcceptPayloads(blockHash, !popData.IsEmpty())
	if err != nil {
		pc.payloadStore.Delete(blockHash)
		return err
	}
	pc.vbkTree.DetermineBestChain()
	log.Debugf("Accepted %d payloads of %s", len(popData.PayloadIDs()), index)
	return nil
}

// SetState makes blockHash the tip of the active ALT chain. On failure the
// active chain is left as it was.
func (pc *popContext) SetState(blockHash *externalapi.DomainHash) error {
	pc.lock.Lock()
	defer pc.lock.Unlock()

	return pc.setState(blockHash)
}

func (pc *popContext) setState(blockHash *externalapi.DomainHash) error {
	index := pc.altTree.GetBlockIndexByHash(blockHash)
	if index == nil {
		return errors.Wrapf(ruleerrors.ErrUnknownBlock, "%s: block %s is unknown", pc.altTree.Name(), blockHash)
	}
	err := pc.altStateMachine.SetState(pc.altTree.BestChain().Tip(), index)
	if err != nil {
		return err
	}
	pc.vbkTree.DetermineBestChain()
	return nil
}

// RemoveSubtree removes the ALT block blockHash and its descendants along with
// their payloads.
func (pc *popContext) RemoveSubtree(blockHash *externalapi.DomainHash) error {
	pc.lock.Lock()
	defer pc.lock.Unlock()

	index := pc.altTree.GetBlockIndexByHash(blockHash)
	if index == nil {
		return errors.Wrapf(ruleerrors.ErrUnknownBlock, "%s: block %s is unknown", pc.altTree.Name(), blockHash)
	}
	if index.IsBootstrap() {
		return errors.Errorf("%s: the bootstrap block %s can't be removed", pc.altTree.Name(), index)
	}

	var removed []externalapi.DomainHash
	queue := []*model.BlockIndex{index}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		removed = append(removed, *current.Hash())
		queue = append(queue, current.Children()...)
	}

	pc.altTree.RemoveSubtree(index)
	for i := range removed {
		pc.payloadStore.Delete(&removed[i])
	}
	pc.vbkTree.DetermineBestChain()
	log.Debugf("Removed %d blocks starting at %s", len(removed), blockHash)
	return nil
}

// GetBestChain returns the active ALT chain, from the bootstrap block to the tip.
func (pc *popContext) GetBestChain() []*model.BlockIndex {
	pc.lock.RLock()
	defer pc.lock.RUnlock()

	return pc.altTree.BestChain().Blocks()
}

func (pc *popContext) GetBlockIndex(blockHash *externalapi.DomainHash) *model.BlockIndex {
	pc.lock.RLock()
	defer pc.lock.RUnlock()

	return pc.altTree.GetBlockIndexByHash(blockHash)
}

func (pc *popContext) GetVBKBlockIndex(blockHash *externalapi.DomainHash) *model.BlockIndex {
	pc.lock.RLock()
	defer pc.lock.RUnlock()

	return pc.vbkTree.GetBlockIndexByHash(blockHash)
}

func (pc *popContext) GetBTCBlockIndex(blockHash *externalapi.DomainHash) *model.BlockIndex {
	pc.lock.RLock()
	defer pc.lock.RUnlock()

	return pc.btcTree.GetBlockIndexByHash(blockHash)
}

// ComparePopScore compares the ALT chains ending at chainA and chainB. It
// returns a positive number if chainA is better, a negative number if chainB
// is better and zero if neither is.
func (pc *popContext) ComparePopScore(chainA *externalapi.DomainHash, chainB *externalapi.DomainHash) (int, error) {
	pc.lock.RLock()
	defer pc.lock.RUnlock()

	if pc.altComparator == nil {
		return 0, errors.Errorf("%s: the chain is not secured by proof-of-proof", pc.altTree.Name())
	}
	indexA := pc.altTree.GetBlockIndexByHash(chainA)
	if indexA == nil {
		return 0, errors.Wrapf(ruleerrors.ErrUnknownBlock, "%s: block %s is unknown", pc.altTree.Name(), chainA)
	}
	indexB := pc.altTree.GetBlockIndexByHash(chainB)
	if indexB == nil {
		return 0, errors.Wrapf(ruleerrors.ErrUnknownBlock, "%s: block %s is unknown", pc.altTree.Name(), chainB)
	}
	return pc.altComparator.ComparePopScore(indexA, indexB), nil
}

// ConnectOnValidityChanged registers handler for validity changes of ALT
// blocks. The handler is called with the context locked and must not call
// back into it.
func (pc *popContext) ConnectOnValidityChanged(handler model.ValidityChangedHandler) int {
	pc.lock.Lock()
	defer pc.lock.Unlock()

	return pc.altTree.ConnectOnValidityChanged(handler)
}

func (pc *popContext) Disconnect(id int) {
	pc.lock.Lock()
	defer pc.lock.Unlock()

	pc.altTree.Disconnect(id)
}
