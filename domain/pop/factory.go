package pop

import (
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/datastructures/blockstore"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/datastructures/payloadstore"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/orphans"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/processes/blocktree"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/processes/forkresolution"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/processes/payloadsprovider"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/processes/statemachine"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/popconfig"
	"github.com/VeriBlock/alt-integration-cpp-sub004/infrastructure/db/database"
	"github.com/pkg/errors"
)

// Factory instantiates new PopContexts
type Factory interface {
	NewPopContext(params *popconfig.Params, db database.Database) (PopContext, error)
}

type factory struct{}

// NewFactory creates a new PopContext factory
func NewFactory() Factory {
	return &factory{}
}

// NewPopContext instantiates a new PopContext with bootstrapped BTC, VBK and
// ALT trees. db may be nil, in which case the state can't be saved or loaded.
func (f *factory) NewPopContext(params *popconfig.Params, db database.Database) (PopContext, error) {
	err := params.Validate()
	if err != nil {
		return nil, err
	}
	params = params.Clone()

	// Data Structures
	payloadStore := payloadstore.New()
	var btcBlockStore, vbkBlockStore, altBlockStore model.BlockStore
	if db != nil {
		btcBlockStore = blockstore.New(db, params.BTC.Name)
		vbkBlockStore = blockstore.New(db, params.VBK.Name)
		altBlockStore = blockstore.New(db, params.ALT.Name)
	}

	// Trees
	btcTree := blocktree.New(params.BTC.Name, false, nil)
	vbkTree := blocktree.New(params.VBK.Name, false, nil)
	altTree := blocktree.New(params.ALT.Name, true, nil)

	// Processes
	btcTree.SetStateMachine(statemachine.New(btcTree, nil))
	vbkTree.SetStateMachine(statemachine.New(vbkTree, nil))
	altStateMachine := statemachine.New(altTree,
		payloadsprovider.New(btcTree, vbkTree, altTree, payloadStore, params))
	altTree.SetStateMachine(altStateMachine)

	var altComparator *forkresolution.Comparator
	btcTree.SetForkChoiceStrategy(forkresolution.ChainWorkStrategy{})
	if params.VBK.KeystoneInterval > 0 {
		vbkComparator := forkresolution.NewComparator(vbkTree, btcTree, params.VBK,
			forkresolution.NewAttachedEndorsements(vbkTree))
		vbkTree.SetForkChoiceStrategy(forkresolution.NewPopStrategy(vbkComparator,
			forkresolution.ChainWorkTieBreaker))
	} else {
		vbkTree.SetForkChoiceStrategy(forkresolution.ChainWorkStrategy{})
	}
	if params.ALT.KeystoneInterval > 0 {
		altComparator = forkresolution.NewComparator(altTree, vbkTree, params.ALT,
			payloadsprovider.NewATVEndorsementSource(altTree, vbkTree, payloadStore))
		altTree.SetForkChoiceStrategy(forkresolution.NewPopStrategy(altComparator,
			forkresolution.ExtendingTieBreaker))
	} else {
		altTree.SetForkChoiceStrategy(forkresolution.ChainWorkStrategy{})
	}

	for _, bootstrap := range []struct {
		tree   *blocktree.Tree
		params *popconfig.ChainParams
	}{
		{btcTree, params.BTC},
		{vbkTree, params.VBK},
		{altTree, params.ALT},
	} {
		_, err := bootstrap.tree.Bootstrap(bootstrap.params.GenesisHeader, bootstrap.params.GenesisHeight)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to bootstrap the %s tree", bootstrap.params.Name)
		}
	}

	log.Infof("Created %s pop context with %s, %s and %s trees", params.Name,
		btcTree.Root(), vbkTree.Root(), altTree.Root())
	return &popContext{
		params:          params,
		btcTree:         btcTree,
		vbkTree:         vbkTree,
		altTree:         altTree,
		altStateMachine: altStateMachine,
		altComparator:   altComparator,
		payloadStore:    payloadStore,
		orphanPool:      orphans.New(params.ALT.MaxOrphans, params.ALT.OrphanExpiration),
		btcBlockStore:   btcBlockStore,
		vbkBlockStore:   vbkBlockStore,
		altBlockStore:   altBlockStore,
	}, nil
}
