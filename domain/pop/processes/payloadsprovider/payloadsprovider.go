package payloadsprovider

import (
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/processes/commands"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/processes/forkresolution"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/popconfig"
	"github.com/pkg/errors"
)

// payloadsProvider turns the PopData of ALT blocks into command groups over
// the BTC, VBK and ALT trees.
type payloadsProvider struct {
	btcTree      model.BlockTree
	vbkTree      model.BlockTree
	altTree      model.BlockTree
	payloadStore model.PayloadStore
	params       *popconfig.Params
}

// New instantiates a new PayloadsProvider for the ALT tree.
func New(btcTree model.BlockTree, vbkTree model.BlockTree, altTree model.BlockTree,
	payloadStore model.PayloadStore, params *popconfig.Params) model.PayloadsProvider {

	return &payloadsProvider{
		btcTree:      btcTree,
		vbkTree:      vbkTree,
		altTree:      altTree,
		payloadStore: payloadStore,
		params:       params,
	}
}

// CommandGroups returns one group per payload of index: VBK blocks first,
// then VTBs, then ATVs.
func (pp *payloadsProvider) CommandGroups(index *model.BlockIndex) ([]model.CommandGroup, error) {
	popData, ok := pp.payloadStore.PopData(index.Hash())
	if !ok {
		return nil, errors.Errorf("PopData of %s %s is missing", pp.altTree.Name(), index)
	}

	groups := make([]model.CommandGroup, 0, len(popData.VBKBlocks)+len(popData.VTBs)+len(popData.ATVs))
	for _, header := range popData.VBKBlocks {
		groups = append(groups, commands.NewVBKBlockGroup(pp.vbkTree, header))
	}
	for _, vtb := range popData.VTBs {
		groups = append(groups, commands.NewVTBGroup(pp.btcTree, pp.vbkTree, vtb,
			pp.params.VBK.EndorsementSettlementInterval))
	}
	for _, atv := range popData.ATVs {
		groups = append(groups, commands.NewATVGroup(pp.vbkTree, pp.altTree, atv,
			pp.params.ALT.EndorsementSettlementInterval))
	}
	log.Tracef("Built %d command groups for %s", len(groups), index)
	return groups, nil
}

// atvEndorsements is an EndorsementSource reading the ATVs declared by the
// PopData of ALT blocks, applied or not. It is also a ProofLocator, so that
// proofs carried by a fork that was never applied still count for it.
type atvEndorsements struct {
	altTree      model.BlockTree
	vbkTree      model.BlockTree
	payloadStore model.PayloadStore
}

// ATVEndorsementSource is the EndorsementSource and ProofLocator used to
// score competing ALT chains.
type ATVEndorsementSource interface {
	model.EndorsementSource
	model.ProofLocator
}

// NewATVEndorsementSource returns the ATVEndorsementSource of altTree, whose
// endorsements are proven in vbkTree.
func NewATVEndorsementSource(altTree model.BlockTree, vbkTree model.BlockTree,
	payloadStore model.PayloadStore) ATVEndorsementSource {

	return &atvEndorsements{altTree: altTree, vbkTree: vbkTree, payloadStore: payloadStore}
}

// EndorsementsOf returns the endorsements of index carried by ATVs of blocks
// on the chain ending at chainTip.
func (ae *atvEndorsements) EndorsementsOf(chainTip *model.BlockIndex,
	index *model.BlockIndex) []*externalapi.Endorsement {

	var endorsements []*externalapi.Endorsement
	for _, atv := range ae.payloadStore.ATVsEndorsing(index.Hash()) {
		containing := ae.altTree.GetBlockIndexByHash(&atv.Endorsement.ContainingHash)
		if containing == nil || !containing.IsValid() || !forkresolution.IsOnChain(chainTip, containing) {
			continue
		}
		endorsements = append(endorsements, atv.Endorsement)
	}
	return endorsements
}

// BlockOfProofHeight returns the VBK height of the block of proof of
// endorsement. A block of proof missing from the VBK tree is looked up in the
// VBK headers carried by the blocks of the chain ending at chainTip that are
// not applied yet, and its height is counted from the first known ancestor.
func (ae *atvEndorsements) BlockOfProofHeight(chainTip *model.BlockIndex,
	endorsement *externalapi.Endorsement) (int32, bool) {

	if blockOfProof := ae.vbkTree.GetBlockIndexByHash(&endorsement.BlockOfProof); blockOfProof != nil {
		return blockOfProof.Height(), blockOfProof.IsValid()
	}

	carried := ae.carriedVBKHeaders(chainTip)
	hash := endorsement.BlockOfProof
	for distance := int32(1); distance <= int32(len(carried)); distance++ {
		header, ok := carried[hash]
		if !ok {
			return 0, false
		}
		if parent := ae.vbkTree.GetBlockIndexByHash(header.PreviousHash()); parent != nil {
			return parent.Height() + distance, parent.IsValid()
		}
		hash = *header.PreviousHash()
	}
	return 0, false
}

// carriedVBKHeaders returns the VBK headers in the PopData of the inactive
// blocks of the chain ending at chainTip, by hash.
func (ae *atvEndorsements) carriedVBKHeaders(chainTip *model.BlockIndex) map[externalapi.DomainHash]externalapi.BlockHeader {
	carried := make(map[externalapi.DomainHash]externalapi.BlockHeader)
	for index := chainTip; index != nil && !index.IsActive(); index = index.Parent() {
		popData, ok := ae.payloadStore.PopData(index.Hash())
		if !ok {
			continue
		}
		for _, header := range popData.VBKBlocks {
			carried[*header.Hash()] = header
		}
		for _, atv := range popData.ATVs {
			for _, header := range atv.VBKContext {
				carried[*header.Hash()] = header
			}
		}
	}
	return carried
}
