package forkresolution

import (
	"math"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/popconfig"
	"github.com/pkg/errors"
)

// NoEndorsement is the publication height of a keystone that was never
// published. It is worse than any real height.
const NoEndorsement = math.MaxInt32

// KeystoneContext is the earliest height, in the proving chain, at which any
// block of the window of a keystone was endorsed.
type KeystoneContext struct {
	BlockHeight            int32
	FirstPublicationHeight int32
}

// Comparator scores competing chains of a tree by how early their keystones
// were published to the proving tree.
type Comparator struct {
	tree         model.BlockTree
	provingTree  model.BlockTree
	params       *popconfig.ChainParams
	endorsements model.EndorsementSource
	proofLocator model.ProofLocator
}

// NewComparator returns a Comparator for tree, whose endorsements are proven
// in provingTree.
func NewComparator(tree model.BlockTree, provingTree model.BlockTree, params *popconfig.ChainParams,
	endorsements model.EndorsementSource) *Comparator {

	if params.KeystoneInterval <= 0 {
		panic(errors.Errorf("%s: a proof-of-proof comparator needs a positive keystone interval", params.Name))
	}
	comparator := &Comparator{
		tree:         tree,
		provingTree:  provingTree,
		params:       params,
		endorsements: endorsements,
	}
	comparator.proofLocator, _ = endorsements.(model.ProofLocator)
	return comparator
}

// ComparePopScore returns a positive number if chainA scores better than
// chainB, a negative number if it scores worse and zero on a tie.
func (c *Comparator) ComparePopScore(chainA *model.BlockIndex, chainB *model.BlockIndex) int {
	if chainA == chainB {
		return 0
	}
	fork := findFork(chainA, chainB)
	if fork == nil {
		panic(errors.Errorf("%s: %s and %s have no common ancestor", c.tree.Name(), chainA, chainB))
	}

	maxHeight := chainA.Height()
	if chainB.Height() < maxHeight {
		maxHeight = chainB.Height()
	}
	contextsA := c.KeystoneContexts(chainA, fork, maxHeight)
	contextsB := c.KeystoneContexts(chainB, fork, maxHeight)
	result := CompareKeystoneContexts(contextsA, contextsB, c.params)
	log.Tracef("%s: pop score of %s vs %s (fork %s): %d", c.tree.Name(), chainA, chainB, fork, result)
	return result
}

// KeystoneContexts returns the keystone contexts of the chain ending at
// chainTip, starting with the keystone covering the block after fork and
// ending with the last keystone not above maxHeight.
func (c *Comparator) KeystoneContexts(chainTip *model.BlockIndex, fork *model.BlockIndex,
	maxHeight int32) []KeystoneContext {

	interval := c.params.KeystoneInterval
	var contexts []KeystoneContext
	for keystone := c.params.KeystoneAtOrBelow(fork.Height() + 1); keystone <= maxHeight; keystone += interval {
		windowEnd := keystone + interval - 1
		if windowEnd > maxHeight {
			windowEnd = maxHeight
		}
		contexts = append(contexts, KeystoneContext{
			BlockHeight:            keystone,
			FirstPublicationHeight: c.firstPublicationHeight(chainTip, keystone, windowEnd),
		})
	}
	return contexts
}

// firstPublicationHeight returns the lowest proving tree height at which any
// block of the chain in [from, to] was endorsed. Endorsements proven in
// unknown or invalid blocks are ignored.
func (c *Comparator) firstPublicationHeight(chainTip *model.BlockIndex, from int32, to int32) int32 {
	earliest := int32(NoEndorsement)
	for height := from; height <= to; height++ {
		index := chainTip.Ancestor(height)
		if index == nil {
			continue
		}
		for _, endorsement := range c.endorsements.EndorsementsOf(chainTip, index) {
			height, ok := c.blockOfProofHeight(chainTip, endorsement)
			if ok && height < earliest {
				earliest = height
			}
		}
	}
	return earliest
}

// blockOfProofHeight returns the height of the block of proof of endorsement,
// and false if it is unknown or invalid.
func (c *Comparator) blockOfProofHeight(chainTip *model.BlockIndex, endorsement *externalapi.Endorsement) (int32, bool) {
	if c.proofLocator != nil {
		return c.proofLocator.BlockOfProofHeight(chainTip, endorsement)
	}
	blockOfProof := c.provingTree.GetBlockIndexByHash(&endorsement.BlockOfProof)
	if blockOfProof == nil || !blockOfProof.IsValid() {
		return 0, false
	}
	return blockOfProof.Height(), true
}

// CompareKeystoneContexts compares two sequences of keystone contexts over the
// same keystones. A keystone published later than the competing chain by more
// than the finality delay chops the rest of the chain off the comparison.
func CompareKeystoneContexts(contextsA []KeystoneContext, contextsB []KeystoneContext,
	params *popconfig.ChainParams) int {

	length := len(contextsA)
	if len(contextsB) < length {
		length = len(contextsB)
	}

	var scoreA, scoreB int64
	choppedA, choppedB := false, false
	for i := 0; i < length; i++ {
		publicationA := contextsA[i].FirstPublicationHeight
		if choppedA {
			publicationA = NoEndorsement
		}
		publicationB := contextsB[i].FirstPublicationHeight
		if choppedB {
			publicationB = NoEndorsement
		}
		if publicationA == NoEndorsement && publicationB == NoEndorsement {
			continue
		}

		earliest := publicationA
		if publicationB < earliest {
			earliest = publicationB
		}

		var score int64
		score, choppedA = keystoneScore(publicationA, earliest, params)
		scoreA += score
		score, choppedB = keystoneScore(publicationB, earliest, params)
		scoreB += score
	}

	switch {
	case scoreA > scoreB:
		return 1
	case scoreA < scoreB:
		return -1
	default:
		return 0
	}
}

// keystoneScore returns the score of a keystone published at publication when
// the earliest competing publication is earliest, and whether its chain must
// be chopped.
func keystoneScore(publication int32, earliest int32, params *popconfig.ChainParams) (int64, bool) {
	if publication == NoEndorsement {
		return 0, true
	}
	delay := publication - earliest
	if delay > params.FinalityDelay {
		return 0, true
	}
	if int(delay) >= len(params.ForkResolutionLookupTable) {
		return 0, false
	}
	return int64(params.ForkResolutionLookupTable[delay]), false
}

// findFork returns the highest common ancestor of a and b.
func findFork(a *model.BlockIndex, b *model.BlockIndex) *model.BlockIndex {
	if a.Height() > b.Height() {
		a = a.Ancestor(b.Height())
	} else if b.Height() > a.Height() {
		b = b.Ancestor(a.Height())
	}
	for a != nil && b != nil && a != b {
		a = a.Parent()
		b = b.Parent()
	}
	if a != b {
		return nil
	}
	return a
}
