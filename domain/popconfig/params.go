package popconfig

import (
	"time"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/utils/blockheader"
	"github.com/pkg/errors"
)

// defaultForkResolutionLookupTable scores a keystone by how late its
// publication is compared to the earliest publication of the competing chain.
func defaultForkResolutionLookupTable() []int32 {
	return []int32{100, 100, 95, 89, 80, 69, 56, 40, 21}
}

const (
	defaultMaxOrphans       = 100
	defaultOrphanExpiration = time.Hour
)

// ChainParams defines the parameters of a single chain tracked by a block tree.
type ChainParams struct {
	// Name is a human-readable identifier for the chain.
	Name string

	// GenesisHeader is the header the tree is bootstrapped with.
	GenesisHeader externalapi.BlockHeader

	// GenesisHeight is the height of GenesisHeader.
	GenesisHeight int32

	// KeystoneInterval is the distance between two keystones. Zero means the
	// chain is not secured by proof-of-proof.
	KeystoneInterval int32

	// EndorsementSettlementInterval is the maximal distance between a
	// containing block and the block it endorses.
	EndorsementSettlementInterval int32

	// FinalityDelay is the maximal distance, in blocks of the proving chain,
	// a keystone publication may lag behind the competing chain before the
	// chain is chopped during fork resolution.
	FinalityDelay int32

	// ForkResolutionLookupTable maps a publication delay to the score of a
	// keystone. Delays beyond the table score nothing.
	ForkResolutionLookupTable []int32

	// MaxOrphans is the maximal number of headers with an unknown parent
	// kept in the orphan pool.
	MaxOrphans int

	// OrphanExpiration is the time after which an orphan header is dropped.
	OrphanExpiration time.Duration
}

// IsKeystone returns true if height is a keystone height.
func (p *ChainParams) IsKeystone(height int32) bool {
	return p.KeystoneInterval > 0 && height%p.KeystoneInterval == 0
}

// KeystoneAtOrBelow returns the highest keystone height that is not above height.
func (p *ChainParams) KeystoneAtOrBelow(height int32) int32 {
	if height < 0 {
		return 0
	}
	return height - height%p.KeystoneInterval
}

// Clone returns a deep copy of p.
func (p *ChainParams) Clone() *ChainParams {
	clone := *p
	clone.ForkResolutionLookupTable = make([]int32, len(p.ForkResolutionLookupTable))
	copy(clone.ForkResolutionLookupTable, p.ForkResolutionLookupTable)
	return &clone
}

// Validate checks that p describes a usable chain.
func (p *ChainParams) Validate() error {
	if p.GenesisHeader == nil {
		return errors.Errorf("%s: missing genesis header", p.Name)
	}
	if p.GenesisHeight < 0 {
		return errors.Errorf("%s: negative genesis height %d", p.Name, p.GenesisHeight)
	}
	if p.KeystoneInterval < 0 {
		return errors.Errorf("%s: negative keystone interval %d", p.Name, p.KeystoneInterval)
	}
	if p.KeystoneInterval > 0 && p.FinalityDelay <= 0 {
		return errors.Errorf("%s: a proof-of-proof secured chain needs a positive finality delay", p.Name)
	}
	if p.EndorsementSettlementInterval < 0 {
		return errors.Errorf("%s: negative endorsement settlement interval %d",
			p.Name, p.EndorsementSettlementInterval)
	}
	for i := 1; i < len(p.ForkResolutionLookupTable); i++ {
		if p.ForkResolutionLookupTable[i] > p.ForkResolutionLookupTable[i-1] {
			return errors.Errorf("%s: fork resolution lookup table must not increase", p.Name)
		}
	}
	return nil
}

// Params defines the three chains of a proof-of-proof deployment: the host
// ALT chain, the VBK chain securing it and the BTC chain securing VBK.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	BTC *ChainParams
	VBK *ChainParams
	ALT *ChainParams
}

// Clone returns a deep copy of p.
func (p *Params) Clone() *Params {
	return &Params{
		Name: p.Name,
		BTC:  p.BTC.Clone(),
		VBK:  p.VBK.Clone(),
		ALT:  p.ALT.Clone(),
	}
}

// Validate checks all chains of p.
func (p *Params) Validate() error {
	for _, chain := range []*ChainParams{p.BTC, p.VBK, p.ALT} {
		err := chain.Validate()
		if err != nil {
			return errors.Wrapf(err, "invalid %s params", p.Name)
		}
	}
	return nil
}

func genesisHeader(timestamp int64, difficulty uint64, nonce uint64) externalapi.BlockHeader {
	return blockheader.NewImmutableBlockHeader(1, &externalapi.DomainHash{}, &externalapi.DomainHash{},
		timestamp, difficulty, nonce)
}

// MainnetParams returns the parameters of the main network.
func MainnetParams() *Params {
	return &Params{
		Name: "mainnet",
		BTC: &ChainParams{
			Name:             "btc",
			GenesisHeader:    genesisHeader(1231006505, 1, 2083236893),
			MaxOrphans:       defaultMaxOrphans,
			OrphanExpiration: defaultOrphanExpiration,
		},
		VBK: &ChainParams{
			Name:                          "vbk",
			GenesisHeader:                 genesisHeader(1553699059, 1, 289244493),
			KeystoneInterval:              20,
			EndorsementSettlementInterval: 400,
			FinalityDelay:                 11,
			ForkResolutionLookupTable:     defaultForkResolutionLookupTable(),
			MaxOrphans:                    defaultMaxOrphans,
			OrphanExpiration:              defaultOrphanExpiration,
		},
		ALT: &ChainParams{
			Name:                          "alt",
			GenesisHeader:                 genesisHeader(1600000000, 1, 0),
			KeystoneInterval:              5,
			EndorsementSettlementInterval: 50,
			FinalityDelay:                 100,
			ForkResolutionLookupTable:     defaultForkResolutionLookupTable(),
			MaxOrphans:                    defaultMaxOrphans,
			OrphanExpiration:              defaultOrphanExpiration,
		},
	}
}

// TestnetParams returns the parameters of the test network.
func TestnetParams() *Params {
	params := MainnetParams()
	params.Name = "testnet"
	params.BTC.GenesisHeader = genesisHeader(1296688602, 1, 414098458)
	params.VBK.GenesisHeader = genesisHeader(1570649416, 1, 14304633)
	params.ALT.GenesisHeader = genesisHeader(1600000000, 1, 1)
	return params
}

// RegtestParams returns the parameters of the regression test network. Its
// intervals are small so that tests can build forks quickly.
func RegtestParams() *Params {
	params := MainnetParams()
	params.Name = "regtest"
	params.BTC.GenesisHeader = genesisHeader(1296688602, 1, 2)
	params.VBK.GenesisHeader = genesisHeader(1553699987, 1, 3)
	params.VBK.KeystoneInterval = 5
	params.VBK.EndorsementSettlementInterval = 50
	params.VBK.FinalityDelay = 11
	params.ALT.GenesisHeader = genesisHeader(1600000000, 1, 4)
	params.ALT.KeystoneInterval = 5
	params.ALT.EndorsementSettlementInterval = 50
	params.ALT.FinalityDelay = 100
	return params
}

// ParamsByName returns the parameters of the named network.
func ParamsByName(name string) (*Params, error) {
	switch name {
	case "mainnet":
		return MainnetParams(), nil
	case "testnet":
		return TestnetParams(), nil
	case "regtest":
		return RegtestParams(), nil
	}
	return nil, errors.Errorf("unknown network %s", name)
}
