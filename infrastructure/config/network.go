package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/popconfig"
	"github.com/pkg/errors"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Testnet            bool   `long:"testnet" description:"Use the test network"`
	Regtest            bool   `long:"regtest" description:"Use the regression test network"`
	OverrideParamsFile string `long:"override-params-file" description:"Overrides chain params (allowed only on regtest)"`

	ActiveNetParams *popconfig.Params
}

type overrideChainParamsConfig struct {
	KeystoneInterval              *int32  `json:"keystoneInterval"`
	EndorsementSettlementInterval *int32  `json:"endorsementSettlementInterval"`
	FinalityDelay                 *int32  `json:"finalityDelay"`
	ForkResolutionLookupTable     []int32 `json:"forkResolutionLookupTable"`
	MaxOrphans                    *int    `json:"maxOrphans"`
	OrphanExpirationInSeconds     *int64  `json:"orphanExpirationInSeconds"`
}

type overrideParamsConfig struct {
	BTC *overrideChainParamsConfig `json:"btc"`
	VBK *overrideChainParamsConfig `json:"vbk"`
	ALT *overrideChainParamsConfig `json:"alt"`
}

// ResolveNetwork sets ActiveNetParams according to the network flags. It
// returns an error if more than one network was selected.
func (networkFlags *NetworkFlags) ResolveNetwork() error {
	// Default net is main net
	networkFlags.ActiveNetParams = popconfig.MainnetParams()
	numNets := 0
	if networkFlags.Testnet {
		numNets++
		networkFlags.ActiveNetParams = popconfig.TestnetParams()
	}
	if networkFlags.Regtest {
		numNets++
		networkFlags.ActiveNetParams = popconfig.RegtestParams()
	}
	if numNets > 1 {
		return errors.New("Multiple networks parameters (testnet, regtest) cannot be used " +
			"together. Please choose only one network")
	}

	err := networkFlags.overrideParams()
	if err != nil {
		return err
	}
	return networkFlags.ActiveNetParams.Validate()
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *popconfig.Params {
	return networkFlags.ActiveNetParams
}

func (networkFlags *NetworkFlags) overrideParams() error {
	if networkFlags.OverrideParamsFile == "" {
		return nil
	}
	if !networkFlags.Regtest {
		return errors.Errorf("override-params-file is allowed only when using regtest")
	}

	overrideParamsFile, err := os.Open(networkFlags.OverrideParamsFile)
	if err != nil {
		return err
	}
	defer overrideParamsFile.Close()

	decoder := json.NewDecoder(overrideParamsFile)
	decoder.DisallowUnknownFields()
	config := &overrideParamsConfig{}
	err = decoder.Decode(config)
	if err != nil {
		return errors.Wrapf(err, "failed to parse %s", networkFlags.OverrideParamsFile)
	}

	params := networkFlags.ActiveNetParams
	config.BTC.apply(params.BTC)
	config.VBK.apply(params.VBK)
	config.ALT.apply(params.ALT)
	return nil
}

func (config *overrideChainParamsConfig) apply(params *popconfig.ChainParams) {
	if config == nil {
		return
	}
	if config.KeystoneInterval != nil {
		params.KeystoneInterval = *config.KeystoneInterval
	}
	if config.EndorsementSettlementInterval != nil {
		params.EndorsementSettlementInterval = *config.EndorsementSettlementInterval
	}
	if config.FinalityDelay != nil {
		params.FinalityDelay = *config.FinalityDelay
	}
	if config.ForkResolutionLookupTable != nil {
		params.ForkResolutionLookupTable = config.ForkResolutionLookupTable
	}
	if config.MaxOrphans != nil {
		params.MaxOrphans = *config.MaxOrphans
	}
	if config.OrphanExpirationInSeconds != nil {
		params.OrphanExpiration = time.Duration(*config.OrphanExpirationInSeconds) * time.Second
	}
}
