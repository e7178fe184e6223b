package testutils

import (
	"testing"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/popconfig"
)

// ForAllNets runs the passed testFunc with the params of every network.
func ForAllNets(t *testing.T, testFunc func(*testing.T, *popconfig.Params)) {
	allParams := []*popconfig.Params{
		popconfig.MainnetParams(),
		popconfig.TestnetParams(),
		popconfig.RegtestParams(),
	}

	for _, params := range allParams {
		params := params
		t.Run(params.Name, func(t *testing.T) {
			t.Parallel()
			testFunc(t, params)
		})
	}
}
