package testutils

import (
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/utils/blockheader"
)

// NewHeader returns a header with unit difficulty on top of prevHash. The
// nonce tells apart siblings.
func NewHeader(prevHash *externalapi.DomainHash, nonce uint64) externalapi.BlockHeader {
	return NewHeaderWithDifficulty(prevHash, 1, nonce)
}

// NewHeaderWithDifficulty returns a header on top of prevHash with the given
// difficulty.
func NewHeaderWithDifficulty(prevHash *externalapi.DomainHash, difficulty uint64,
	nonce uint64) externalapi.BlockHeader {

	return blockheader.NewImmutableBlockHeader(1, prevHash, &externalapi.DomainHash{}, 0, difficulty, nonce)
}

// NewGenesisHeader returns a header with no parent.
func NewGenesisHeader(nonce uint64) externalapi.BlockHeader {
	return NewHeader(&externalapi.DomainHash{}, nonce)
}

// ChainHeaders returns length headers extending prev one after the other.
func ChainHeaders(prev externalapi.BlockHeader, length int, nonce uint64) []externalapi.BlockHeader {
	headers := make([]externalapi.BlockHeader, length)
	prevHash := prev.Hash()
	for i := range headers {
		headers[i] = NewHeader(prevHash, nonce+uint64(i))
		prevHash = headers[i].Hash()
	}
	return headers
}
