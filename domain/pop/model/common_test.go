package model

import (
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/utils/blockheader"
)

func newTestHeader(prevHash *externalapi.DomainHash, nonce uint64) externalapi.BlockHeader {
	return blockheader.NewImmutableBlockHeader(1, prevHash, &externalapi.DomainHash{}, 0, 1, nonce)
}

// buildChain allocates a linear chain of length blocks in arena.
func buildChain(arena *Arena, length int, nonce uint64) []*BlockIndex {
	blocks := make([]*BlockIndex, length)
	var parent *BlockIndex
	prevHash := &externalapi.DomainHash{}
	for i := 0; i < length; i++ {
		header := newTestHeader(prevHash, nonce+uint64(i))
		blocks[i] = arena.Allocate(header, int32(i), parent)
		parent = blocks[i]
		prevHash = header.Hash()
	}
	return blocks
}
