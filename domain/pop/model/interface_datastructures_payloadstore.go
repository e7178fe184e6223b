package model

import "github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"

// PayloadStore holds the PopData of ALT blocks and indexes its payloads.
type PayloadStore interface {
	Stage(blockHash *externalapi.DomainHash, popData *externalapi.PopData)
	Delete(blockHash *externalapi.DomainHash)
	PopData(blockHash *externalapi.DomainHash) (*externalapi.PopData, bool)
	VTB(id *externalapi.DomainHash) (*externalapi.VTB, bool)
	ATV(id *externalapi.DomainHash) (*externalapi.ATV, bool)
	ContainingBlocks(payloadID *externalapi.DomainHash) []externalapi.DomainHash
	ATVsEndorsing(endorsedHash *externalapi.DomainHash) []*externalapi.ATV
}
