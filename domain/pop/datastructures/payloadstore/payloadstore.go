package payloadstore

import (
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
)

// payloadStore keeps the PopData of every ALT block whose payloads were
// accepted, and indexes its payloads by id and by endorsed block.
type payloadStore struct {
	popData          map[externalapi.DomainHash]*externalapi.PopData
	vtbs             map[externalapi.DomainHash]*externalapi.VTB
	atvs             map[externalapi.DomainHash]*externalapi.ATV
	containingBlocks map[externalapi.DomainHash][]externalapi.DomainHash
	atvsByEndorsed   map[externalapi.DomainHash][]externalapi.DomainHash
}

// New instantiates a new, empty, PayloadStore
func New() model.PayloadStore {
	return &payloadStore{
		popData:          make(map[externalapi.DomainHash]*externalapi.PopData),
		vtbs:             make(map[externalapi.DomainHash]*externalapi.VTB),
		atvs:             make(map[externalapi.DomainHash]*externalapi.ATV),
		containingBlocks: make(map[externalapi.DomainHash][]externalapi.DomainHash),
		atvsByEndorsed:   make(map[externalapi.DomainHash][]externalapi.DomainHash),
	}
}

// Stage stores the PopData of the given block, replacing whatever was stored
// for it before.
func (ps *payloadStore) Stage(blockHash *externalapi.DomainHash, popData *externalapi.PopData) {
	if _, ok := ps.popData[*blockHash]; ok {
		ps.Delete(blockHash)
	}
	ps.popData[*blockHash] = popData

	for _, vtb := range popData.VTBs {
		ps.vtbs[vtb.ID] = vtb
		ps.addContainingBlock(&vtb.ID, blockHash)
	}
	for _, atv := range popData.ATVs {
		if _, ok := ps.atvs[atv.ID]; !ok {
			endorsed := atv.Endorsement.EndorsedHash
			ps.atvsByEndorsed[endorsed] = append(ps.atvsByEndorsed[endorsed], atv.ID)
		}
		ps.atvs[atv.ID] = atv
		ps.addContainingBlock(&atv.ID, blockHash)
	}
	for _, header := range popData.VBKBlocks {
		ps.addContainingBlock(header.Hash(), blockHash)
	}
}

// Delete removes the PopData of the given block. Payloads no other block
// carries are dropped from the indexes.
func (ps *payloadStore) Delete(blockHash *externalapi.DomainHash) {
	popData, ok := ps.popData[*blockHash]
	if !ok {
		return
	}
	delete(ps.popData, *blockHash)

	for _, vtb := range popData.VTBs {
		if ps.removeContainingBlock(&vtb.ID, blockHash) {
			delete(ps.vtbs, vtb.ID)
		}
	}
	for _, atv := range popData.ATVs {
		if ps.removeContainingBlock(&atv.ID, blockHash) {
			delete(ps.atvs, atv.ID)
			ps.removeEndorsing(&atv.Endorsement.EndorsedHash, &atv.ID)
		}
	}
	for _, header := range popData.VBKBlocks {
		ps.removeContainingBlock(header.Hash(), blockHash)
	}
}

// PopData returns the PopData of the given block.
func (ps *payloadStore) PopData(blockHash *externalapi.DomainHash) (*externalapi.PopData, bool) {
	popData, ok := ps.popData[*blockHash]
	return popData, ok
}

func (ps *payloadStore) VTB(id *externalapi.DomainHash) (*externalapi.VTB, bool) {
	vtb, ok := ps.vtbs[*id]
	return vtb, ok
}

func (ps *payloadStore) ATV(id *externalapi.DomainHash) (*externalapi.ATV, bool) {
	atv, ok := ps.atvs[*id]
	return atv, ok
}

// ContainingBlocks returns the hashes of the ALT blocks carrying the given
// payload or VBK block.
func (ps *payloadStore) ContainingBlocks(payloadID *externalapi.DomainHash) []externalapi.DomainHash {
	blocks := ps.containingBlocks[*payloadID]
	result := make([]externalapi.DomainHash, len(blocks))
	copy(result, blocks)
	return result
}

// ATVsEndorsing returns the ATVs endorsing the given ALT block, in the order
// they were first staged.
func (ps *payloadStore) ATVsEndorsing(endorsedHash *externalapi.DomainHash) []*externalapi.ATV {
	ids := ps.atvsByEndorsed[*endorsedHash]
	atvs := make([]*externalapi.ATV, 0, len(ids))
	for _, id := range ids {
		atvs = append(atvs, ps.atvs[id])
	}
	return atvs
}

func (ps *payloadStore) addContainingBlock(id *externalapi.DomainHash, blockHash *externalapi.DomainHash) {
	for _, existing := range ps.containingBlocks[*id] {
		if existing == *blockHash {
			return
		}
	}
	ps.containingBlocks[*id] = append(ps.containingBlocks[*id], *blockHash)
}

// removeContainingBlock returns true if no block carries id anymore.
func (ps *payloadStore) removeContainingBlock(id *externalapi.DomainHash, blockHash *externalapi.DomainHash) bool {
	blocks := ps.containingBlocks[*id]
	for i, existing := range blocks {
		if existing == *blockHash {
			blocks = append(blocks[:i], blocks[i+1:]...)
			break
		}
	}
	if len(blocks) == 0 {
		delete(ps.containingBlocks, *id)
		return true
	}
	ps.containingBlocks[*id] = blocks
	return false
}

func (ps *payloadStore) removeEndorsing(endorsedHash *externalapi.DomainHash, id *externalapi.DomainHash) {
	ids := ps.atvsByEndorsed[*endorsedHash]
	for i, existing := range ids {
		if existing == *id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(ps.atvsByEndorsed, *endorsedHash)
		return
	}
	ps.atvsByEndorsed[*endorsedHash] = ids
}
