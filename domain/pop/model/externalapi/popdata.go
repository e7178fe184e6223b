package externalapi

// VTB proves a VBK block was published in BTC. Its endorsement is contained
// in a VBK block and proven by a BTC block. BTCContext holds the BTC headers
// leading up to and including the block of proof.
type VTB struct {
	ID          DomainHash
	Endorsement *Endorsement
	BTCContext  []BlockHeader
}

// ATV proves an ALT block was published in VBK. Its endorsement is contained
// in an ALT block and proven by a VBK block. VBKContext holds the VBK headers
// leading up to and including the block of proof.
type ATV struct {
	ID          DomainHash
	Endorsement *Endorsement
	VBKContext  []BlockHeader
}

// PopData is the set of proof-of-proof payloads carried by a single ALT block.
// Payloads are applied in this order: VBK blocks, VTBs, ATVs.
type PopData struct {
	VBKBlocks []BlockHeader
	VTBs      []*VTB
	ATVs      []*ATV
}

// IsEmpty returns true if pd carries no payloads.
func (pd *PopData) IsEmpty() bool {
	return pd == nil || (len(pd.VBKBlocks) == 0 && len(pd.VTBs) == 0 && len(pd.ATVs) == 0)
}

// PayloadIDs returns the ids of every payload in pd, in application order.
func (pd *PopData) PayloadIDs() []DomainHash {
	if pd == nil {
		return nil
	}
	ids := make([]DomainHash, 0, len(pd.VBKBlocks)+len(pd.VTBs)+len(pd.ATVs))
	for _, header := range pd.VBKBlocks {
		ids = append(ids, *header.Hash())
	}
	for _, vtb := range pd.VTBs {
		ids = append(ids, vtb.ID)
	}
	for _, atv := range pd.ATVs {
		ids = append(ids, atv.ID)
	}
	return ids
}
