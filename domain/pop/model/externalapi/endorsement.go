package externalapi

import "fmt"

// Endorsement is a statement, embedded in a containing block, that an
// endorsed block existed at EndorsedHeight. The statement is proven by
// BlockOfProof, a block of the proving chain.
type Endorsement struct {
	ID             DomainHash
	EndorsedHash   DomainHash
	EndorsedHeight int32
	ContainingHash DomainHash
	BlockOfProof   DomainHash
}

// Clone returns a clone of Endorsement
func (e *Endorsement) Clone() *Endorsement {
	clone := *e
	return &clone
}

// Equal returns whether e equals to other
func (e *Endorsement) Equal(other *Endorsement) bool {
	if e == nil || other == nil {
		return e == other
	}
	return *e == *other
}

func (e *Endorsement) String() string {
	return fmt.Sprintf("Endorsement{id=%s, endorsed=%s@%d, containing=%s, proof=%s}",
		e.ID.Short(), e.EndorsedHash.Short(), e.EndorsedHeight, e.ContainingHash.Short(), e.BlockOfProof.Short())
}
