package forkresolution

import "github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"

// NoOpStrategy never switches the active chain. It is used by trees whose
// active chain is only moved explicitly.
type NoOpStrategy struct{}

// ShouldSwitch always returns false.
func (NoOpStrategy) ShouldSwitch(current *model.BlockIndex, candidate *model.BlockIndex) bool {
	return false
}

// ChainWorkStrategy switches to candidates with strictly more accumulated work.
type ChainWorkStrategy struct{}

// ShouldSwitch returns true if candidate has more chain work than current.
func (ChainWorkStrategy) ShouldSwitch(current *model.BlockIndex, candidate *model.BlockIndex) bool {
	return candidate.ChainWork().Cmp(current.ChainWork()) > 0
}

// TieBreaker decides between two chains with an equal proof-of-proof score.
type TieBreaker func(current *model.BlockIndex, candidate *model.BlockIndex) bool

// ChainWorkTieBreaker prefers the chain with more accumulated work.
func ChainWorkTieBreaker(current *model.BlockIndex, candidate *model.BlockIndex) bool {
	return ChainWorkStrategy{}.ShouldSwitch(current, candidate)
}

// ExtendingTieBreaker keeps the current chain unless candidate extends it.
func ExtendingTieBreaker(current *model.BlockIndex, candidate *model.BlockIndex) bool {
	return current.IsAncestorOf(candidate)
}

// PopStrategy switches to candidates with a better proof-of-proof score.
// Ties are resolved by tieBreaker.
type PopStrategy struct {
	comparator *Comparator
	tieBreaker TieBreaker
}

// NewPopStrategy returns a PopStrategy scoring chains with comparator.
func NewPopStrategy(comparator *Comparator, tieBreaker TieBreaker) *PopStrategy {
	return &PopStrategy{comparator: comparator, tieBreaker: tieBreaker}
}

// ShouldSwitch returns true if candidate scores better than current, or if it
// scores the same and the tie breaker prefers it.
func (s *PopStrategy) ShouldSwitch(current *model.BlockIndex, candidate *model.BlockIndex) bool {
	result := s.comparator.ComparePopScore(candidate, current)
	switch {
	case result > 0:
		return true
	case result < 0:
		return false
	default:
		return s.tieBreaker(current, candidate)
	}
}
