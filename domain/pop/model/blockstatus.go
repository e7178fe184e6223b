package model

import "strings"

// BlockStatus is a bit field representing the validation state of a block.
type BlockStatus uint16

const (
	// StatusFailedBlock indicates that the block itself failed validation.
	StatusFailedBlock BlockStatus = 1 << iota

	// StatusFailedPop indicates that applying the payloads of the block failed.
	StatusFailedPop

	// StatusFailedChild indicates that one of the block's ancestors is invalid,
	// thus the block is also invalid.
	StatusFailedChild

	// StatusHeaderKnown indicates the block header was accepted into the tree.
	StatusHeaderKnown

	// StatusConnected indicates that the block and all of its ancestors have
	// their payloads resolved, so the block can be applied.
	StatusConnected

	// StatusHasPayloads indicates the block carries payloads.
	StatusHasPayloads

	// StatusActive indicates the block is part of the applied (active) chain.
	StatusActive

	// StatusBootstrap indicates the block is the root of the tree or part of
	// the chain it was bootstrapped with.
	StatusBootstrap

	// StatusCanBeApplied indicates the block was applied on top of a fully
	// applied prefix.
	StatusCanBeApplied

	// StatusCanBeAppliedMaybeWithOtherChain indicates the block was applied,
	// but its validity may depend on which fork wins.
	StatusCanBeAppliedMaybeWithOtherChain

	// StatusDeleted indicates the block was removed from the tree. A deleted
	// block is only reachable through handles held by commands.
	StatusDeleted
)

// StatusFailedMask is the set of all invalidity reasons.
const StatusFailedMask = StatusFailedBlock | StatusFailedPop | StatusFailedChild

var blockStatusStrings = []struct {
	flag BlockStatus
	name string
}{
	{StatusFailedBlock, "FailedBlock"},
	{StatusFailedPop, "FailedPop"},
	{StatusFailedChild, "FailedChild"},
	{StatusHeaderKnown, "HeaderKnown"},
	{StatusConnected, "Connected"},
	{StatusHasPayloads, "HasPayloads"},
	{StatusActive, "Active"},
	{StatusBootstrap, "Bootstrap"},
	{StatusCanBeApplied, "CanBeApplied"},
	{StatusCanBeAppliedMaybeWithOtherChain, "CanBeAppliedMaybeWithOtherChain"},
	{StatusDeleted, "Deleted"},
}

// KnownFlags returns true if all of the given flags are set.
func (status BlockStatus) KnownFlags(flags BlockStatus) bool {
	return status&flags == flags
}

// IsValid returns true if no invalidity reason is set.
func (status BlockStatus) IsValid() bool {
	return status&StatusFailedMask == 0
}

// IsValidityReason returns true if reason is exactly one of the invalidity flags.
func (status BlockStatus) IsValidityReason() bool {
	return status == StatusFailedBlock || status == StatusFailedPop || status == StatusFailedChild
}

func (status BlockStatus) String() string {
	if status == 0 {
		return "None"
	}
	names := make([]string, 0, len(blockStatusStrings))
	for _, flagName := range blockStatusStrings {
		if status&flagName.flag != 0 {
			names = append(names, flagName.name)
		}
	}
	return strings.Join(names, "|")
}
