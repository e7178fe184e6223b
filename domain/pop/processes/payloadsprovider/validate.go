package payloadsprovider

import (
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/ruleerrors"
	"github.com/pkg/errors"
)

// ValidatePopData runs the checks on the PopData of the ALT block blockHash
// that don't depend on any tree: every ATV must be contained in blockHash and
// no payload may appear twice.
func ValidatePopData(blockHash *externalapi.DomainHash, popData *externalapi.PopData) error {
	for _, atv := range popData.ATVs {
		if !atv.Endorsement.ContainingHash.Equal(blockHash) {
			return errors.Wrapf(ruleerrors.ErrBadContainingBlock, "ATV %s claims to be contained in %s, not in %s",
				atv.ID, atv.Endorsement.ContainingHash, blockHash)
		}
	}

	seen := make(map[externalapi.DomainHash]struct{})
	for _, header := range popData.VBKBlocks {
		err := checkUnique(seen, header.Hash(), "VBK block")
		if err != nil {
			return err
		}
	}
	for _, vtb := range popData.VTBs {
		err := checkUnique(seen, &vtb.ID, "VTB")
		if err != nil {
			return err
		}
	}
	for _, atv := range popData.ATVs {
		err := checkUnique(seen, &atv.ID, "ATV")
		if err != nil {
			return err
		}
	}
	return nil
}

func checkUnique(seen map[externalapi.DomainHash]struct{}, id *externalapi.DomainHash, kind string) error {
	if _, ok := seen[*id]; ok {
		return errors.Wrapf(ruleerrors.ErrDuplicatePayload, "%s %s appears twice", kind, id)
	}
	seen[*id] = struct{}{}
	return nil
}
