package popdata

import (
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/utils/hashes"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/utils/serialization"
	"github.com/pkg/errors"
)

const (
	vtbPayloadType uint8 = 1
	atvPayloadType uint8 = 2
)

// NewEndorsement builds an endorsement and derives its id from its content.
func NewEndorsement(endorsedHash *externalapi.DomainHash, endorsedHeight int32,
	containingHash *externalapi.DomainHash, blockOfProof *externalapi.DomainHash) *externalapi.Endorsement {

	writer := hashes.NewEndorsementIDWriter()
	err := serialization.WriteElements(writer, endorsedHash, endorsedHeight, containingHash, blockOfProof)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. Hash digest should never return an error"))
	}
	return &externalapi.Endorsement{
		ID:             *writer.Finalize(),
		EndorsedHash:   *endorsedHash,
		EndorsedHeight: endorsedHeight,
		ContainingHash: *containingHash,
		BlockOfProof:   *blockOfProof,
	}
}

// NewVTB builds a VTB whose id commits to its endorsement and BTC context.
func NewVTB(endorsement *externalapi.Endorsement, btcContext []externalapi.BlockHeader) *externalapi.VTB {
	return &externalapi.VTB{
		ID:          *payloadID(vtbPayloadType, endorsement, btcContext),
		Endorsement: endorsement,
		BTCContext:  btcContext,
	}
}

// NewATV builds an ATV whose id commits to its endorsement and VBK context.
func NewATV(endorsement *externalapi.Endorsement, vbkContext []externalapi.BlockHeader) *externalapi.ATV {
	return &externalapi.ATV{
		ID:          *payloadID(atvPayloadType, endorsement, vbkContext),
		Endorsement: endorsement,
		VBKContext:  vbkContext,
	}
}

func payloadID(payloadType uint8, endorsement *externalapi.Endorsement,
	context []externalapi.BlockHeader) *externalapi.DomainHash {

	writer := hashes.NewPayloadIDWriter()
	err := serialization.WriteElements(writer, payloadType, &endorsement.ID, uint64(len(context)))
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. Hash digest should never return an error"))
	}
	for _, header := range context {
		err = serialization.WriteElement(writer, header.Hash())
		if err != nil {
			panic(errors.Wrap(err, "this should never happen. Hash digest should never return an error"))
		}
	}
	return writer.Finalize()
}
