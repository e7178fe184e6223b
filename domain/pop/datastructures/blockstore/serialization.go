package blockstore

import (
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/utils/blockheader"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/utils/popdata"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of a stored block row.
const (
	blockHeightField      protowire.Number = 1
	blockHeaderField      protowire.Number = 2
	blockStatusField      protowire.Number = 3
	blockRefCountField    protowire.Number = 4
	blockPayloadIDField   protowire.Number = 5
	blockPopDataField     protowire.Number = 6
	headerVersionField    protowire.Number = 1
	headerPrevHashField   protowire.Number = 2
	headerMerkleField     protowire.Number = 3
	headerTimeField       protowire.Number = 4
	headerDifficultyField protowire.Number = 5
	headerNonceField      protowire.Number = 6
	popDataVBKBlockField  protowire.Number = 1
	popDataVTBField       protowire.Number = 2
	popDataATVField       protowire.Number = 3
	payloadIDField        protowire.Number = 1
	payloadEndorseField   protowire.Number = 2
	payloadContextField   protowire.Number = 3
	endorsedHashField     protowire.Number = 1
	endorsedHeightField   protowire.Number = 2
	containingHashField   protowire.Number = 3
	blockOfProofField     protowire.Number = 4
)

func serializeStoredBlock(block *model.StoredBlock) []byte {
	var b []byte
	b = appendVarint(b, blockHeightField, uint64(block.Height))
	b = appendMessage(b, blockHeaderField, serializeHeader(block.Header))
	b = appendVarint(b, blockStatusField, uint64(block.Status))
	b = appendVarint(b, blockRefCountField, uint64(block.RefCount))
	for i := range block.PayloadIDs {
		b = appendBytes(b, blockPayloadIDField, block.PayloadIDs[i].ByteSlice())
	}
	if block.PopData != nil {
		b = appendMessage(b, blockPopDataField, serializePopData(block.PopData))
	}
	return b
}

func deserializeStoredBlock(b []byte) (*model.StoredBlock, error) {
	block := &model.StoredBlock{}
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case blockHeightField:
			value, n, err := consumeVarint(typ, b)
			block.Height = int32(value)
			return n, err
		case blockHeaderField:
			value, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			block.Header, err = deserializeHeader(value)
			return n, err
		case blockStatusField:
			value, n, err := consumeVarint(typ, b)
			block.Status = model.BlockStatus(value)
			return n, err
		case blockRefCountField:
			value, n, err := consumeVarint(typ, b)
			block.RefCount = int(value)
			return n, err
		case blockPayloadIDField:
			value, n, err := consumeHash(typ, b)
			if err != nil {
				return 0, err
			}
			block.PayloadIDs = append(block.PayloadIDs, *value)
			return n, nil
		case blockPopDataField:
			value, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			block.PopData, err = deserializePopData(value)
			return n, err
		}
		return skipField(num, typ, b)
	})
	if err != nil {
		return nil, err
	}
	if block.Header == nil {
		return nil, errors.New("block row has no header")
	}
	return block, nil
}

func serializeHeader(header externalapi.BlockHeader) []byte {
	var b []byte
	b = appendVarint(b, headerVersionField, uint64(header.Version()))
	b = appendBytes(b, headerPrevHashField, header.PreviousHash().ByteSlice())
	b = appendBytes(b, headerMerkleField, header.MerkleRoot().ByteSlice())
	b = appendVarint(b, headerTimeField, protowire.EncodeZigZag(header.TimeInSeconds()))
	b = appendVarint(b, headerDifficultyField, header.Difficulty())
	b = appendVarint(b, headerNonceField, header.Nonce())
	return b
}

func deserializeHeader(b []byte) (externalapi.BlockHeader, error) {
	var version uint16
	var timeInSeconds int64
	var difficulty, nonce uint64
	prevHash := &externalapi.DomainHash{}
	merkleRoot := &externalapi.DomainHash{}
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		var value uint64
		switch num {
		case headerVersionField:
			value, n, err = consumeVarint(typ, b)
			version = uint16(value)
		case headerPrevHashField:
			prevHash, n, err = consumeHash(typ, b)
		case headerMerkleField:
			merkleRoot, n, err = consumeHash(typ, b)
		case headerTimeField:
			value, n, err = consumeVarint(typ, b)
			timeInSeconds = protowire.DecodeZigZag(value)
		case headerDifficultyField:
			difficulty, n, err = consumeVarint(typ, b)
		case headerNonceField:
			nonce, n, err = consumeVarint(typ, b)
		default:
			return skipField(num, typ, b)
		}
		return n, err
	})
	if err != nil {
		return nil, err
	}
	return blockheader.NewImmutableBlockHeader(version, prevHash, merkleRoot, timeInSeconds, difficulty, nonce), nil
}

func serializePopData(popData *externalapi.PopData) []byte {
	var b []byte
	for _, header := range popData.VBKBlocks {
		b = appendMessage(b, popDataVBKBlockField, serializeHeader(header))
	}
	for _, vtb := range popData.VTBs {
		b = appendMessage(b, popDataVTBField, serializePayload(&vtb.ID, vtb.Endorsement, vtb.BTCContext))
	}
	for _, atv := range popData.ATVs {
		b = appendMessage(b, popDataATVField, serializePayload(&atv.ID, atv.Endorsement, atv.VBKContext))
	}
	return b
}

func deserializePopData(b []byte) (*externalapi.PopData, error) {
	popData := &externalapi.PopData{}
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != popDataVBKBlockField && num != popDataVTBField && num != popDataATVField {
			return skipField(num, typ, b)
		}
		value, n, err := consumeBytes(typ, b)
		if err != nil {
			return 0, err
		}

		if num == popDataVBKBlockField {
			header, err := deserializeHeader(value)
			if err != nil {
				return 0, err
			}
			popData.VBKBlocks = append(popData.VBKBlocks, header)
			return n, nil
		}

		id, endorsement, context, err := deserializePayload(value)
		if err != nil {
			return 0, err
		}
		if num == popDataVTBField {
			vtb := popdata.NewVTB(endorsement, context)
			if !vtb.ID.Equal(id) {
				return 0, errors.Errorf("stored VTB %s rebuilds to %s", id, vtb.ID)
			}
			popData.VTBs = append(popData.VTBs, vtb)
			return n, nil
		}
		atv := popdata.NewATV(endorsement, context)
		if !atv.ID.Equal(id) {
			return 0, errors.Errorf("stored ATV %s rebuilds to %s", id, atv.ID)
		}
		popData.ATVs = append(popData.ATVs, atv)
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	return popData, nil
}

func serializePayload(id *externalapi.DomainHash, endorsement *externalapi.Endorsement,
	context []externalapi.BlockHeader) []byte {

	var b []byte
	b = appendBytes(b, payloadIDField, id.ByteSlice())
	b = appendMessage(b, payloadEndorseField, serializeEndorsement(endorsement))
	for _, header := range context {
		b = appendMessage(b, payloadContextField, serializeHeader(header))
	}
	return b
}

func deserializePayload(b []byte) (*externalapi.DomainHash, *externalapi.Endorsement,
	[]externalapi.BlockHeader, error) {

	var id *externalapi.DomainHash
	var endorsement *externalapi.Endorsement
	var context []externalapi.BlockHeader
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case payloadIDField:
			var n int
			var err error
			id, n, err = consumeHash(typ, b)
			return n, err
		case payloadEndorseField:
			value, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			endorsement, err = deserializeEndorsement(value)
			return n, err
		case payloadContextField:
			value, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			header, err := deserializeHeader(value)
			if err != nil {
				return 0, err
			}
			context = append(context, header)
			return n, nil
		}
		return skipField(num, typ, b)
	})
	if err != nil {
		return nil, nil, nil, err
	}
	if id == nil || endorsement == nil {
		return nil, nil, nil, errors.New("payload row misses its id or endorsement")
	}
	return id, endorsement, context, nil
}

// serializeEndorsement stores the content of an endorsement. Its id is derived
// from the content again when it is loaded.
func serializeEndorsement(endorsement *externalapi.Endorsement) []byte {
	var b []byte
	b = appendBytes(b, endorsedHashField, endorsement.EndorsedHash.ByteSlice())
	b = appendVarint(b, endorsedHeightField, protowire.EncodeZigZag(int64(endorsement.EndorsedHeight)))
	b = appendBytes(b, containingHashField, endorsement.ContainingHash.ByteSlice())
	b = appendBytes(b, blockOfProofField, endorsement.BlockOfProof.ByteSlice())
	return b
}

func deserializeEndorsement(b []byte) (*externalapi.Endorsement, error) {
	endorsedHash := &externalapi.DomainHash{}
	containingHash := &externalapi.DomainHash{}
	blockOfProof := &externalapi.DomainHash{}
	var endorsedHeight int32
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch num {
		case endorsedHashField:
			endorsedHash, n, err = consumeHash(typ, b)
		case endorsedHeightField:
			var value uint64
			value, n, err = consumeVarint(typ, b)
			endorsedHeight = int32(protowire.DecodeZigZag(value))
		case containingHashField:
			containingHash, n, err = consumeHash(typ, b)
		case blockOfProofField:
			blockOfProof, n, err = consumeHash(typ, b)
		default:
			return skipField(num, typ, b)
		}
		return n, err
	})
	if err != nil {
		return nil, err
	}
	return popdata.NewEndorsement(endorsedHash, endorsedHeight, containingHash, blockOfProof), nil
}

func appendVarint(b []byte, num protowire.Number, value uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, value)
}

func appendBytes(b []byte, num protowire.Number, value []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, value)
}

func appendMessage(b []byte, num protowire.Number, message []byte) []byte {
	return appendBytes(b, num, message)
}

// consumeFields calls handleField for every field of the message b. The
// handler returns the length of the field value it consumed.
func consumeFields(b []byte,
	handleField func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "malformed field tag")
		}
		b = b[n:]
		n, err := handleField(num, typ, b)
		if err != nil {
			return errors.Wrapf(err, "malformed field %d", num)
		}
		b = b[n:]
	}
	return nil
}

func consumeVarint(typ protowire.Type, b []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, errors.Errorf("expected a varint, got wire type %d", typ)
	}
	value, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return value, n, nil
}

func consumeBytes(typ protowire.Type, b []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, errors.Errorf("expected bytes, got wire type %d", typ)
	}
	value, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	return value, n, nil
}

func consumeHash(typ protowire.Type, b []byte) (*externalapi.DomainHash, int, error) {
	value, n, err := consumeBytes(typ, b)
	if err != nil {
		return nil, 0, err
	}
	hash, err := externalapi.NewDomainHashFromByteSlice(value)
	if err != nil {
		return nil, 0, err
	}
	return hash, n, nil
}

func skipField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, nil
}
