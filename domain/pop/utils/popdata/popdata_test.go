package popdata

import (
	"testing"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/utils/blockheader"
)

func TestPayloadIDsCommitToContent(t *testing.T) {
	endorsed := &externalapi.DomainHash{1}
	containing := &externalapi.DomainHash{2}
	proof := &externalapi.DomainHash{3}

	first := NewEndorsement(endorsed, 10, containing, proof)
	same := NewEndorsement(endorsed, 10, containing, proof)
	if first.ID != same.ID {
		t.Fatalf("TestPayloadIDsCommitToContent: equal endorsements got different ids")
	}
	otherHeight := NewEndorsement(endorsed, 11, containing, proof)
	if first.ID == otherHeight.ID {
		t.Fatalf("TestPayloadIDsCommitToContent: endorsed height is not part of the id")
	}

	context := []externalapi.BlockHeader{
		blockheader.NewImmutableBlockHeader(1, proof, &externalapi.DomainHash{}, 0, 1, 0),
	}
	vtb := NewVTB(first, context)
	atv := NewATV(first, context)
	if vtb.ID == atv.ID {
		t.Fatalf("TestPayloadIDsCommitToContent: a VTB and an ATV over the same content share an id")
	}
	if NewVTB(first, nil).ID == vtb.ID {
		t.Fatalf("TestPayloadIDsCommitToContent: VTB context is not part of the id")
	}
}
