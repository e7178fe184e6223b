package commands

import (
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
)

// NewVBKBlockGroup returns the group adding a VBK block carried as a payload.
func NewVBKBlockGroup(vbkTree model.BlockTree, header externalapi.BlockHeader) *Group {
	return NewGroup(header.Hash(), []model.Command{NewAddBlock(vbkTree, header)})
}

// NewVTBGroup returns the group applying a VTB.
func NewVTBGroup(btcTree model.BlockTree, vbkTree model.BlockTree, vtb *externalapi.VTB,
	settlementInterval int32) *Group {

	return NewGroup(&vtb.ID, []model.Command{NewAddVTB(btcTree, vbkTree, vtb, settlementInterval)})
}

// NewATVGroup returns the group applying an ATV: its VBK context is added to
// vbkTree and its endorsement is attached in altTree with the proof in vbkTree.
func NewATVGroup(vbkTree model.BlockTree, altTree model.BlockTree, atv *externalapi.ATV,
	settlementInterval int32) *Group {

	commands := make([]model.Command, 0, len(atv.VBKContext)+1)
	for _, header := range atv.VBKContext {
		commands = append(commands, NewAddBlock(vbkTree, header))
	}
	commands = append(commands, NewAddEndorsement(altTree, vbkTree, atv.Endorsement, settlementInterval))
	return NewGroup(&atv.ID, commands)
}
