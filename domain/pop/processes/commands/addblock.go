package commands

import (
	"fmt"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/pkg/errors"
)

type addBlock struct {
	tree     model.BlockTree
	header   externalapi.BlockHeader
	handle   model.Handle
	executed bool
}

// NewAddBlock returns a command that references header in tree, accepting it
// first if it is unknown.
func NewAddBlock(tree model.BlockTree, header externalapi.BlockHeader) model.Command {
	return &addBlock{tree: tree, header: header, handle: model.NoHandle}
}

func (c *addBlock) Execute() error {
	if c.executed {
		panic(errors.Errorf("%s was already executed", c))
	}
	index, err := c.tree.AcceptBlockHeader(c.header)
	if err != nil {
		return err
	}
	index.AddRef()
	c.handle = index.Handle()
	c.executed = true
	return nil
}

func (c *addBlock) Unexecute() {
	if !c.executed {
		panic(errors.Errorf("%s was never executed", c))
	}
	index := c.tree.GetBlockIndexByHandle(c.handle)
	if index == nil {
		panic(errors.Errorf("%s references a block that no longer exists", c))
	}
	c.executed = false

	index.RemoveRef()
	if index.RefCount() == 0 && !index.IsDeleted() && !index.IsBootstrap() {
		c.tree.RemoveLeaf(index)
	}
}

func (c *addBlock) String() string {
	return fmt.Sprintf("AddBlock{%s %s}", c.tree.Name(), c.header.Hash().Short())
}
