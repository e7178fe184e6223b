package commands

import (
	"fmt"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/ruleerrors"
	"github.com/pkg/errors"
)

// Group is the ordered list of commands produced by one payload. It executes
// all of its commands or none of them.
type Group struct {
	id       externalapi.DomainHash
	commands []model.Command
	executed bool
}

// NewGroup returns a group executing commands in order.
func NewGroup(id *externalapi.DomainHash, commands []model.Command) *Group {
	return &Group{id: *id, commands: commands}
}

// ID returns the id of the payload the group was built from.
func (g *Group) ID() *externalapi.DomainHash {
	id := g.id
	return &id
}

// Len returns the number of commands in the group.
func (g *Group) Len() int {
	return len(g.commands)
}

// Execute executes the commands in order. If one fails, the ones executed
// before it are unexecuted in reverse order.
func (g *Group) Execute() error {
	if g.executed {
		panic(errors.Errorf("group %s was already executed", g.id.Short()))
	}
	failed, err := executeAll(g.commands)
	if err != nil {
		if !ruleerrors.IsRuleError(err) {
			return errors.Wrapf(err, "command %s of group %s failed", failed, g.id.Short())
		}
		return ruleerrors.NewErrInvalidCommand(&g.id, failed.String(), err)
	}
	g.executed = true
	return nil
}

// Unexecute unexecutes the commands in reverse order.
func (g *Group) Unexecute() {
	if !g.executed {
		panic(errors.Errorf("group %s was never executed", g.id.Short()))
	}
	unexecuteAll(g.commands)
	g.executed = false
}

func (g *Group) String() string {
	return fmt.Sprintf("Group{id=%s, commands=%d}", g.id.Short(), len(g.commands))
}

// executeAll executes commands in order and rolls back on the first failure.
// It returns the failed command along with its error.
func executeAll(commands []model.Command) (model.Command, error) {
	for i, command := range commands {
		err := command.Execute()
		if err != nil {
			log.Debugf("%s failed: %s", command, err)
			for j := i - 1; j >= 0; j-- {
				commands[j].Unexecute()
			}
			return command, err
		}
	}
	return nil, nil
}

func unexecuteAll(commands []model.Command) {
	for i := len(commands) - 1; i >= 0; i-- {
		commands[i].Unexecute()
	}
}
