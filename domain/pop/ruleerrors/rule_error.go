package ruleerrors

import (
	"fmt"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/pkg/errors"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrMissingParent indicates a header points to a parent the tree
	// does not know.
	ErrMissingParent = newRuleError("ErrMissingParent")

	// ErrInvalidAncestorBlock indicates that a header extends a block that
	// was already marked invalid.
	ErrInvalidAncestorBlock = newRuleError("ErrInvalidAncestorBlock")

	// ErrBadHeader indicates the header validator rejected a header.
	ErrBadHeader = newRuleError("ErrBadHeader")

	// ErrUnknownBlock indicates an operation referenced a block hash the
	// tree does not know.
	ErrUnknownBlock = newRuleError("ErrUnknownBlock")

	// ErrInvalidBlock indicates an operation tried to apply a block that is
	// marked invalid.
	ErrInvalidBlock = newRuleError("ErrInvalidBlock")

	// ErrBlockNotConnected indicates that a block whose payloads were not
	// resolved yet was about to be applied.
	ErrBlockNotConnected = newRuleError("ErrBlockNotConnected")

	// ErrContainingBlockNotFound indicates that an endorsement references a
	// containing block that is unknown or not connected.
	ErrContainingBlockNotFound = newRuleError("ErrContainingBlockNotFound")

	// ErrExpiredEndorsement indicates that the distance between the
	// containing block and the endorsed block is bigger than the
	// endorsement settlement interval.
	ErrExpiredEndorsement = newRuleError("ErrExpiredEndorsement")

	// ErrEndorsedBlockOnWrongFork indicates that the ancestor of the
	// containing block at the endorsed height is not the endorsed block.
	ErrEndorsedBlockOnWrongFork = newRuleError("ErrEndorsedBlockOnWrongFork")

	// ErrDuplicateEndorsement indicates that an endorsement with the same id
	// is already contained within the settlement window.
	ErrDuplicateEndorsement = newRuleError("ErrDuplicateEndorsement")

	// ErrBlockOfProofNotFound indicates that the block of proof of an
	// endorsement is not known to the proving tree.
	ErrBlockOfProofNotFound = newRuleError("ErrBlockOfProofNotFound")

	// ErrBadContainingBlock indicates a payload claims to be contained in a
	// block other than the one carrying it.
	ErrBadContainingBlock = newRuleError("ErrBadContainingBlock")

	// ErrDuplicatePayload indicates a block carries the same payload twice.
	ErrDuplicatePayload = newRuleError("ErrDuplicatePayload")

	// ErrPayloadsAlreadyAccepted indicates payloads were submitted for a block
	// that is already connected.
	ErrPayloadsAlreadyAccepted = newRuleError("ErrPayloadsAlreadyAccepted")

	// ErrOrphanPoolFull indicates an orphan header could not be staged.
	ErrOrphanPoolFull = newRuleError("ErrOrphanPoolFull")
)

// RuleError identifies a rule violation. It is used to indicate that
// processing of a block or payload failed due to one of the many validation
// rules. The caller can use type assertions to determine if a failure was
// specifically due to a rule violation.
type RuleError struct {
	message string
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

// Reason returns the machine readable reason code of the rule error.
func (e RuleError) Reason() string {
	return e.message
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}

// ReasonOf returns the reason code of the rule error wrapped by err, if any.
func ReasonOf(err error) (string, bool) {
	ruleErr := RuleError{}
	if !errors.As(err, &ruleErr) {
		return "", false
	}
	return ruleErr.message, true
}

// IsRuleError returns whether err is, or wraps, a RuleError.
func IsRuleError(err error) bool {
	_, ok := ReasonOf(err)
	return ok
}

// ErrInvalidCommand indicates that one of the commands of a command group
// failed. It carries the group id and the failing command.
type ErrInvalidCommand struct {
	GroupID externalapi.DomainHash
	Command string
	Err     error
}

func (e ErrInvalidCommand) Error() string {
	return fmt.Sprintf("command %s of group %s failed: %s", e.Command, e.GroupID.Short(), e.Err)
}

// Unwrap satisfies the errors.Unwrap interface
func (e ErrInvalidCommand) Unwrap() error {
	return e.Err
}

// NewErrInvalidCommand creates a new ErrInvalidCommand error wrapped in a RuleError.
// The reason code of the returned error is the reason of the failed command.
func NewErrInvalidCommand(groupID *externalapi.DomainHash, command string, err error) error {
	reason, ok := ReasonOf(err)
	if !ok {
		reason = "ErrInvalidCommand"
	}
	return errors.WithStack(RuleError{
		message: reason,
		inner:   ErrInvalidCommand{GroupID: *groupID, Command: command, Err: err},
	})
}
