package mint

import (
	"errors"
	"strings"
)

// Error taxonomy for a mint attempt. Every failure is terminal for the
// attempt; nothing partial is left on-chain because the chain write is
// the last step.
var (
	// ErrValidation covers bad name or tier input. Surfaced as inline
	// form feedback, never reaches the chain.
	ErrValidation = errors.New("invalid mint request")

	// ErrNotConnected is returned when no requester address is present.
	ErrNotConnected = errors.New("wallet not connected")

	// ErrAttemptInFlight rejects a second submission while the
	// requester's current attempt is still pending.
	ErrAttemptInFlight = errors.New("a mint attempt is already in flight")

	// ErrPublishFailed covers pinning failures. Always raised before any
	// transaction is submitted, so the attempt is safe to retry.
	ErrPublishFailed = errors.New("failed to publish artifact")

	// ErrResolutionFailed covers chain-read failures while computing
	// authorization or price. There is no fallback to a public
	// zero-cost plan.
	ErrResolutionFailed = errors.New("failed to resolve mint path")

	// ErrNameTaken is the specific, user-actionable registration
	// conflict, distinguished from generic transaction failures.
	ErrNameTaken = errors.New("name already taken")

	// ErrTransactionRejected covers declined signing and unrelated
	// reverts.
	ErrTransactionRejected = errors.New("mint transaction rejected")
)

// nameTakenRevertReason is the registry's revert message for an already
// registered name.
const nameTakenRevertReason = "Name already registered"

// classifySubmitError maps a raw submission error onto the taxonomy.
func classifySubmitError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), nameTakenRevertReason) {
		return ErrNameTaken
	}
	return ErrTransactionRejected
}
