package consignment

import (
	"fmt"
	"strings"

	"github.com/pearcestephens/stocklink-backend/pkg/enums"
)

// Transition validation codes surfaced to API callers.
const (
	CodeInvalidState      = "INVALID_STATE"
	CodeTerminalState     = "TERMINAL_STATE"
	CodeInvalidTransition = "INVALID_TRANSITION"
)

// TransitionResult reports whether a lifecycle transition is legal. It is a
// value, never an error: callers inspect Valid and Code.
type TransitionResult struct {
	Valid bool
	Error string
	Code  string
}

// transitions is the directed edge set of the lifecycle. Only listed edges
// are legal. CANCELLED and ARCHIVED have no outgoing edges.
var transitions = map[enums.ConsignmentState][]enums.ConsignmentState{
	enums.ConsignmentDraft:     {enums.ConsignmentOpen, enums.ConsignmentCancelled},
	enums.ConsignmentOpen:      {enums.ConsignmentPacking, enums.ConsignmentCancelled, enums.ConsignmentDraft},
	enums.ConsignmentPacking:   {enums.ConsignmentPackaged, enums.ConsignmentOpen},
	enums.ConsignmentPackaged:  {enums.ConsignmentSent, enums.ConsignmentPacking},
	enums.ConsignmentSent:      {enums.ConsignmentReceiving, enums.ConsignmentCancelled},
	enums.ConsignmentReceiving: {enums.ConsignmentPartial, enums.ConsignmentReceived},
	enums.ConsignmentPartial:   {enums.ConsignmentReceiving, enums.ConsignmentReceived},
	enums.ConsignmentReceived:  {enums.ConsignmentClosed},
	enums.ConsignmentClosed:    {enums.ConsignmentArchived},
	enums.ConsignmentCancelled: {},
	enums.ConsignmentArchived:  {},
}

var terminalStates = map[enums.ConsignmentState]struct{}{
	enums.ConsignmentCancelled: {},
	enums.ConsignmentArchived:  {},
}

var cancellableStates = map[enums.ConsignmentState]struct{}{
	enums.ConsignmentDraft: {},
	enums.ConsignmentOpen:  {},
}

var editableStates = map[enums.ConsignmentState]struct{}{
	enums.ConsignmentDraft:    {},
	enums.ConsignmentOpen:     {},
	enums.ConsignmentPacking:  {},
	enums.ConsignmentPackaged: {},
	enums.ConsignmentReceived: {},
}

var unsyncableStates = map[enums.ConsignmentState]struct{}{
	enums.ConsignmentDraft:     {},
	enums.ConsignmentCancelled: {},
	enums.ConsignmentArchived:  {},
}

// Normalize maps free-form state input onto the canonical enum,
// case-insensitively. The second return is false for unknown states.
func Normalize(state string) (enums.ConsignmentState, bool) {
	candidate := enums.ConsignmentState(strings.ToUpper(strings.TrimSpace(state)))
	if _, ok := transitions[candidate]; !ok {
		return "", false
	}
	return candidate, true
}

// ValidateTransition checks one directed lifecycle edge. It never panics and
// never returns an error value; illegal input yields an invalid result with a
// stable code.
func ValidateTransition(from, to string) TransitionResult {
	fromState, ok := Normalize(from)
	if !ok {
		return TransitionResult{
			Error: fmt.Sprintf("unknown source state %q", from),
			Code:  CodeInvalidState,
		}
	}
	toState, ok := Normalize(to)
	if !ok {
		return TransitionResult{
			Error: fmt.Sprintf("unknown target state %q", to),
			Code:  CodeInvalidState,
		}
	}
	if _, terminal := terminalStates[fromState]; terminal {
		return TransitionResult{
			Error: fmt.Sprintf("state %s is terminal", fromState),
			Code:  CodeTerminalState,
		}
	}
	for _, allowed := range transitions[fromState] {
		if allowed == toState {
			return TransitionResult{Valid: true}
		}
	}
	return TransitionResult{
		Error: fmt.Sprintf("cannot transition from %s to %s", fromState, toState),
		Code:  CodeInvalidTransition,
	}
}

// CanCancel reports whether a consignment may still be cancelled through the
// normal path. Once sent, cancellation requires an out-of-band correction.
func CanCancel(state string) bool {
	normalized, ok := Normalize(state)
	if !ok {
		return false
	}
	_, cancellable := cancellableStates[normalized]
	return cancellable
}

// CanEdit reports whether line items and header fields may still change.
// RECEIVED stays editable so over-receipt amendments are accepted.
func CanEdit(state string) bool {
	normalized, ok := Normalize(state)
	if !ok {
		return false
	}
	_, editable := editableStates[normalized]
	return editable
}

// CanSync reports whether the consignment should propagate to the remote API.
// Drafts and terminal consignments never leave the local database.
func CanSync(state string) bool {
	normalized, ok := Normalize(state)
	if !ok {
		return false
	}
	_, blocked := unsyncableStates[normalized]
	return !blocked
}

// NextStates returns the legal targets from the given state, in table order.
func NextStates(state string) []enums.ConsignmentState {
	normalized, ok := Normalize(state)
	if !ok {
		return nil
	}
	targets := transitions[normalized]
	out := make([]enums.ConsignmentState, len(targets))
	copy(out, targets)
	return out
}
