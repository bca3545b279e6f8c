package agent

import (
	"errors"

	"oddsy/internal/tools/decision"
)

var (
	// ErrContractViolation means the terminal tool was called with arguments
	// that do not match its schema. The run is aborted.
	ErrContractViolation = errors.New("terminal tool contract violation")
	// ErrInvalidInput rejects a history the loop cannot start from.
	ErrInvalidInput = errors.New("invalid input")
	// ErrModel wraps failures of the model call itself.
	ErrModel = errors.New("model call failed")
)

// Outcome kinds, also used as metric labels.
const (
	KindFinal     = "final"
	KindAnswer    = "answer"
	KindExhausted = "exhausted"
	KindError     = "error"
)

// BudgetExhaustedMessage is returned when the step budget runs out.
const BudgetExhaustedMessage = "I've reached the maximum number of steps for my analysis."

// Outcome is the terminal state of a run: FinalDecision, PlainAnswer or
// BudgetExhausted.
type Outcome interface {
	Kind() string
	isOutcome()
}

// FinalDecision carries the terminal tool's payload unmodified.
type FinalDecision struct {
	Payload decision.Recommendation
}

// PlainAnswer is text the model replied with instead of a tool call.
type PlainAnswer struct {
	Text  string
	Steps []string
}

type BudgetExhausted struct {
	Message string
}

func (FinalDecision) Kind() string   { return KindFinal }
func (PlainAnswer) Kind() string     { return KindAnswer }
func (BudgetExhausted) Kind() string { return KindExhausted }

func (FinalDecision) isOutcome()   {}
func (PlainAnswer) isOutcome()     {}
func (BudgetExhausted) isOutcome() {}
