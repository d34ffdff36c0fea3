package application

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/likelion-sch/recruit/core"
)

type Decision string

const (
	DecisionPending  Decision = "PENDING"
	DecisionAccepted Decision = "ACCEPTED"
	DecisionRejected Decision = "REJECTED"
)

// IsFinal reports whether d is a terminal decision, the only values a gate accepts.
func (d Decision) IsFinal() bool {
	return d == DecisionAccepted || d == DecisionRejected
}

type Stage string

const (
	StageDoc   Stage = "doc"
	StageFinal Stage = "final"
)

// error codes
const (
	CodeAlreadyFinalized = "ALREADY_FINALIZED"
	CodeFinalGateBlocked = "FINAL_GATE_BLOCKED"
	CodeInvalidDecision  = "INVALID_DECISION"
	CodeLocked           = "LOCKED"
)

var (
	ErrAlreadyFinalized = core.NewError(CodeAlreadyFinalized, "decision already finalized")
	ErrFinalGateBlocked = core.NewError(CodeFinalGateBlocked, "finalize requires doc_decision=ACCEPTED")
	ErrInvalidDecision  = core.NewError(CodeInvalidDecision, "decision must be ACCEPTED or REJECTED")
	ErrLocked           = core.NewError(CodeLocked, "application is already submitted")
)

// Gate holds the two decision stages of an applicant.
// A stage leaves PENDING once and never changes again; the final stage opens only after
// the document stage was ACCEPTED.
type Gate struct {
	DocDecision    Decision  `json:"doc_decision" db:"doc_decision"`
	DocFinalizedAt null.Time `json:"doc_finalized_at" db:"doc_finalized_at"`
	FinalDecision  Decision  `json:"final_decision" db:"final_decision"`
	FinalizedAt    null.Time `json:"finalized_at" db:"finalized_at"`
}

// NewGate returns a gate with both stages PENDING.
func NewGate() Gate {
	return Gate{DocDecision: DecisionPending, FinalDecision: DecisionPending}
}

// CheckDoc reports why the document stage cannot be finalized with d, if it cannot.
func (g Gate) CheckDoc(d Decision) error {
	if !d.IsFinal() {
		return ErrInvalidDecision
	}
	if g.DocDecision != DecisionPending {
		return ErrAlreadyFinalized
	}
	return nil
}

// CheckFinal reports why the final stage cannot be finalized with d, if it cannot.
func (g Gate) CheckFinal(d Decision) error {
	if !d.IsFinal() {
		return ErrInvalidDecision
	}
	if g.DocDecision != DecisionAccepted {
		return ErrFinalGateBlocked
	}
	if g.FinalDecision != DecisionPending {
		return ErrAlreadyFinalized
	}
	return nil
}

// Check dispatches to CheckDoc or CheckFinal.
func (g Gate) Check(stage Stage, d Decision) error {
	if stage == StageFinal {
		return g.CheckFinal(d)
	}
	return g.CheckDoc(d)
}

// FinalizeDoc sets the document decision and stamps it. g is left untouched on error.
func (g *Gate) FinalizeDoc(d Decision, at time.Time) error {
	if err := g.CheckDoc(d); err != nil {
		return err
	}
	g.DocDecision = d
	g.DocFinalizedAt = null.TimeFrom(at.UTC())
	return nil
}

// FinalizeFinal sets the final decision and stamps it. g is left untouched on error.
func (g *Gate) FinalizeFinal(d Decision, at time.Time) error {
	if err := g.CheckFinal(d); err != nil {
		return err
	}
	g.FinalDecision = d
	g.FinalizedAt = null.TimeFrom(at.UTC())
	return nil
}

// Finalize dispatches to FinalizeDoc or FinalizeFinal.
func (g *Gate) Finalize(stage Stage, d Decision, at time.Time) error {
	if stage == StageFinal {
		return g.FinalizeFinal(d, at)
	}
	return g.FinalizeDoc(d, at)
}
