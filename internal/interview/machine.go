package interview

import "time"

// TransitionReason explains why the machine left a phase.
type TransitionReason string

const (
	ReasonExhausted   TransitionReason = "exhausted"
	ReasonPhaseBudget TransitionReason = "phase_budget"
	ReasonForced      TransitionReason = "forced"
	ReasonTotalBudget TransitionReason = "total_budget"
)

// Transition describes a move between two phases.
type Transition struct {
	From   Phase
	To     Phase
	Reason TransitionReason
}

// Machine holds the current phase of one session. It never moves backwards:
// every move goes through the fixed transition table.
type Machine struct {
	clock     *Clock
	phase     Phase
	enteredAt time.Time
}

// NewMachine returns a machine positioned at Opening, entered now.
func NewMachine(clock *Clock) *Machine {
	return &Machine{
		clock:     clock,
		phase:     PhaseOpening,
		enteredAt: clock.Now(),
	}
}

func (m *Machine) Current() Phase {
	return m.phase
}

func (m *Machine) EnteredAt() time.Time {
	return m.enteredAt
}

func (m *Machine) TimeInPhase() time.Duration {
	if d := m.clock.Now().Sub(m.enteredAt); d > 0 {
		return d
	}
	return 0
}

// Check decides whether the current phase must be left. exhausted reports that
// the phase has no unanswered question left. The returned transition is not
// applied.
func (m *Machine) Check(exhausted bool) (Transition, bool) {
	from := m.phase
	if from.Terminal() {
		return Transition{}, false
	}

	if from < PhaseClosing && m.clock.ShouldForceAdvance() {
		return Transition{From: from, To: PhaseClosing, Reason: ReasonForced}, true
	}

	if exhausted {
		return Transition{From: from, To: from.Next(), Reason: ReasonExhausted}, true
	}

	if from == PhaseClosing {
		// closing absorbs whatever time is left
		if m.clock.Remaining() <= 0 {
			return Transition{From: from, To: PhaseCompleted, Reason: ReasonTotalBudget}, true
		}
		return Transition{}, false
	}

	if m.TimeInPhase() > m.clock.PhaseBudget(from) {
		return Transition{From: from, To: from.Next(), Reason: ReasonPhaseBudget}, true
	}

	return Transition{}, false
}

// Apply walks the transition table from the current phase until t.To is
// reached and returns the phases passed through, the final one included.
// Transitions that do not start at the current phase or do not lead forward
// are ignored.
func (m *Machine) Apply(t Transition) []Phase {
	if t.From != m.phase || t.To <= m.phase || !t.To.Valid() {
		return nil
	}

	var visited []Phase
	for m.phase != t.To {
		m.phase = m.phase.Next()
		visited = append(visited, m.phase)
	}
	m.enteredAt = m.clock.Now()

	return visited
}
