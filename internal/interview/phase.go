package interview

import (
	"fmt"
	"strings"
)

// Phase is a named segment of the interview. Phases are ordered and only ever
// move forward.
type Phase int

const (
	PhaseOpening Phase = iota
	PhaseTechnicalBasic
	PhaseProjectDeepDive
	PhaseSystemDesign
	PhaseClosing
	PhaseCompleted
)

var phaseNames = [...]string{
	PhaseOpening:         "opening",
	PhaseTechnicalBasic:  "technical_basic",
	PhaseProjectDeepDive: "project_deep_dive",
	PhaseSystemDesign:    "system_design",
	PhaseClosing:         "closing",
	PhaseCompleted:       "completed",
}

// transitions maps every phase to the only phase it may move to.
// Completed maps to itself and is therefore terminal.
var transitions = [...]Phase{
	PhaseOpening:         PhaseTechnicalBasic,
	PhaseTechnicalBasic:  PhaseProjectDeepDive,
	PhaseProjectDeepDive: PhaseSystemDesign,
	PhaseSystemDesign:    PhaseClosing,
	PhaseClosing:         PhaseCompleted,
	PhaseCompleted:       PhaseCompleted,
}

// Phases returns every phase in interview order, Completed included.
func Phases() []Phase {
	return []Phase{
		PhaseOpening,
		PhaseTechnicalBasic,
		PhaseProjectDeepDive,
		PhaseSystemDesign,
		PhaseClosing,
		PhaseCompleted,
	}
}

// TimedPhases returns the phases that carry a time budget.
func TimedPhases() []Phase {
	return Phases()[:PhaseCompleted]
}

func (p Phase) String() string {
	if !p.Valid() {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Valid reports whether p is one of the declared phases.
func (p Phase) Valid() bool {
	return p >= PhaseOpening && p <= PhaseCompleted
}

// Next returns the phase that follows p.
func (p Phase) Next() Phase {
	if !p.Valid() {
		return PhaseCompleted
	}
	return transitions[p]
}

// Terminal reports whether no transition leaves p.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted
}

// Scripted reports whether the phase uses fixed prompts instead of supplied questions.
func (p Phase) Scripted() bool {
	return p == PhaseOpening || p == PhaseClosing
}

// Supplied reports whether entering the phase requests questions from the supplier.
func (p Phase) Supplied() bool {
	return p == PhaseTechnicalBasic || p == PhaseProjectDeepDive || p == PhaseSystemDesign
}

func (p Phase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid phase %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePhase resolves a phase from its name. Short aliases used in
// configuration files ("technical", "project", "design") are accepted.
func ParsePhase(name string) (Phase, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "-", "_")

	switch key {
	case "technical", "technical_basics":
		return PhaseTechnicalBasic, nil
	case "project", "project_deep_dive", "deep_dive":
		return PhaseProjectDeepDive, nil
	case "design":
		return PhaseSystemDesign, nil
	}

	for i, n := range phaseNames {
		if n == key {
			return Phase(i), nil
		}
	}

	return PhaseCompleted, fmt.Errorf("unknown phase %q", name)
}
