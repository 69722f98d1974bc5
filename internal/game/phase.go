package game

import "fmt"

// Phase represents one of the six phases of a game turn.
type Phase int

const (
	// PhaseNone is the between-turns state before briefing starts.
	PhaseNone Phase = iota
	PhaseBriefing
	PhasePlanning
	PhaseInfluenceStruggle
	PhaseCeasefire
	PhaseDebriefing
	PhaseDetente
)

var phaseNames = map[Phase]string{
	PhaseNone:              "",
	PhaseBriefing:          "briefing",
	PhasePlanning:          "planning",
	PhaseInfluenceStruggle: "influence_struggle",
	PhaseCeasefire:         "ceasefire",
	PhaseDebriefing:        "debriefing",
	PhaseDetente:           "detente",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// ParsePhase converts a persisted phase name back to its Phase value.
// The empty string parses to PhaseNone.
func ParsePhase(s string) (Phase, error) {
	for p, name := range phaseNames {
		if name == s {
			return p, nil
		}
	}
	return PhaseNone, fmt.Errorf("unknown phase %q", s)
}

// turnSequence is the fixed order of phases within a turn.
var turnSequence = []Phase{
	PhaseBriefing,
	PhasePlanning,
	PhaseInfluenceStruggle,
	PhaseCeasefire,
	PhaseDebriefing,
	PhaseDetente,
}

// FullPhaseSequence returns a copy of the six-phase turn order.
func FullPhaseSequence() []Phase {
	return append([]Phase(nil), turnSequence...)
}

// Steps tracks turn and phase progression for a single session. The turn
// counter starts at 1; the phase pointer is PhaseNone between turns.
type Steps struct {
	gameTurn   int
	turnPhase  Phase
	phasesLeft []Phase
	gameEnd    bool
}

// NewSteps creates a tracker at turn 1 with no phase started.
func NewSteps() *Steps {
	return &Steps{
		gameTurn:   1,
		turnPhase:  PhaseNone,
		phasesLeft: FullPhaseSequence(),
	}
}

// GameTurn returns the current turn number.
func (s *Steps) GameTurn() int { return s.gameTurn }

// TurnPhase returns the phase in progress, or PhaseNone between turns.
func (s *Steps) TurnPhase() Phase { return s.turnPhase }

// PhasesLeft returns a copy of the phases remaining this turn, consumed
// front to back.
func (s *Steps) PhasesLeft() []Phase {
	return append([]Phase(nil), s.phasesLeft...)
}

// IsGameEnd reports whether the terminal flag is set.
func (s *Steps) IsGameEnd() bool { return s.gameEnd }

// SetGameEnd sets the terminal flag. It is monotonic: once set, no phase
// or turn mutation is permitted.
func (s *Steps) SetGameEnd() { s.gameEnd = true }

// AdvancePhase moves to the next phase in the fixed sequence. From
// PhaseNone it enters briefing. From detente it fails with ErrLastPhase:
// the caller must advance the turn instead.
func (s *Steps) AdvancePhase() (Phase, error) {
	if len(s.phasesLeft) == 0 {
		return s.turnPhase, ErrLastPhase
	}
	s.turnPhase = s.phasesLeft[0]
	s.phasesLeft = s.phasesLeft[1:]
	return s.turnPhase, nil
}

// AdvanceTurn increments the turn counter, resets the phase pointer and
// refills the remaining-phase sequence.
func (s *Steps) AdvanceTurn() error {
	if s.gameEnd {
		return ErrGameEnded
	}
	s.gameTurn++
	s.turnPhase = PhaseNone
	s.phasesLeft = FullPhaseSequence()
	return nil
}

// restoreSteps rebuilds a tracker from persisted values.
func restoreSteps(turn int, phase Phase, left []Phase, ended bool) *Steps {
	return &Steps{
		gameTurn:   turn,
		turnPhase:  phase,
		phasesLeft: append([]Phase(nil), left...),
		gameEnd:    ended,
	}
}
