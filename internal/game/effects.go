package game

import (
	"fmt"

	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/catalog"
)

// Phase-gated rules are data-driven: one table maps each phase to the
// precondition that must hold before the caller may advance past it, a
// second maps each phase to the side effects applied on entering it.

// phasePreconditions is keyed by the phase being left.
var phasePreconditions = map[Phase]func(*Engine) error{
	PhaseBriefing:          (*Engine).briefingPrecondition,
	PhaseInfluenceStruggle: (*Engine).influencePrecondition,
	PhaseDetente:           func(*Engine) error { return ErrLastPhase },
}

// phaseEffects is keyed by the phase just entered.
var phaseEffects = map[Phase]func(*Engine) error{
	PhaseBriefing:          (*Engine).briefingEffects,
	PhaseInfluenceStruggle: (*Engine).influenceEffects,
	PhaseCeasefire:         (*Engine).ceasefireEffects,
	PhaseDebriefing:        (*Engine).debriefingEffects,
	PhaseDetente:           (*Engine).detenteEffects,
}

// CheckPreconditionsBeforeAdvance validates that the current phase may be
// left. Planning, ceasefire and debriefing are pass-through; briefing,
// the influence struggle and detente carry rules of their own.
func (e *Engine) CheckPreconditionsBeforeAdvance() error {
	if e.steps.IsGameEnd() {
		return ErrGameEnded
	}
	check, ok := phasePreconditions[e.steps.TurnPhase()]
	if !ok {
		return nil
	}
	return check(e)
}

// ApplyPostPhaseEffects runs the side effects of the phase just entered.
// Callers invoke it immediately after a successful AdvancePhase.
func (e *Engine) ApplyPostPhaseEffects() error {
	if err := e.ensureRunning(); err != nil {
		return err
	}
	effect, ok := phaseEffects[e.steps.TurnPhase()]
	if !ok {
		return nil
	}
	return effect(e)
}

// briefingPrecondition enforces, in rule order: priority assigned, a
// mission drawn this turn, no analyst ability still pending, and exactly
// one committed agent per side.
func (e *Engine) briefingPrecondition() error {
	if e.sides[SidePlayer].Priority == nil && e.sides[SideOpponent].Priority == nil {
		return ErrNoPriority
	}
	if _, ok := e.objectives.Mission(); !ok {
		return ErrNoMissionCard
	}
	for _, s := range e.sides {
		if s.HasAbility(AbilityAnalyst) {
			return ErrAnalystPending
		}
	}
	for id, s := range e.sides {
		if len(s.AgentsInPlay()) != 1 {
			return fmt.Errorf("%s: %w", SideID(id), ErrAgentNotChosen)
		}
	}
	return nil
}

func (e *Engine) influencePrecondition() error {
	if !e.sides[SidePlayer].InfluencePass || !e.sides[SideOpponent].InfluencePass {
		return ErrBothMustPass
	}
	return nil
}

// briefingEffects starts a new turn's briefing: the previous mission is
// discarded and a fresh one drawn, turn priority is resolved, and the
// transient top-of-deck reveals from last turn's analyst plays are
// cleared.
func (e *Engine) briefingEffects() error {
	if err := e.SetMissionCard(); err != nil {
		return err
	}
	e.setTurnPriority()
	e.clearGroupDeckReveals()
	return nil
}

// influenceEffects returns agents from leave to headquarters, unrevealed.
func (e *Engine) influenceEffects() error {
	for _, s := range e.sides {
		for _, a := range s.Agents {
			if a.OnLeave {
				a.OnLeave = false
				a.InHeadquarters = true
				a.Revealed = false
			}
		}
	}
	return nil
}

// ceasefireEffects resets the per-phase influence passes.
func (e *Engine) ceasefireEffects() error {
	e.sides[SidePlayer].InfluencePass = false
	e.sides[SideOpponent].InfluencePass = false
	return nil
}

// debriefingEffects reveals every committed agent to the opponent. A
// revealed special hands its side the matching one-shot: the analyst
// grants the look/arrange for next turn's briefing, the double agent
// grants the forced reveal of the next committed agent.
func (e *Engine) debriefingEffects() error {
	for _, s := range e.sides {
		for _, a := range s.Agents {
			if !a.InPlay {
				continue
			}
			a.Revealed = true
			card, ok := e.cat.Agent(a.ID)
			if !ok {
				continue
			}
			switch card.Special {
			case catalog.SpecialAnalyst:
				s.GrantAbility(AbilityAnalyst)
			case catalog.SpecialDoubleAgent:
				s.GrantAbility(AbilityAgentX)
			}
		}
	}
	return nil
}

// detenteEffects sends committed agents on leave, except the deputy,
// which returns straight to headquarters unrevealed.
func (e *Engine) detenteEffects() error {
	deputy := e.cat.DeputyAgentID()
	for _, s := range e.sides {
		for _, a := range s.Agents {
			if !a.InPlay {
				continue
			}
			a.InPlay = false
			if a.ID == deputy {
				a.InHeadquarters = true
				a.Revealed = false
			} else {
				a.OnLeave = true
			}
		}
	}
	return nil
}

// setTurnPriority resolves the turn's priority flag. The first turn is an
// unweighted coin flip (skipped when the players assigned it themselves).
// Later turns give priority to the higher score; an exact tie mutates
// nothing.
func (e *Engine) setTurnPriority() {
	player, opponent := e.sides[SidePlayer], e.sides[SideOpponent]
	if e.steps.GameTurn() == 1 {
		if player.Priority == nil && opponent.Priority == nil {
			e.assignPriority(SidePlayer, e.rnd.CoinFlip())
		}
		return
	}
	switch {
	case player.Score > opponent.Score:
		e.assignPriority(SidePlayer, true)
	case player.Score < opponent.Score:
		e.assignPriority(SideOpponent, true)
	}
}

// clearGroupDeckReveals forgets every top-of-deck look that has not been
// made permanent by recruitment.
func (e *Engine) clearGroupDeckReveals() {
	for _, id := range e.groups.Current() {
		delete(e.groupSeen, id)
	}
}
