package game

import (
	"fmt"

	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/catalog"
)

// analystLookDepth is how many group cards an analyst may inspect.
const analystLookDepth = 3

// checkAnalystEligible gates both analyst operations: the ability is a
// briefing-only one-shot held in the side's awaiting queue.
func (e *Engine) checkAnalystEligible(side SideID) error {
	if err := e.ensureRunning(); err != nil {
		return err
	}
	if e.steps.TurnPhase() != PhaseBriefing {
		return fmt.Errorf("analyst: %w", ErrWrongPhase)
	}
	if !e.sides[side].HasAbility(AbilityAnalyst) {
		return fmt.Errorf("analyst: %w", ErrNoAccess)
	}
	return nil
}

// AnalystLookAtGroups reveals the top three group cards to the acting
// side without reordering them. Looking twice at an unchanged top is
// rejected so that the one-shot cannot be wasted on known information.
func (e *Engine) AnalystLookAtGroups(side SideID) ([]string, error) {
	if err := e.checkAnalystEligible(side); err != nil {
		return nil, err
	}
	top, err := e.groups.PeekTopN(analystLookDepth)
	if err != nil {
		return nil, fmt.Errorf("group deck: %w", err)
	}
	all := true
	for _, id := range top {
		if !e.groupSeen[id][side] {
			all = false
			break
		}
	}
	if all {
		return nil, fmt.Errorf("analyst look: %w", ErrAlreadyRevealed)
	}
	for _, id := range top {
		seen := e.groupSeen[id]
		seen[side] = true
		e.groupSeen[id] = seen
	}
	return top, nil
}

// AnalystArrangeGroups rewrites the order of the top three group cards
// and consumes the analyst one-shot. The supplied order must be a
// permutation of the actual top cards; a mismatch leaves both the deck
// and the ability untouched.
func (e *Engine) AnalystArrangeGroups(side SideID, order []string) error {
	if err := e.checkAnalystEligible(side); err != nil {
		return err
	}
	if len(order) != analystLookDepth {
		return fmt.Errorf("analyst arrange: %w", ErrArrangeMismatch)
	}
	if err := e.groups.ReorderTopN(order); err != nil {
		return fmt.Errorf("analyst arrange: %w", err)
	}
	return e.sides[side].ConsumeAbility(AbilityAnalyst)
}

// NuclearEscalation plays the owned nuclear-escalation objective: the
// objective goes to the objective pile and every military group owned by
// either side is discarded to the group pile.
func (e *Engine) NuclearEscalation(side SideID) error {
	if err := e.ensureRunning(); err != nil {
		return err
	}
	s := e.sides[side]
	var objID string
	for _, id := range s.OwnedObjectives {
		if card, ok := e.cat.Objective(id); ok && card.Special == catalog.SpecialNuclearEscalation {
			objID = id
			break
		}
	}
	if objID == "" {
		return fmt.Errorf("nuclear escalation: %w", ErrNoAccess)
	}
	s.OwnedObjectives = removeID(s.OwnedObjectives, objID)
	e.objectives.Discard(objID)
	for _, sd := range e.sides {
		e.discardMilitaryGroups(sd)
	}
	return nil
}

// discardMilitaryGroups moves every military-faction group owned by the
// side to the group discard pile.
func (e *Engine) discardMilitaryGroups(s *Side) {
	kept := s.OwnedGroups[:0]
	for _, id := range s.OwnedGroups {
		if card, ok := e.cat.Group(id); ok && card.Faction == catalog.FactionMilitary {
			e.groups.Discard(id)
			continue
		}
		kept = append(kept, id)
	}
	s.OwnedGroups = kept
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
