package game

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/catalog"
)

// Engine is the authoritative processor for one game session. It owns the
// in-memory state, enforces the legality of every mutation and produces
// the two serialization forms (persistence Document and per-side View).
//
// Every rule check runs before any mutation, so a failed operation leaves
// the session exactly as it was. The engine is not internally concurrent:
// the caller runs one load-validate-mutate-persist cycle per request and
// is responsible for serializing access per session.
type Engine struct {
	id  uuid.UUID
	cat *catalog.Catalog
	rnd RandSource

	steps *Steps
	sides [2]*Side

	groups     *Deck
	objectives *Deck

	// Per-card visibility flags, indexed by SideID. Group cards become
	// visible through analyst peeks and recruitment; objective cards
	// through the mission slot.
	groupSeen     map[string][2]bool
	objectiveSeen map[string][2]bool
}

// PriorityMode selects how a side's priority flag is assigned.
type PriorityMode string

const (
	PriorityYes    PriorityMode = "true"
	PriorityNo     PriorityMode = "false"
	PriorityRandom PriorityMode = "random"
)

// ParsePriorityMode validates a caller-supplied priority mode.
func ParsePriorityMode(s string) (PriorityMode, error) {
	switch PriorityMode(s) {
	case PriorityYes, PriorityNo, PriorityRandom:
		return PriorityMode(s), nil
	}
	return "", fmt.Errorf("unknown priority mode %q", s)
}

// NewEngine builds a fresh session for the given login against a bot
// opponent: turn 1, no phase started, decks in catalog default order.
func NewEngine(cat *catalog.Catalog, rnd RandSource, login string) *Engine {
	agentIDs := cat.AgentIDs()
	return &Engine{
		id:            uuid.New(),
		cat:           cat,
		rnd:           rnd,
		steps:         NewSteps(),
		sides:         [2]*Side{newSide(login, false, agentIDs), newSide("", true, agentIDs)},
		groups:        NewDeck(cat.GroupIDs()),
		objectives:    NewDeck(cat.ObjectiveIDs()),
		groupSeen:     make(map[string][2]bool),
		objectiveSeen: make(map[string][2]bool),
	}
}

// ID returns the session identifier.
func (e *Engine) ID() uuid.UUID { return e.id }

// Steps returns the turn/phase tracker.
func (e *Engine) Steps() *Steps { return e.steps }

// Side returns the state record for one participant.
func (e *Engine) Side(id SideID) *Side { return e.sides[id] }

// GroupDeck returns the group deck.
func (e *Engine) GroupDeck() *Deck { return e.groups }

// ObjectiveDeck returns the objective deck.
func (e *Engine) ObjectiveDeck() *Deck { return e.objectives }

// SideForLogin resolves an authenticated login to its side slot.
func (e *Engine) SideForLogin(login string) (SideID, error) {
	if e.sides[SidePlayer].Login == login {
		return SidePlayer, nil
	}
	if e.sides[SideOpponent].Login == login && login != "" {
		return SideOpponent, nil
	}
	return SidePlayer, fmt.Errorf("login %q: %w", login, ErrNoActiveGame)
}

// ensureRunning guards every mutating operation against the terminal flag.
func (e *Engine) ensureRunning() error {
	if e.steps.IsGameEnd() {
		return ErrGameEnded
	}
	return nil
}

// DealAndShuffle resets both decks to the full catalog set and shuffles
// each independently. Used once at session start; it also clears any
// ownership and visibility accumulated by an aborted setup.
func (e *Engine) DealAndShuffle() error {
	if err := e.ensureRunning(); err != nil {
		return err
	}
	e.groups = NewDeck(e.cat.GroupIDs())
	e.objectives = NewDeck(e.cat.ObjectiveIDs())
	e.groupSeen = make(map[string][2]bool)
	e.objectiveSeen = make(map[string][2]bool)
	for _, s := range e.sides {
		s.OwnedGroups = nil
		s.OwnedObjectives = nil
	}
	e.groups.Shuffle(e.rnd)
	e.objectives.Shuffle(e.rnd)
	return nil
}

// SetFaction assigns a faction to one side and the complementary faction
// to the other. Factions are assigned exactly once per session.
func (e *Engine) SetFaction(side SideID, f Faction) error {
	if err := e.ensureRunning(); err != nil {
		return err
	}
	if f != FactionCIA && f != FactionKGB {
		return fmt.Errorf("faction %q: %w", f, ErrNotAvailable)
	}
	if e.sides[side].Faction != FactionNone {
		return fmt.Errorf("faction: %w", ErrAlreadySet)
	}
	e.sides[side].Faction = f
	e.sides[side.Other()].Faction = f.Opposite()
	return nil
}

// SetPriority assigns the priority/balance flag to one side and the
// negation to the other. PriorityRandom resolves by a fair coin flip.
// Assignment happens at most once; later turns are re-resolved by the
// briefing effects, not through this operation.
func (e *Engine) SetPriority(side SideID, mode PriorityMode) error {
	if err := e.ensureRunning(); err != nil {
		return err
	}
	if e.sides[side].Priority != nil || e.sides[side.Other()].Priority != nil {
		return fmt.Errorf("priority: %w", ErrAlreadySet)
	}
	var v bool
	switch mode {
	case PriorityYes:
		v = true
	case PriorityNo:
		v = false
	case PriorityRandom:
		v = e.rnd.CoinFlip()
	default:
		return fmt.Errorf("priority mode %q: %w", mode, ErrNotAvailable)
	}
	e.assignPriority(side, v)
	return nil
}

// assignPriority sets one side's flag and forces the other side to the
// logical negation.
func (e *Engine) assignPriority(side SideID, v bool) {
	w := !v
	e.sides[side].Priority = &v
	e.sides[side.Other()].Priority = &w
}

// AdvanceTurn pushes the turn counter forward. Briefing setup is not
// re-run here; that is ApplyPostPhaseEffects after the next AdvancePhase.
func (e *Engine) AdvanceTurn() error {
	if err := e.ensureRunning(); err != nil {
		return err
	}
	return e.steps.AdvanceTurn()
}

// AdvancePhase moves to the next phase in the fixed sequence,
// propagating ErrLastPhase from the tracker.
func (e *Engine) AdvancePhase() error {
	if err := e.ensureRunning(); err != nil {
		return err
	}
	_, err := e.steps.AdvancePhase()
	return err
}

// SetMissionCard pops the top of the objective deck into the mission
// slot and marks it visible to both sides. A mission already in the
// slot goes to the objective pile, so every card stays accounted for.
func (e *Engine) SetMissionCard() error {
	if err := e.ensureRunning(); err != nil {
		return err
	}
	prev, had := e.objectives.Mission()
	id, err := e.objectives.DrawMission()
	if err != nil {
		return fmt.Errorf("objective deck: %w", err)
	}
	if had {
		e.objectives.Discard(prev)
	}
	e.objectiveSeen[id] = [2]bool{true, true}
	return nil
}

// SetAgentInPlay commits an agent for the side. Agent commitment is only
// legal while plans are still being made (briefing and planning).
func (e *Engine) SetAgentInPlay(side SideID, agentID string) error {
	if err := e.ensureRunning(); err != nil {
		return err
	}
	switch e.steps.TurnPhase() {
	case PhaseBriefing, PhasePlanning:
	default:
		return fmt.Errorf("set agent in play: %w", ErrWrongPhase)
	}
	return e.sides[side].SetAgentInPlay(agentID)
}

// RecruitGroup moves the top card of the group deck into the side's
// owned list and reveals it to both sides.
func (e *Engine) RecruitGroup(side SideID) error {
	if err := e.ensureRunning(); err != nil {
		return err
	}
	if e.steps.TurnPhase() != PhaseInfluenceStruggle {
		return fmt.Errorf("recruit group: %w", ErrWrongPhase)
	}
	id, err := e.groups.Pop()
	if err != nil {
		return fmt.Errorf("group deck: %w", err)
	}
	e.sides[side].OwnedGroups = append(e.sides[side].OwnedGroups, id)
	e.groupSeen[id] = [2]bool{true, true}
	return nil
}

// PassInfluence marks the side as done with the influence struggle. A
// side must have recruited at least one group before it may pass.
func (e *Engine) PassInfluence(side SideID) error {
	if err := e.ensureRunning(); err != nil {
		return err
	}
	if e.steps.TurnPhase() != PhaseInfluenceStruggle {
		return fmt.Errorf("pass influence: %w", ErrWrongPhase)
	}
	if len(e.sides[side].OwnedGroups) == 0 {
		return ErrCannotPassEmpty
	}
	e.sides[side].InfluencePass = true
	return nil
}

// GrantAbility appends a one-shot ability to the side's awaiting queue.
func (e *Engine) GrantAbility(side SideID, ability string) error {
	if err := e.ensureRunning(); err != nil {
		return err
	}
	e.sides[side].GrantAbility(ability)
	return nil
}

// FinishGame sets the terminal flag. Winner bookkeeping stays on the
// side records; after this call every mutating operation fails with
// ErrGameEnded.
func (e *Engine) FinishGame() error {
	if err := e.ensureRunning(); err != nil {
		return err
	}
	e.steps.SetGameEnd()
	return nil
}
