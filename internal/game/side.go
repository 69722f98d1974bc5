package game

import "fmt"

// Faction is one of the two mutually exclusive allegiances.
type Faction string

const (
	FactionNone Faction = ""
	FactionCIA  Faction = "cia"
	FactionKGB  Faction = "kgb"
)

// Opposite returns the complementary faction.
func (f Faction) Opposite() Faction {
	switch f {
	case FactionCIA:
		return FactionKGB
	case FactionKGB:
		return FactionCIA
	}
	return FactionNone
}

// ParseFaction validates a caller-supplied faction value.
func ParseFaction(s string) (Faction, error) {
	switch Faction(s) {
	case FactionCIA, FactionKGB:
		return Faction(s), nil
	}
	return FactionNone, fmt.Errorf("unknown faction %q", s)
}

// SideID selects one of the two participants in a session.
type SideID int

const (
	SidePlayer SideID = iota
	SideOpponent
)

// Other returns the opposing side.
func (s SideID) Other() SideID {
	if s == SidePlayer {
		return SideOpponent
	}
	return SidePlayer
}

func (s SideID) String() string {
	if s == SidePlayer {
		return "player"
	}
	return "opponent"
}

// One-shot ability identifiers granted into a side's awaiting queue.
const (
	AbilityAnalyst = "analyst"
	AbilityAgentX  = "agent_x"
)

// AgentState is the mutable per-side record for one agent card. Exactly
// one of the location flags (headquarters, in play, on leave, terminated)
// holds at any time; the revealed flag is independent.
type AgentState struct {
	ID             string
	InHeadquarters bool
	InPlay         bool
	OnLeave        bool
	Terminated     bool
	Revealed       bool
}

// Side is the mutable per-participant record. Login is empty for a bot
// side. Priority is nil until assigned.
type Side struct {
	Login         string
	Bot           bool
	Score         int
	Faction       Faction
	Priority      *bool
	InfluencePass bool

	Agents          []*AgentState
	Awaiting        []string
	OwnedGroups     []string
	OwnedObjectives []string
}

// newSide creates a side with all agents in headquarters.
func newSide(login string, bot bool, agentIDs []string) *Side {
	s := &Side{
		Login:  login,
		Bot:    bot,
		Agents: make([]*AgentState, len(agentIDs)),
	}
	for i, id := range agentIDs {
		s.Agents[i] = &AgentState{ID: id, InHeadquarters: true}
	}
	return s
}

// Agent returns the state record for the given agent id, or nil.
func (s *Side) Agent(id string) *AgentState {
	for _, a := range s.Agents {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// AgentsInPlay returns the agents currently committed this turn.
func (s *Side) AgentsInPlay() []*AgentState {
	var out []*AgentState
	for _, a := range s.Agents {
		if a.InPlay {
			out = append(out, a)
		}
	}
	return out
}

// SetAgentInPlay commits an agent from headquarters. If the side holds
// the double-agent ability, the committed agent is immediately revealed
// and the ability is consumed.
func (s *Side) SetAgentInPlay(id string) error {
	a := s.Agent(id)
	if a == nil || !a.InHeadquarters {
		return fmt.Errorf("agent %q: %w", id, ErrNotAvailable)
	}
	a.InHeadquarters = false
	a.InPlay = true
	if s.HasAbility(AbilityAgentX) {
		a.Revealed = true
		_ = s.ConsumeAbility(AbilityAgentX)
	}
	return nil
}

// GrantAbility appends a one-shot ability to the awaiting queue.
func (s *Side) GrantAbility(id string) {
	s.Awaiting = append(s.Awaiting, id)
}

// HasAbility reports whether an ability is awaiting use.
func (s *Side) HasAbility(id string) bool {
	for _, a := range s.Awaiting {
		if a == id {
			return true
		}
	}
	return false
}

// ConsumeAbility removes one occurrence of an ability from the queue.
func (s *Side) ConsumeAbility(id string) error {
	for i, a := range s.Awaiting {
		if a == id {
			s.Awaiting = append(s.Awaiting[:i], s.Awaiting[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("ability %q: %w", id, ErrNotAvailable)
}

// OwnsGroup reports whether the side owns the given group card.
func (s *Side) OwnsGroup(id string) bool {
	for _, g := range s.OwnedGroups {
		if g == id {
			return true
		}
	}
	return false
}

// OwnsObjective reports whether the side owns the given objective card.
func (s *Side) OwnsObjective(id string) bool {
	for _, o := range s.OwnedObjectives {
		if o == id {
			return true
		}
	}
	return false
}

// AddScore adjusts the score, clamped to [0, 100].
func (s *Side) AddScore(delta int) {
	s.Score += delta
	if s.Score < 0 {
		s.Score = 0
	}
	if s.Score > 100 {
		s.Score = 100
	}
}
