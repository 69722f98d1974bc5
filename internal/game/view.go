package game

// HiddenCard is the placeholder identifier substituted for every card
// the viewing side is not entitled to see.
const HiddenCard = "hidden"

// GameView is the player-facing projection of a session for one side.
// It carries no information the viewer has not legitimately seen: deck
// orders are lists of placeholders with only the viewer's own reveals
// filled in, and opponent agents are anonymous until revealed or
// terminated.
type GameView struct {
	ID string `json:"id"`

	GameTurn   int      `json:"game_turn"`
	TurnPhase  string   `json:"turn_phase"`
	PhasesLeft []string `json:"phases_left"`
	IsGameEnd  bool     `json:"is_game_end"`

	You      SideView `json:"you"`
	Opponent SideView `json:"opponent"`

	GroupDeck     DeckView `json:"group_deck"`
	ObjectiveDeck DeckView `json:"objective_deck"`
}

// SideView is the per-participant slice of a GameView. The viewer's own
// record is complete; the opponent's hides score internals that are
// public anyway but anonymizes agents.
type SideView struct {
	Login         string      `json:"login,omitempty"`
	Bot           bool        `json:"bot"`
	Score         int         `json:"score"`
	Faction       string      `json:"faction,omitempty"`
	Priority      *bool       `json:"has_priority,omitempty"`
	InfluencePass bool        `json:"influence_pass"`
	Agents        []AgentView `json:"agents"`
	Awaiting      []string    `json:"awaiting_abilities,omitempty"`
	OwnedGroups   []string    `json:"owned_groups,omitempty"`
	OwnedObjs     []string    `json:"owned_objectives,omitempty"`
}

// AgentView is one agent as seen by the viewer. For opponent agents the
// ID is HiddenCard unless the agent is revealed or terminated; the
// location flags that are public knowledge stay accurate.
type AgentView struct {
	ID           string `json:"id"`
	Headquarters bool   `json:"in_headquarters"`
	InPlay       bool   `json:"in_play"`
	OnLeave      bool   `json:"on_leave"`
	Terminated   bool   `json:"terminated"`
	Revealed     bool   `json:"revealed"`
}

// DeckView shows a deck to one side. Current is sized to the real deck
// with only the cards this side has seen identified; the discard pile
// and mission slot are public.
type DeckView struct {
	Current []string `json:"current"`
	Pile    []string `json:"pile,omitempty"`
	Mission string   `json:"mission,omitempty"`
}

// View builds the redacted projection for one side.
func (e *Engine) View(viewer SideID) *GameView {
	left := make([]string, 0, len(e.steps.phasesLeft))
	for _, p := range e.steps.phasesLeft {
		left = append(left, p.String())
	}
	return &GameView{
		ID:            e.id.String(),
		GameTurn:      e.steps.GameTurn(),
		TurnPhase:     e.steps.TurnPhase().String(),
		PhasesLeft:    left,
		IsGameEnd:     e.steps.IsGameEnd(),
		You:           e.sideView(viewer, true),
		Opponent:      e.sideView(viewer.Other(), false),
		GroupDeck:     e.deckView(e.groups, e.groupSeen, viewer),
		ObjectiveDeck: e.deckView(e.objectives, e.objectiveSeen, viewer),
	}
}

func (e *Engine) sideView(id SideID, own bool) SideView {
	s := e.sides[id]
	v := SideView{
		Login:         s.Login,
		Bot:           s.Bot,
		Score:         s.Score,
		Faction:       string(s.Faction),
		Priority:      copyBoolPtr(s.Priority),
		InfluencePass: s.InfluencePass,
		Agents:        make([]AgentView, len(s.Agents)),
		OwnedGroups:   append([]string(nil), s.OwnedGroups...),
		OwnedObjs:     append([]string(nil), s.OwnedObjectives...),
	}
	if own {
		v.Awaiting = append([]string(nil), s.Awaiting...)
	}
	for i, a := range s.Agents {
		av := AgentView{
			ID:           a.ID,
			Headquarters: a.InHeadquarters,
			InPlay:       a.InPlay,
			OnLeave:      a.OnLeave,
			Terminated:   a.Terminated,
			Revealed:     a.Revealed,
		}
		if !own && !a.Revealed && !a.Terminated {
			av.ID = HiddenCard
		}
		v.Agents[i] = av
	}
	return v
}

func (e *Engine) deckView(d *Deck, seen map[string][2]bool, viewer SideID) DeckView {
	current := d.Current()
	shown := make([]string, len(current))
	for i, id := range current {
		if seen[id][viewer] {
			shown[i] = id
		} else {
			shown[i] = HiddenCard
		}
	}
	mission, _ := d.Mission()
	return DeckView{Current: shown, Pile: d.Pile(), Mission: mission}
}
