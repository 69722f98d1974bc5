package game

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/catalog"
)

// Document is the full-fidelity persistence form of a session. It stores
// hidden information (deck orders, unrevealed agents) and must never be
// sent to a player; the redacted View covers that. The checksum is a
// SHA-256 over the canonical JSON of the document with the checksum
// field empty, so a restored document can be verified byte for byte.
type Document struct {
	ID      string    `json:"id"`
	SavedAt time.Time `json:"saved_at"`

	Steps StepsDoc   `json:"steps"`
	Sides [2]SideDoc `json:"sides"`

	GroupDeck     DeckDoc `json:"group_deck"`
	ObjectiveDeck DeckDoc `json:"objective_deck"`

	GroupSeen     map[string][2]bool `json:"group_seen"`
	ObjectiveSeen map[string][2]bool `json:"objective_seen"`

	Checksum string `json:"checksum,omitempty"`
}

// StepsDoc persists the turn/phase tracker. Phases are stored by name so
// a saved game stays readable if the internal enum order changes.
type StepsDoc struct {
	GameTurn   int      `json:"game_turn"`
	TurnPhase  string   `json:"turn_phase"`
	PhasesLeft []string `json:"phases_left"`
	GameEnd    bool     `json:"is_game_end"`
}

// SideDoc persists one participant.
type SideDoc struct {
	Login         string     `json:"login,omitempty"`
	Bot           bool       `json:"bot"`
	Score         int        `json:"score"`
	Faction       string     `json:"faction,omitempty"`
	Priority      *bool      `json:"has_priority,omitempty"`
	InfluencePass bool       `json:"influence_pass"`
	Agents        []AgentDoc `json:"agents"`
	Awaiting      []string   `json:"awaiting_abilities,omitempty"`
	OwnedGroups   []string   `json:"owned_groups,omitempty"`
	OwnedObjs     []string   `json:"owned_objectives,omitempty"`
}

// AgentDoc persists one agent state record.
type AgentDoc struct {
	ID           string `json:"id"`
	Headquarters bool   `json:"in_headquarters"`
	InPlay       bool   `json:"in_play"`
	OnLeave      bool   `json:"on_leave"`
	Terminated   bool   `json:"terminated"`
	Revealed     bool   `json:"revealed"`
}

// DeckDoc persists one deck, current order top last.
type DeckDoc struct {
	Current []string `json:"current"`
	Pile    []string `json:"pile,omitempty"`
	Mission string   `json:"mission,omitempty"`
}

// Save produces the persistence document for the session, checksummed.
func (e *Engine) Save() (*Document, error) {
	doc := &Document{
		ID:            e.id.String(),
		SavedAt:       time.Now().UTC(),
		Steps:         saveSteps(e.steps),
		GroupDeck:     saveDeck(e.groups),
		ObjectiveDeck: saveDeck(e.objectives),
		GroupSeen:     copySeen(e.groupSeen),
		ObjectiveSeen: copySeen(e.objectiveSeen),
	}
	for i, s := range e.sides {
		doc.Sides[i] = saveSide(s)
	}
	sum, err := documentChecksum(doc)
	if err != nil {
		return nil, err
	}
	doc.Checksum = sum
	return doc, nil
}

// Load rebuilds an engine from a persistence document. The checksum is
// verified when present, phase names are parsed, and each deck is
// checked against the catalog: current order, pile, mission slot and
// owned cards together must be exactly the catalog set.
func Load(doc *Document, cat *catalog.Catalog, rnd RandSource) (*Engine, error) {
	if doc.Checksum != "" {
		want := doc.Checksum
		got, err := documentChecksum(doc)
		if err != nil {
			return nil, err
		}
		if got != want {
			return nil, fmt.Errorf("document checksum mismatch: got %s want %s", got, want)
		}
	}
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", doc.ID, err)
	}
	steps, err := loadSteps(doc.Steps)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		id:            id,
		cat:           cat,
		rnd:           rnd,
		steps:         steps,
		groups:        loadDeck(doc.GroupDeck),
		objectives:    loadDeck(doc.ObjectiveDeck),
		groupSeen:     copySeen(doc.GroupSeen),
		objectiveSeen: copySeen(doc.ObjectiveSeen),
	}
	for i := range doc.Sides {
		e.sides[i] = loadSide(doc.Sides[i])
	}
	if err := e.validateCardSets(); err != nil {
		return nil, err
	}
	return e, nil
}

func saveSteps(s *Steps) StepsDoc {
	left := make([]string, 0, len(s.phasesLeft))
	for _, p := range s.phasesLeft {
		left = append(left, p.String())
	}
	return StepsDoc{
		GameTurn:   s.gameTurn,
		TurnPhase:  s.turnPhase.String(),
		PhasesLeft: left,
		GameEnd:    s.gameEnd,
	}
}

func loadSteps(doc StepsDoc) (*Steps, error) {
	phase, err := ParsePhase(doc.TurnPhase)
	if err != nil {
		return nil, err
	}
	left := make([]Phase, 0, len(doc.PhasesLeft))
	for _, name := range doc.PhasesLeft {
		p, err := ParsePhase(name)
		if err != nil {
			return nil, err
		}
		left = append(left, p)
	}
	return restoreSteps(doc.GameTurn, phase, left, doc.GameEnd), nil
}

func saveSide(s *Side) SideDoc {
	doc := SideDoc{
		Login:         s.Login,
		Bot:           s.Bot,
		Score:         s.Score,
		Faction:       string(s.Faction),
		Priority:      copyBoolPtr(s.Priority),
		InfluencePass: s.InfluencePass,
		Agents:        make([]AgentDoc, len(s.Agents)),
		Awaiting:      append([]string(nil), s.Awaiting...),
		OwnedGroups:   append([]string(nil), s.OwnedGroups...),
		OwnedObjs:     append([]string(nil), s.OwnedObjectives...),
	}
	for i, a := range s.Agents {
		doc.Agents[i] = AgentDoc{
			ID:           a.ID,
			Headquarters: a.InHeadquarters,
			InPlay:       a.InPlay,
			OnLeave:      a.OnLeave,
			Terminated:   a.Terminated,
			Revealed:     a.Revealed,
		}
	}
	return doc
}

func loadSide(doc SideDoc) *Side {
	s := &Side{
		Login:           doc.Login,
		Bot:             doc.Bot,
		Score:           doc.Score,
		Faction:         Faction(doc.Faction),
		Priority:        copyBoolPtr(doc.Priority),
		InfluencePass:   doc.InfluencePass,
		Agents:          make([]*AgentState, len(doc.Agents)),
		Awaiting:        append([]string(nil), doc.Awaiting...),
		OwnedGroups:     append([]string(nil), doc.OwnedGroups...),
		OwnedObjectives: append([]string(nil), doc.OwnedObjs...),
	}
	for i, a := range doc.Agents {
		s.Agents[i] = &AgentState{
			ID:             a.ID,
			InHeadquarters: a.Headquarters,
			InPlay:         a.InPlay,
			OnLeave:        a.OnLeave,
			Terminated:     a.Terminated,
			Revealed:       a.Revealed,
		}
	}
	return s
}

func saveDeck(d *Deck) DeckDoc {
	return DeckDoc{Current: d.Current(), Pile: d.Pile(), Mission: d.mission}
}

func loadDeck(doc DeckDoc) *Deck {
	d := NewDeck(doc.Current)
	d.setPile(doc.Pile)
	d.setMission(doc.Mission)
	return d
}

// validateCardSets checks that every catalog card of each kind appears
// exactly once across the places it can live.
func (e *Engine) validateCardSets() error {
	groups := e.groups.Current()
	groups = append(groups, e.groups.Pile()...)
	objectives := e.objectives.Current()
	objectives = append(objectives, e.objectives.Pile()...)
	if m, ok := e.objectives.Mission(); ok {
		objectives = append(objectives, m)
	}
	for _, s := range e.sides {
		groups = append(groups, s.OwnedGroups...)
		objectives = append(objectives, s.OwnedObjectives...)
	}
	if err := multisetEqual("group", groups, e.cat.GroupIDs()); err != nil {
		return err
	}
	if err := multisetEqual("objective", objectives, e.cat.ObjectiveIDs()); err != nil {
		return err
	}
	for i, s := range e.sides {
		if err := multisetEqual(fmt.Sprintf("%s agent", SideID(i)), agentIDsOf(s), e.cat.AgentIDs()); err != nil {
			return err
		}
	}
	return nil
}

func agentIDsOf(s *Side) []string {
	ids := make([]string, len(s.Agents))
	for i, a := range s.Agents {
		ids[i] = a.ID
	}
	return ids
}

func multisetEqual(kind string, got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("%s cards: have %d, catalog has %d", kind, len(got), len(want))
	}
	counts := make(map[string]int, len(want))
	for _, id := range want {
		counts[id]++
	}
	for _, id := range got {
		if counts[id] == 0 {
			return fmt.Errorf("%s cards: unexpected or duplicated id %q", kind, id)
		}
		counts[id]--
	}
	return nil
}

func copySeen(m map[string][2]bool) map[string][2]bool {
	out := make(map[string][2]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyBoolPtr(p *bool) *bool {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// documentChecksum hashes the canonical JSON of the document with the
// checksum field cleared.
func documentChecksum(doc *Document) (string, error) {
	clone := *doc
	clone.Checksum = ""
	raw, err := json.Marshal(&clone)
	if err != nil {
		return "", fmt.Errorf("failed to serialize document: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
