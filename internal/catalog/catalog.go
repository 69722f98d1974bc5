// Package catalog loads the static card set into a read-only lookup.
// Card attributes never change after load; the game engine receives a
// *Catalog at construction time and never calls back into this package.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed data/cards.json
var cardData []byte

// Card kinds.
const (
	KindAgent     = "agent"
	KindGroup     = "group"
	KindObjective = "objective"
)

// Special-ability identifiers carried by cards.
const (
	SpecialDeputy            = "deputy"
	SpecialAnalyst           = "analyst"
	SpecialDoubleAgent       = "double_agent"
	SpecialNuclearEscalation = "nuclear_escalation"
)

// Group factions.
const (
	FactionMilitary   = "military"
	FactionGovernment = "government"
	FactionEconomic   = "economic"
	FactionMedia      = "media"
	FactionScience    = "science"
)

// AgentCard is the static description of an agent. Each side holds the
// same six agents.
type AgentCard struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Influence int    `json:"influence"`
	Special   string `json:"special,omitempty"`
}

// GroupCard is the static description of a group card.
type GroupCard struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Faction   string `json:"faction"`
	Influence int    `json:"influence"`
	Power     int    `json:"power"`
}

// ObjectiveCard is the static description of an objective card.
type ObjectiveCard struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Stability int      `json:"stability"`
	Victory   int      `json:"victory"`
	Bias      []string `json:"bias,omitempty"`
	Special   string   `json:"special,omitempty"`
}

type cardFile struct {
	Agents     []AgentCard     `json:"agents"`
	Groups     []GroupCard     `json:"groups"`
	Objectives []ObjectiveCard `json:"objectives"`
}

// Catalog is the immutable card lookup, partitioned by kind. The slice
// order is the catalog default deck order used for brand-new sessions.
type Catalog struct {
	agents     []AgentCard
	groups     []GroupCard
	objectives []ObjectiveCard

	agentByID     map[string]AgentCard
	groupByID     map[string]GroupCard
	objectiveByID map[string]ObjectiveCard
}

// Load parses the embedded card data into a Catalog.
func Load() (*Catalog, error) {
	var file cardFile
	if err := json.Unmarshal(cardData, &file); err != nil {
		return nil, fmt.Errorf("failed to parse card data: %w", err)
	}
	return build(file)
}

func build(file cardFile) (*Catalog, error) {
	c := &Catalog{
		agents:        file.Agents,
		groups:        file.Groups,
		objectives:    file.Objectives,
		agentByID:     make(map[string]AgentCard, len(file.Agents)),
		groupByID:     make(map[string]GroupCard, len(file.Groups)),
		objectiveByID: make(map[string]ObjectiveCard, len(file.Objectives)),
	}
	for _, a := range file.Agents {
		if _, dup := c.agentByID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate agent id %q", a.ID)
		}
		c.agentByID[a.ID] = a
	}
	for _, g := range file.Groups {
		if _, dup := c.groupByID[g.ID]; dup {
			return nil, fmt.Errorf("duplicate group id %q", g.ID)
		}
		c.groupByID[g.ID] = g
	}
	for _, o := range file.Objectives {
		if _, dup := c.objectiveByID[o.ID]; dup {
			return nil, fmt.Errorf("duplicate objective id %q", o.ID)
		}
		c.objectiveByID[o.ID] = o
	}
	return c, nil
}

// Agent returns the agent card for id.
func (c *Catalog) Agent(id string) (AgentCard, bool) {
	a, ok := c.agentByID[id]
	return a, ok
}

// Group returns the group card for id.
func (c *Catalog) Group(id string) (GroupCard, bool) {
	g, ok := c.groupByID[id]
	return g, ok
}

// Objective returns the objective card for id.
func (c *Catalog) Objective(id string) (ObjectiveCard, bool) {
	o, ok := c.objectiveByID[id]
	return o, ok
}

// AgentIDs returns agent ids in catalog order.
func (c *Catalog) AgentIDs() []string {
	ids := make([]string, len(c.agents))
	for i, a := range c.agents {
		ids[i] = a.ID
	}
	return ids
}

// GroupIDs returns group card ids in catalog default deck order.
func (c *Catalog) GroupIDs() []string {
	ids := make([]string, len(c.groups))
	for i, g := range c.groups {
		ids[i] = g.ID
	}
	return ids
}

// ObjectiveIDs returns objective card ids in catalog default deck order.
func (c *Catalog) ObjectiveIDs() []string {
	ids := make([]string, len(c.objectives))
	for i, o := range c.objectives {
		ids[i] = o.ID
	}
	return ids
}

// DeputyAgentID returns the id of the agent carrying the deputy special,
// or empty when the card set has none.
func (c *Catalog) DeputyAgentID() string {
	for _, a := range c.agents {
		if a.Special == SpecialDeputy {
			return a.ID
		}
	}
	return ""
}
