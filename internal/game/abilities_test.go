package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/catalog"
)

func grantAnalyst(t *testing.T, e *Engine, side SideID) {
	t.Helper()
	require.NoError(t, e.GrantAbility(side, AbilityAnalyst))
}

func TestAnalystLookAtGroups(t *testing.T) {
	e := newTestEngine(t)
	startBriefing(t, e)
	grantAnalyst(t, e, SidePlayer)

	top, err := e.AnalystLookAtGroups(SidePlayer)
	require.NoError(t, err)
	require.Len(t, top, 3)

	current := e.GroupDeck().Current()
	assert.Equal(t, current[len(current)-3:], top, "look does not reorder")

	view := e.View(SidePlayer)
	deck := view.GroupDeck.Current
	assert.Equal(t, top[2], deck[len(deck)-1], "seen cards identified in the view")
	assert.Equal(t, HiddenCard, e.View(SideOpponent).GroupDeck.Current[len(deck)-1],
		"opponent still blind")
}

func TestAnalystLookTwiceRejected(t *testing.T) {
	e := newTestEngine(t)
	startBriefing(t, e)
	grantAnalyst(t, e, SidePlayer)

	_, err := e.AnalystLookAtGroups(SidePlayer)
	require.NoError(t, err)
	_, err = e.AnalystLookAtGroups(SidePlayer)
	assert.ErrorIs(t, err, ErrAlreadyRevealed)
}

func TestAnalystEligibility(t *testing.T) {
	e := newTestEngine(t)
	startBriefing(t, e)

	_, err := e.AnalystLookAtGroups(SidePlayer)
	assert.ErrorIs(t, err, ErrNoAccess, "never granted")

	grantAnalyst(t, e, SidePlayer)
	commitAgents(t, e, "master_spy", "assassin")
	require.NoError(t, e.Side(SidePlayer).ConsumeAbility(AbilityAnalyst))
	require.NoError(t, e.AdvancePhase()) // planning

	grantAnalyst(t, e, SidePlayer)
	_, err = e.AnalystLookAtGroups(SidePlayer)
	assert.ErrorIs(t, err, ErrWrongPhase, "briefing only")
}

func TestAnalystArrangeGroups(t *testing.T) {
	e := newTestEngine(t)
	startBriefing(t, e)
	grantAnalyst(t, e, SidePlayer)

	top, err := e.AnalystLookAtGroups(SidePlayer)
	require.NoError(t, err)

	reversed := []string{top[2], top[1], top[0]}
	require.NoError(t, e.AnalystArrangeGroups(SidePlayer, reversed))
	assert.False(t, e.Side(SidePlayer).HasAbility(AbilityAnalyst), "one-shot consumed")

	current := e.GroupDeck().Current()
	assert.Equal(t, reversed, current[len(current)-3:])
}

func TestAnalystArrangeMismatchKeepsAbility(t *testing.T) {
	e := newTestEngine(t)
	startBriefing(t, e)
	grantAnalyst(t, e, SidePlayer)

	before := e.GroupDeck().Current()
	err := e.AnalystArrangeGroups(SidePlayer, []string{"not", "in", "deck"})
	assert.ErrorIs(t, err, ErrArrangeMismatch)
	assert.Equal(t, before, e.GroupDeck().Current())
	assert.True(t, e.Side(SidePlayer).HasAbility(AbilityAnalyst))

	err = e.AnalystArrangeGroups(SidePlayer, before[len(before)-2:])
	assert.ErrorIs(t, err, ErrArrangeMismatch, "must cover exactly three cards")
}

func TestNuclearEscalation(t *testing.T) {
	e := newTestEngine(t)
	startBriefing(t, e)
	cat := testCatalog(t)

	var military, civilian string
	for _, id := range cat.GroupIDs() {
		g, _ := cat.Group(id)
		if g.Faction == catalog.FactionMilitary && military == "" {
			military = id
		}
		if g.Faction != catalog.FactionMilitary && civilian == "" {
			civilian = id
		}
	}
	require.NotEmpty(t, military)
	require.NotEmpty(t, civilian)

	// The unshuffled deck puts nuclear escalation in the mission slot;
	// claim it for the player.
	missionID, ok := e.ObjectiveDeck().ClearMission()
	require.True(t, ok)
	require.Equal(t, "nuclear_escalation", missionID)

	player := e.Side(SidePlayer)
	player.OwnedObjectives = []string{missionID}
	player.OwnedGroups = []string{civilian, military}
	e.Side(SideOpponent).OwnedGroups = []string{military}

	require.NoError(t, e.NuclearEscalation(SidePlayer))

	assert.Empty(t, player.OwnedObjectives)
	assert.Contains(t, e.ObjectiveDeck().Pile(), "nuclear_escalation")
	assert.Equal(t, []string{civilian}, player.OwnedGroups)
	assert.Empty(t, e.Side(SideOpponent).OwnedGroups, "both sides disarm")
	assert.Equal(t, []string{military, military}, e.GroupDeck().Pile())
}

func TestNuclearEscalationRequiresObjective(t *testing.T) {
	e := newTestEngine(t)
	startBriefing(t, e)
	assert.ErrorIs(t, e.NuclearEscalation(SidePlayer), ErrNoAccess)
}
