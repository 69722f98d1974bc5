package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/catalog"
)

// stubRand makes chance deterministic: a fixed coin and a no-op shuffle
// that keeps decks in catalog order.
type stubRand struct{ flip bool }

func (s stubRand) CoinFlip() bool              { return s.flip }
func (s stubRand) Shuffle(int, func(i, j int)) {}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)
	return cat
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(testCatalog(t), stubRand{flip: true}, "alice")
	require.NoError(t, e.DealAndShuffle())
	return e
}

// startBriefing walks a fresh engine through setup into the briefing
// phase with its entry effects applied.
func startBriefing(t *testing.T, e *Engine) {
	t.Helper()
	require.NoError(t, e.SetFaction(SidePlayer, FactionCIA))
	require.NoError(t, e.SetPriority(SidePlayer, PriorityYes))
	require.NoError(t, e.AdvancePhase())
	require.NoError(t, e.ApplyPostPhaseEffects())
}

func commitAgents(t *testing.T, e *Engine, playerAgent, opponentAgent string) {
	t.Helper()
	require.NoError(t, e.SetAgentInPlay(SidePlayer, playerAgent))
	require.NoError(t, e.SetAgentInPlay(SideOpponent, opponentAgent))
}

func TestNewEngineInitialState(t *testing.T) {
	e := newTestEngine(t)

	assert.Equal(t, 1, e.Steps().GameTurn())
	assert.Equal(t, PhaseNone, e.Steps().TurnPhase())
	assert.False(t, e.Steps().IsGameEnd())

	player := e.Side(SidePlayer)
	assert.Equal(t, "alice", player.Login)
	assert.False(t, player.Bot)
	assert.True(t, e.Side(SideOpponent).Bot)
	assert.Nil(t, player.Priority)
	assert.Equal(t, FactionNone, player.Faction)

	assert.Equal(t, len(e.cat.GroupIDs()), e.GroupDeck().Len())
	assert.Equal(t, len(e.cat.ObjectiveIDs()), e.ObjectiveDeck().Len())
	for _, a := range player.Agents {
		assert.True(t, a.InHeadquarters)
		assert.False(t, a.Revealed)
	}
}

func TestSetFactionComplementaryAndOnce(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.SetFaction(SidePlayer, FactionKGB))
	assert.Equal(t, FactionKGB, e.Side(SidePlayer).Faction)
	assert.Equal(t, FactionCIA, e.Side(SideOpponent).Faction)

	assert.ErrorIs(t, e.SetFaction(SidePlayer, FactionCIA), ErrAlreadySet)
	assert.ErrorIs(t, e.SetFaction(SideOpponent, FactionKGB), ErrAlreadySet)
}

func TestSetPriorityModes(t *testing.T) {
	t.Run("explicit", func(t *testing.T) {
		e := newTestEngine(t)
		require.NoError(t, e.SetPriority(SidePlayer, PriorityNo))
		require.NotNil(t, e.Side(SidePlayer).Priority)
		assert.False(t, *e.Side(SidePlayer).Priority)
		assert.True(t, *e.Side(SideOpponent).Priority)
	})

	t.Run("random uses the coin", func(t *testing.T) {
		e := NewEngine(testCatalog(t), stubRand{flip: false}, "alice")
		require.NoError(t, e.SetPriority(SidePlayer, PriorityRandom))
		assert.False(t, *e.Side(SidePlayer).Priority)
		assert.True(t, *e.Side(SideOpponent).Priority)
	})

	t.Run("once per session", func(t *testing.T) {
		e := newTestEngine(t)
		require.NoError(t, e.SetPriority(SideOpponent, PriorityYes))
		assert.ErrorIs(t, e.SetPriority(SidePlayer, PriorityYes), ErrAlreadySet)
	})
}

func TestBriefingEffectsDrawMissionAndPriority(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.SetFaction(SidePlayer, FactionCIA))
	require.NoError(t, e.AdvancePhase())
	require.NoError(t, e.ApplyPostPhaseEffects())

	mission, ok := e.ObjectiveDeck().Mission()
	require.True(t, ok)
	ids := e.cat.ObjectiveIDs()
	assert.Equal(t, ids[len(ids)-1], mission, "top of the unshuffled deck")

	require.NotNil(t, e.Side(SidePlayer).Priority, "turn 1 coin flip assigns priority")
	assert.True(t, *e.Side(SidePlayer).Priority)
	assert.False(t, *e.Side(SideOpponent).Priority)
}

func TestBriefingPreconditionOrder(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.AdvancePhase())

	// No priority and no mission yet: priority is reported first.
	assert.ErrorIs(t, e.CheckPreconditionsBeforeAdvance(), ErrNoPriority)

	require.NoError(t, e.SetPriority(SidePlayer, PriorityYes))
	assert.ErrorIs(t, e.CheckPreconditionsBeforeAdvance(), ErrNoMissionCard)

	require.NoError(t, e.SetMissionCard())
	assert.ErrorIs(t, e.CheckPreconditionsBeforeAdvance(), ErrAgentNotChosen)

	require.NoError(t, e.GrantAbility(SidePlayer, AbilityAnalyst))
	assert.ErrorIs(t, e.CheckPreconditionsBeforeAdvance(), ErrAnalystPending,
		"pending analyst outranks the agent check")

	require.NoError(t, e.Side(SidePlayer).ConsumeAbility(AbilityAnalyst))
	commitAgents(t, e, "master_spy", "assassin")
	assert.NoError(t, e.CheckPreconditionsBeforeAdvance())
}

func TestAgentCommitPhaseWindow(t *testing.T) {
	e := newTestEngine(t)
	startBriefing(t, e)

	require.NoError(t, e.SetAgentInPlay(SidePlayer, "master_spy"))

	require.NoError(t, e.AdvancePhase()) // planning
	require.NoError(t, e.ApplyPostPhaseEffects())
	require.NoError(t, e.SetAgentInPlay(SideOpponent, "assassin"))

	require.NoError(t, e.AdvancePhase()) // influence struggle
	require.NoError(t, e.ApplyPostPhaseEffects())
	assert.ErrorIs(t, e.SetAgentInPlay(SidePlayer, "director"), ErrWrongPhase)
}

func TestRecruitAndPassInfluence(t *testing.T) {
	e := newTestEngine(t)
	startBriefing(t, e)
	commitAgents(t, e, "master_spy", "assassin")
	require.NoError(t, e.AdvancePhase()) // planning
	require.NoError(t, e.AdvancePhase()) // influence struggle
	require.NoError(t, e.ApplyPostPhaseEffects())

	assert.ErrorIs(t, e.PassInfluence(SidePlayer), ErrCannotPassEmpty)
	assert.ErrorIs(t, e.CheckPreconditionsBeforeAdvance(), ErrBothMustPass)

	deckBefore := e.GroupDeck().Len()
	require.NoError(t, e.RecruitGroup(SidePlayer))
	assert.Equal(t, deckBefore-1, e.GroupDeck().Len())
	assert.Len(t, e.Side(SidePlayer).OwnedGroups, 1)

	require.NoError(t, e.PassInfluence(SidePlayer))
	assert.ErrorIs(t, e.CheckPreconditionsBeforeAdvance(), ErrBothMustPass)

	require.NoError(t, e.RecruitGroup(SideOpponent))
	require.NoError(t, e.PassInfluence(SideOpponent))
	assert.NoError(t, e.CheckPreconditionsBeforeAdvance())
}

func TestRecruitOutsideInfluencePhase(t *testing.T) {
	e := newTestEngine(t)
	startBriefing(t, e)
	assert.ErrorIs(t, e.RecruitGroup(SidePlayer), ErrWrongPhase)
}

// playFullTurn drives one complete turn: setup is assumed done and the
// engine sits in briefing with effects applied.
func playFullTurn(t *testing.T, e *Engine, playerAgent, opponentAgent string) {
	t.Helper()
	commitAgents(t, e, playerAgent, opponentAgent)
	require.NoError(t, e.CheckPreconditionsBeforeAdvance())

	require.NoError(t, e.AdvancePhase()) // planning
	require.NoError(t, e.ApplyPostPhaseEffects())

	require.NoError(t, e.AdvancePhase()) // influence struggle
	require.NoError(t, e.ApplyPostPhaseEffects())
	require.NoError(t, e.RecruitGroup(SidePlayer))
	require.NoError(t, e.RecruitGroup(SideOpponent))
	require.NoError(t, e.PassInfluence(SidePlayer))
	require.NoError(t, e.PassInfluence(SideOpponent))
	require.NoError(t, e.CheckPreconditionsBeforeAdvance())

	require.NoError(t, e.AdvancePhase()) // ceasefire
	require.NoError(t, e.ApplyPostPhaseEffects())
	assert.False(t, e.Side(SidePlayer).InfluencePass, "ceasefire resets passes")

	require.NoError(t, e.AdvancePhase()) // debriefing
	require.NoError(t, e.ApplyPostPhaseEffects())
	assert.True(t, e.Side(SidePlayer).Agent(playerAgent).Revealed)

	require.NoError(t, e.AdvancePhase()) // detente
	require.NoError(t, e.ApplyPostPhaseEffects())

	assert.ErrorIs(t, e.CheckPreconditionsBeforeAdvance(), ErrLastPhase)
	assert.ErrorIs(t, e.AdvancePhase(), ErrLastPhase)
	require.NoError(t, e.AdvanceTurn())
}

func TestFullTurnProgression(t *testing.T) {
	e := newTestEngine(t)
	startBriefing(t, e)
	playFullTurn(t, e, "master_spy", "assassin")

	assert.Equal(t, 2, e.Steps().GameTurn())
	assert.Equal(t, PhaseNone, e.Steps().TurnPhase())

	spy := e.Side(SidePlayer).Agent("master_spy")
	assert.True(t, spy.OnLeave, "committed agent rests after detente")
	assert.False(t, spy.InPlay)
}

func TestDeputyReturnsToHeadquartersAfterDetente(t *testing.T) {
	e := newTestEngine(t)
	startBriefing(t, e)
	deputy := e.cat.DeputyAgentID()
	require.NotEmpty(t, deputy)
	playFullTurn(t, e, deputy, "assassin")

	a := e.Side(SidePlayer).Agent(deputy)
	assert.True(t, a.InHeadquarters)
	assert.False(t, a.OnLeave)
	assert.False(t, a.Revealed, "deputy slips home unseen")
}

func TestOnLeaveAgentsReturnDuringInfluence(t *testing.T) {
	e := newTestEngine(t)
	startBriefing(t, e)
	playFullTurn(t, e, "master_spy", "assassin")

	// Turn 2 up to the influence struggle.
	require.NoError(t, e.AdvancePhase())
	require.NoError(t, e.ApplyPostPhaseEffects())
	commitAgents(t, e, "director", "double_agent")
	require.NoError(t, e.AdvancePhase())
	require.NoError(t, e.AdvancePhase())
	require.NoError(t, e.ApplyPostPhaseEffects())

	spy := e.Side(SidePlayer).Agent("master_spy")
	assert.True(t, spy.InHeadquarters)
	assert.False(t, spy.OnLeave)
	assert.False(t, spy.Revealed)
}

func TestTurnPriorityFollowsScore(t *testing.T) {
	e := newTestEngine(t)
	startBriefing(t, e)
	playFullTurn(t, e, "master_spy", "assassin")

	e.Side(SideOpponent).AddScore(10)
	require.NoError(t, e.AdvancePhase())
	require.NoError(t, e.ApplyPostPhaseEffects())

	assert.False(t, *e.Side(SidePlayer).Priority)
	assert.True(t, *e.Side(SideOpponent).Priority)
}

func TestTurnPriorityTieKeepsPrevious(t *testing.T) {
	e := newTestEngine(t)
	startBriefing(t, e)
	playFullTurn(t, e, "master_spy", "assassin")

	require.NoError(t, e.AdvancePhase())
	require.NoError(t, e.ApplyPostPhaseEffects())

	assert.True(t, *e.Side(SidePlayer).Priority, "tied scores leave the flag alone")
}

func TestSetMissionCardDiscardsPrevious(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.SetMissionCard())
	first, ok := e.ObjectiveDeck().Mission()
	require.True(t, ok)

	require.NoError(t, e.SetMissionCard())
	second, ok := e.ObjectiveDeck().Mission()
	require.True(t, ok)
	assert.NotEqual(t, first, second)
	assert.Contains(t, e.ObjectiveDeck().Pile(), first, "replaced mission goes to the pile")

	// Every objective card is still accounted for.
	doc, err := e.Save()
	require.NoError(t, err)
	_, err = Load(doc, e.cat, stubRand{flip: true})
	require.NoError(t, err)
}

func TestPassInfluenceOutsideStrugglePhase(t *testing.T) {
	e := newTestEngine(t)
	startBriefing(t, e)
	playFullTurn(t, e, "master_spy", "assassin")

	// Turn 2 briefing; the groups recruited last turn are still owned.
	require.NoError(t, e.AdvancePhase())
	require.NoError(t, e.ApplyPostPhaseEffects())
	require.NotEmpty(t, e.Side(SidePlayer).OwnedGroups)

	assert.ErrorIs(t, e.PassInfluence(SidePlayer), ErrWrongPhase)
	assert.False(t, e.Side(SidePlayer).InfluencePass)
}

func TestDoubleAgentRevealGrantedOnDebriefing(t *testing.T) {
	e := newTestEngine(t)
	startBriefing(t, e)
	playFullTurn(t, e, "double_agent", "assassin")

	player := e.Side(SidePlayer)
	require.True(t, player.HasAbility(AbilityAgentX), "revealed double agent grants the one-shot")

	// Turn 2: the next committed agent is exposed immediately.
	require.NoError(t, e.AdvancePhase())
	require.NoError(t, e.ApplyPostPhaseEffects())
	require.NoError(t, e.SetAgentInPlay(SidePlayer, "master_spy"))

	assert.True(t, player.Agent("master_spy").Revealed)
	assert.False(t, player.HasAbility(AbilityAgentX), "one-shot consumed")
}

func TestBriefingRotatesMission(t *testing.T) {
	e := newTestEngine(t)
	startBriefing(t, e)
	first, ok := e.ObjectiveDeck().Mission()
	require.True(t, ok)
	playFullTurn(t, e, "master_spy", "assassin")

	require.NoError(t, e.AdvancePhase())
	require.NoError(t, e.ApplyPostPhaseEffects())

	second, ok := e.ObjectiveDeck().Mission()
	require.True(t, ok)
	assert.NotEqual(t, first, second)
	assert.Contains(t, e.ObjectiveDeck().Pile(), first, "old mission is discarded")
}

func TestFinishGameBlocksMutations(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.FinishGame())

	assert.ErrorIs(t, e.FinishGame(), ErrGameEnded)
	assert.ErrorIs(t, e.AdvancePhase(), ErrGameEnded)
	assert.ErrorIs(t, e.AdvanceTurn(), ErrGameEnded)
	assert.ErrorIs(t, e.SetFaction(SidePlayer, FactionCIA), ErrGameEnded)
	assert.ErrorIs(t, e.RecruitGroup(SidePlayer), ErrGameEnded)
	assert.ErrorIs(t, e.CheckPreconditionsBeforeAdvance(), ErrGameEnded)
}

func TestSideForLogin(t *testing.T) {
	e := newTestEngine(t)

	id, err := e.SideForLogin("alice")
	require.NoError(t, err)
	assert.Equal(t, SidePlayer, id)

	_, err = e.SideForLogin("mallory")
	assert.ErrorIs(t, err, ErrNoActiveGame)
}
