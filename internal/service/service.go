// Package service coordinates game sessions for authenticated players:
// it loads the persisted document, applies one validated operation and
// writes the result back, serializing access per login.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/catalog"
	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/game"
)

// DocumentStore persists one game document per login.
type DocumentStore interface {
	Save(ctx context.Context, login string, doc *game.Document) error
	Load(ctx context.Context, login string) (*game.Document, error)
}

// ActionRecorder appends one action record to a per-login log.
type ActionRecorder interface {
	Record(ctx context.Context, login, action string, details map[string]any) error
}

// GameService is the application layer over the game engine. All
// operations act for the authenticated player's side; the bot opponent
// keeps up through a scripted routine after each player action.
type GameService struct {
	cat      *catalog.Catalog
	store    DocumentStore
	recorder ActionRecorder
	logger   *zap.Logger
	newRand  func() game.RandSource

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewGameService builds the service. The recorder may be nil; history is
// then skipped.
func NewGameService(cat *catalog.Catalog, store DocumentStore, recorder ActionRecorder, logger *zap.Logger) *GameService {
	return &GameService{
		cat:      cat,
		store:    store,
		recorder: recorder,
		logger:   logger,
		newRand:  func() game.RandSource { return game.NewRandSource(time.Now().UnixNano()) },
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockFor returns the per-login mutex, creating it on first use.
func (s *GameService) lockFor(login string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[login]
	if !ok {
		l = &sync.Mutex{}
		s.locks[login] = l
	}
	return l
}

func (s *GameService) record(ctx context.Context, login, action string, details map[string]any) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, login, action, details); err != nil {
		s.logger.Warn("failed to record action",
			zap.String("login", login),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

// withEngine runs one load-mutate-save cycle for the login.
func (s *GameService) withEngine(ctx context.Context, login, action string, fn func(e *game.Engine) error) (*game.GameView, error) {
	l := s.lockFor(login)
	l.Lock()
	defer l.Unlock()

	doc, err := s.store.Load(ctx, login)
	if err != nil {
		return nil, err
	}
	e, err := game.Load(doc, s.cat, s.newRand())
	if err != nil {
		return nil, err
	}
	if err := fn(e); err != nil {
		return nil, err
	}
	saved, err := e.Save()
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, login, saved); err != nil {
		return nil, err
	}
	s.record(ctx, login, action, map[string]any{
		"game_turn":  e.Steps().GameTurn(),
		"turn_phase": e.Steps().TurnPhase().String(),
	})
	return e.View(game.SidePlayer), nil
}

// NewGame starts a fresh session for the login, replacing any saved one.
func (s *GameService) NewGame(ctx context.Context, login string) (*game.GameView, error) {
	l := s.lockFor(login)
	l.Lock()
	defer l.Unlock()

	e := game.NewEngine(s.cat, s.newRand(), login)
	if err := e.DealAndShuffle(); err != nil {
		return nil, err
	}
	doc, err := e.Save()
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, login, doc); err != nil {
		return nil, err
	}
	s.record(ctx, login, "new_game", map[string]any{"game_id": e.ID().String()})
	s.logger.Info("new game started",
		zap.String("login", login),
		zap.String("game_id", e.ID().String()),
	)
	return e.View(game.SidePlayer), nil
}

// State returns the player's current view without mutating anything.
func (s *GameService) State(ctx context.Context, login string) (*game.GameView, error) {
	doc, err := s.store.Load(ctx, login)
	if err != nil {
		return nil, err
	}
	e, err := game.Load(doc, s.cat, s.newRand())
	if err != nil {
		return nil, err
	}
	return e.View(game.SidePlayer), nil
}

// SetFaction assigns the player's faction; the bot takes the opposite.
func (s *GameService) SetFaction(ctx context.Context, login, faction string) (*game.GameView, error) {
	f, err := game.ParseFaction(faction)
	if err != nil {
		return nil, err
	}
	return s.withEngine(ctx, login, "set_faction", func(e *game.Engine) error {
		return e.SetFaction(game.SidePlayer, f)
	})
}

// SetPriority assigns the priority flag before the first briefing.
func (s *GameService) SetPriority(ctx context.Context, login, mode string) (*game.GameView, error) {
	m, err := game.ParsePriorityMode(mode)
	if err != nil {
		return nil, err
	}
	return s.withEngine(ctx, login, "set_priority", func(e *game.Engine) error {
		return e.SetPriority(game.SidePlayer, m)
	})
}

// NextPhase validates the current phase's exit rules, advances and
// applies the entry effects of the new phase. The bot acts first so its
// pending obligations do not block the player.
func (s *GameService) NextPhase(ctx context.Context, login string) (*game.GameView, error) {
	return s.withEngine(ctx, login, "next_phase", func(e *game.Engine) error {
		s.botAct(e)
		if err := e.CheckPreconditionsBeforeAdvance(); err != nil {
			return err
		}
		if err := e.AdvancePhase(); err != nil {
			return err
		}
		if err := e.ApplyPostPhaseEffects(); err != nil {
			return err
		}
		s.botAct(e)
		return nil
	})
}

// NextTurn closes a finished turn. The phase preconditions gate this
// path too: only a session that actually sits at the end of detente may
// roll the counter, so an unfinished turn cannot be skipped.
func (s *GameService) NextTurn(ctx context.Context, login string) (*game.GameView, error) {
	return s.withEngine(ctx, login, "next_turn", func(e *game.Engine) error {
		s.botAct(e)
		err := e.CheckPreconditionsBeforeAdvance()
		switch {
		case errors.Is(err, game.ErrLastPhase):
			return e.AdvanceTurn()
		case err != nil:
			return err
		default:
			return fmt.Errorf("advance turn: %w", game.ErrWrongPhase)
		}
	})
}

// SetAgentInPlay commits one of the player's agents.
func (s *GameService) SetAgentInPlay(ctx context.Context, login, agentID string) (*game.GameView, error) {
	return s.withEngine(ctx, login, "set_agent", func(e *game.Engine) error {
		return e.SetAgentInPlay(game.SidePlayer, agentID)
	})
}

// RecruitGroup draws the top group card into the player's hand of
// influence.
func (s *GameService) RecruitGroup(ctx context.Context, login string) (*game.GameView, error) {
	return s.withEngine(ctx, login, "recruit_group", func(e *game.Engine) error {
		return e.RecruitGroup(game.SidePlayer)
	})
}

// PassInfluence ends the player's influence struggle.
func (s *GameService) PassInfluence(ctx context.Context, login string) (*game.GameView, error) {
	return s.withEngine(ctx, login, "pass_influence", func(e *game.Engine) error {
		return e.PassInfluence(game.SidePlayer)
	})
}

// AnalystLook reveals the top three group cards to the player.
func (s *GameService) AnalystLook(ctx context.Context, login string) ([]string, *game.GameView, error) {
	var cards []string
	view, err := s.withEngine(ctx, login, "analyst_look", func(e *game.Engine) error {
		var err error
		cards, err = e.AnalystLookAtGroups(game.SidePlayer)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return cards, view, nil
}

// AnalystArrange reorders the top three group cards.
func (s *GameService) AnalystArrange(ctx context.Context, login string, order []string) (*game.GameView, error) {
	return s.withEngine(ctx, login, "analyst_arrange", func(e *game.Engine) error {
		return e.AnalystArrangeGroups(game.SidePlayer, order)
	})
}

// NuclearEscalation plays the player's nuclear escalation objective.
func (s *GameService) NuclearEscalation(ctx context.Context, login string) (*game.GameView, error) {
	return s.withEngine(ctx, login, "nuclear_escalation", func(e *game.Engine) error {
		return e.NuclearEscalation(game.SidePlayer)
	})
}

// FinishGame marks the session terminal.
func (s *GameService) FinishGame(ctx context.Context, login string) (*game.GameView, error) {
	return s.withEngine(ctx, login, "finish_game", func(e *game.Engine) error {
		return e.FinishGame()
	})
}

// botAct keeps the scripted opponent's obligations satisfied for the
// current phase: commit an agent while plans are open, recruit once and
// pass during the influence struggle. Errors are deliberately ignored;
// anything the bot cannot do yet simply waits for the player.
func (s *GameService) botAct(e *game.Engine) {
	bot := e.Side(game.SideOpponent)
	switch e.Steps().TurnPhase() {
	case game.PhaseBriefing, game.PhasePlanning:
		if len(bot.AgentsInPlay()) == 0 {
			for _, a := range bot.Agents {
				if a.InHeadquarters {
					if err := e.SetAgentInPlay(game.SideOpponent, a.ID); err == nil {
						break
					}
				}
			}
		}
	case game.PhaseInfluenceStruggle:
		if !bot.InfluencePass {
			if len(bot.OwnedGroups) == 0 {
				_ = e.RecruitGroup(game.SideOpponent)
			}
			_ = e.PassInfluence(game.SideOpponent)
		}
	}
}
