// Package server exposes the game service over HTTP and pushes state
// updates over WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/auth"
	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/game"
	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/history"
	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/repository"
	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/service"
)

// UserStore is the account storage the API needs.
type UserStore interface {
	Create(ctx context.Context, login, passwordHash string) error
	Get(ctx context.Context, login string) (*repository.User, error)
}

// Server wires the HTTP API together.
type Server struct {
	svc     *service.GameService
	users   UserStore
	auth    *auth.Manager
	history *history.Recorder
	hub     *Hub
	logger  *zap.Logger
}

// NewServer builds the API server. The history recorder may be nil.
func NewServer(svc *service.GameService, users UserStore, authMgr *auth.Manager, hist *history.Recorder, hub *Hub, logger *zap.Logger) *Server {
	return &Server{svc: svc, users: users, auth: authMgr, history: hist, hub: hub, logger: logger}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/user/signup", s.handleSignup)
	mux.HandleFunc("POST /api/user/login", s.handleLogin)

	mux.HandleFunc("POST /api/game/new", s.authed(s.handleNewGame))
	mux.HandleFunc("GET /api/game/state", s.authed(s.handleState))
	mux.HandleFunc("GET /api/game/history", s.authed(s.handleHistory))
	mux.HandleFunc("POST /api/game/faction", s.authed(s.handleSetFaction))
	mux.HandleFunc("POST /api/game/priority", s.authed(s.handleSetPriority))
	mux.HandleFunc("POST /api/game/phase/next", s.authed(s.handleNextPhase))
	mux.HandleFunc("POST /api/game/turn/next", s.authed(s.handleNextTurn))
	mux.HandleFunc("POST /api/game/agent", s.authed(s.handleSetAgent))
	mux.HandleFunc("POST /api/game/group/recruit", s.authed(s.handleRecruit))
	mux.HandleFunc("POST /api/game/influence/pass", s.authed(s.handlePassInfluence))
	mux.HandleFunc("POST /api/game/analyst/look", s.authed(s.handleAnalystLook))
	mux.HandleFunc("POST /api/game/analyst/arrange", s.authed(s.handleAnalystArrange))
	mux.HandleFunc("POST /api/game/nuclear", s.authed(s.handleNuclear))
	mux.HandleFunc("POST /api/game/finish", s.authed(s.handleFinish))

	mux.HandleFunc("GET /ws", s.handleWS)

	return mux
}

type credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Login == "" || creds.Password == "" {
		httpError(w, http.StatusBadRequest, "login and password required")
		return
	}
	hash, err := s.auth.HashPassword(creds.Password)
	if err != nil {
		s.internalError(w, "hash password", err)
		return
	}
	if err := s.users.Create(r.Context(), creds.Login, hash); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			httpError(w, http.StatusConflict, "user already exists")
			return
		}
		s.internalError(w, "create user", err)
		return
	}
	s.issueToken(w, creds.Login)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := s.users.Get(r.Context(), creds.Login)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			httpError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.internalError(w, "fetch user", err)
		return
	}
	if err := s.auth.CheckPassword(user.PasswordHash, creds.Password); err != nil {
		httpError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	s.issueToken(w, creds.Login)
}

func (s *Server) issueToken(w http.ResponseWriter, login string) {
	token, err := s.auth.IssueToken(login)
	if err != nil {
		s.internalError(w, "issue token", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// authed wraps a handler with bearer token authentication.
func (s *Server) authed(next func(w http.ResponseWriter, r *http.Request, login string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		login, err := s.loginFromRequest(r)
		if err != nil {
			httpError(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		next(w, r, login)
	}
}

func (s *Server) loginFromRequest(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		// WebSocket clients cannot set headers from the browser.
		token = r.URL.Query().Get("token")
	}
	return s.auth.ParseToken(token)
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request, login string) {
	s.respond(w, login)(s.svc.NewGame(r.Context(), login))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request, login string) {
	view, err := s.svc.State(r.Context(), login)
	if err != nil {
		s.gameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, login string) {
	if s.history == nil {
		httpError(w, http.StatusNotFound, "history is not enabled")
		return
	}
	entries, err := s.history.Recent(r.Context(), login, 100)
	if err != nil {
		s.internalError(w, "read history", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSetFaction(w http.ResponseWriter, r *http.Request, login string) {
	var req struct {
		Faction string `json:"faction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := game.ParseFaction(req.Faction); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respond(w, login)(s.svc.SetFaction(r.Context(), login, req.Faction))
}

func (s *Server) handleSetPriority(w http.ResponseWriter, r *http.Request, login string) {
	var req struct {
		Priority string `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := game.ParsePriorityMode(req.Priority); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respond(w, login)(s.svc.SetPriority(r.Context(), login, req.Priority))
}

func (s *Server) handleNextPhase(w http.ResponseWriter, r *http.Request, login string) {
	s.respond(w, login)(s.svc.NextPhase(r.Context(), login))
}

func (s *Server) handleNextTurn(w http.ResponseWriter, r *http.Request, login string) {
	s.respond(w, login)(s.svc.NextTurn(r.Context(), login))
}

func (s *Server) handleSetAgent(w http.ResponseWriter, r *http.Request, login string) {
	var req struct {
		AgentID string `json:"agent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AgentID == "" {
		httpError(w, http.StatusBadRequest, "agent_id required")
		return
	}
	s.respond(w, login)(s.svc.SetAgentInPlay(r.Context(), login, req.AgentID))
}

func (s *Server) handleRecruit(w http.ResponseWriter, r *http.Request, login string) {
	s.respond(w, login)(s.svc.RecruitGroup(r.Context(), login))
}

func (s *Server) handlePassInfluence(w http.ResponseWriter, r *http.Request, login string) {
	s.respond(w, login)(s.svc.PassInfluence(r.Context(), login))
}

func (s *Server) handleAnalystLook(w http.ResponseWriter, r *http.Request, login string) {
	cards, view, err := s.svc.AnalystLook(r.Context(), login)
	if err != nil {
		s.gameError(w, err)
		return
	}
	s.hub.Push(login, view)
	writeJSON(w, http.StatusOK, map[string]any{"cards": cards, "state": view})
}

func (s *Server) handleAnalystArrange(w http.ResponseWriter, r *http.Request, login string) {
	var req struct {
		Order []string `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Order) == 0 {
		httpError(w, http.StatusBadRequest, "order required")
		return
	}
	s.respond(w, login)(s.svc.AnalystArrange(r.Context(), login, req.Order))
}

func (s *Server) handleNuclear(w http.ResponseWriter, r *http.Request, login string) {
	s.respond(w, login)(s.svc.NuclearEscalation(r.Context(), login))
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request, login string) {
	s.respond(w, login)(s.svc.FinishGame(r.Context(), login))
}

// respond writes the view or maps the error, and pushes the new state to
// the login's WebSocket subscribers on success.
func (s *Server) respond(w http.ResponseWriter, login string) func(*game.GameView, error) {
	return func(view *game.GameView, err error) {
		if err != nil {
			s.gameError(w, err)
			return
		}
		s.hub.Push(login, view)
		writeJSON(w, http.StatusOK, view)
	}
}

// gameError maps engine sentinels to HTTP statuses.
func (s *Server) gameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrNoActiveGame),
		errors.Is(err, game.ErrNotAvailable),
		errors.Is(err, game.ErrNoAccess):
		httpError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrAlreadySet),
		errors.Is(err, game.ErrGameEnded),
		errors.Is(err, game.ErrWrongPhase),
		errors.Is(err, game.ErrLastPhase),
		errors.Is(err, game.ErrAlreadyRevealed),
		errors.Is(err, game.ErrEmptyDeck),
		errors.Is(err, game.ErrNoPriority),
		errors.Is(err, game.ErrNoMissionCard),
		errors.Is(err, game.ErrAnalystPending),
		errors.Is(err, game.ErrAgentNotChosen),
		errors.Is(err, game.ErrBothMustPass),
		errors.Is(err, game.ErrCannotPassEmpty):
		httpError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrArrangeMismatch),
		errors.Is(err, game.ErrInsufficientCards):
		httpError(w, http.StatusBadRequest, err.Error())
	default:
		s.internalError(w, "game operation", err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error("internal error", zap.String("op", op), zap.Error(err))
	httpError(w, http.StatusInternalServerError, "internal error")
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
