package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/game"
)

// GameRepository stores one current game document per login as JSONB.
// Saving overwrites the previous document; starting a new game replaces
// the old one.
type GameRepository struct {
	pool *pgxpool.Pool
}

// NewGameRepository creates a game repository.
func NewGameRepository(pool *pgxpool.Pool) *GameRepository {
	return &GameRepository{pool: pool}
}

// Save upserts the document for the login.
func (r *GameRepository) Save(ctx context.Context, login string, doc *game.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize game document: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO games (login, state, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (login) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		login, raw,
	)
	if err != nil {
		return fmt.Errorf("failed to save game for %q: %w", login, err)
	}
	return nil
}

// Load fetches the current document for the login. A login without a
// saved game maps to game.ErrNoActiveGame.
func (r *GameRepository) Load(ctx context.Context, login string) (*game.Document, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT state FROM games WHERE login = $1`, login,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("login %q: %w", login, game.ErrNoActiveGame)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game for %q: %w", login, err)
	}
	var doc game.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse game document for %q: %w", login, err)
	}
	return &doc, nil
}

// Delete removes the login's saved game, if any.
func (r *GameRepository) Delete(ctx context.Context, login string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM games WHERE login = $1`, login)
	if err != nil {
		return fmt.Errorf("failed to delete game for %q: %w", login, err)
	}
	return nil
}
