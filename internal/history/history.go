// Package history keeps an append-only per-player action log in Redis.
// The log is diagnostic; the authoritative state lives in PostgreSQL.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is one recorded action.
type Entry struct {
	Login   string         `json:"login"`
	Action  string         `json:"action"`
	Details map[string]any `json:"details,omitempty"`
	At      time.Time      `json:"at"`
}

// Recorder writes entries to a capped Redis list per login.
type Recorder struct {
	rdb   *redis.Client
	limit int64
}

// NewRecorder creates a recorder keeping at most limit entries per login.
func NewRecorder(rdb *redis.Client, limit int64) *Recorder {
	if limit <= 0 {
		limit = 1000
	}
	return &Recorder{rdb: rdb, limit: limit}
}

func key(login string) string {
	return "game:history:" + login
}

// Record pushes one entry to the front of the login's list and trims it.
func (r *Recorder) Record(ctx context.Context, login, action string, details map[string]any) error {
	entry := Entry{Login: login, Action: action, Details: details, At: time.Now().UTC()}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to serialize history entry: %w", err)
	}
	pipe := r.rdb.Pipeline()
	pipe.LPush(ctx, key(login), raw)
	pipe.LTrim(ctx, key(login), 0, r.limit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record history for %q: %w", login, err)
	}
	return nil
}

// Recent returns up to n most recent entries, newest first.
func (r *Recorder) Recent(ctx context.Context, login string, n int64) ([]Entry, error) {
	raws, err := r.rdb.LRange(ctx, key(login), 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history for %q: %w", login, err)
	}
	entries := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("failed to parse history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
