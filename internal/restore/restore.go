// Package restore loads persisted state into a fresh store at start-up.
package restore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"animehub/internal/apperr"
	"animehub/internal/kvstore"
	"animehub/internal/persist"
	"animehub/internal/state"
	"animehub/pkg/models"
)

// DefaultTimeout bounds the read of each key.
const DefaultTimeout = 5 * time.Second

type Outcome string

const (
	OutcomeRestored Outcome = "restored"
	OutcomeAbsent   Outcome = "absent"
	OutcomeFailed   Outcome = "failed"
)

// Report says what happened to each key.
type Report struct {
	Outcomes map[string]Outcome
	Errors   map[string]error
	Duration time.Duration
}

// Failed lists the keys that could not be restored.
func (r Report) Failed() []string {
	var keys []string
	for _, key := range persist.Keys {
		if r.Outcomes[key] == OutcomeFailed {
			keys = append(keys, key)
		}
	}
	return keys
}

type result struct {
	outcome Outcome
	err     error
	skipped string // why a readable value was not installed
}

// Run reads the session and the three lists concurrently and installs
// whatever it can decode. A key that is missing, unreadable or corrupt is
// left empty and never holds up the others. The store is marked ready
// before Run returns, whatever happened.
func Run(ctx context.Context, f *persist.Facilities, store *state.Store, timeout time.Duration, logger *zap.Logger) Report {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("restore")
	defer store.MarkReady()

	start := time.Now()
	results := make([]result, len(persist.Keys))

	var g errgroup.Group
	for i, key := range persist.Keys {
		g.Go(func() error {
			results[i] = restoreKey(ctx, f.For(key), key, store, timeout)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Outcomes: make(map[string]Outcome, len(results)),
		Errors:   make(map[string]error),
		Duration: time.Since(start),
	}
	for i, key := range persist.Keys {
		r := results[i]
		report.Outcomes[key] = r.outcome
		if r.err != nil {
			report.Errors[key] = r.err
			logger.Warn("restore_key_failed", zap.String("key", key), zap.Error(r.err))
		}
		if r.skipped != "" {
			logger.Warn("restore_key_skipped", zap.String("key", key), zap.String("reason", r.skipped))
		}
	}

	s := store.Stats()
	logger.Info("restore_complete",
		zap.Bool("authenticated", store.IsAuthenticated()),
		zap.Int("favorites", s.Favorites),
		zap.Int("watching", s.Watching),
		zap.Int("completed", s.Completed),
		zap.Strings("failed", report.Failed()),
		zap.Duration("duration", report.Duration),
	)
	return report
}

func restoreKey(ctx context.Context, kv kvstore.Store, key string, store *state.Store, timeout time.Duration) result {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := kv.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return result{outcome: OutcomeAbsent}
	}
	if err != nil {
		return result{outcome: OutcomeFailed, err: apperr.Wrap(apperr.CodeStorageFailure, "read failed", err)}
	}

	if key == persist.KeySession {
		var session *models.Session
		if err := json.Unmarshal([]byte(raw), &session); err != nil {
			return result{outcome: OutcomeFailed, err: apperr.Wrap(apperr.CodeStorageFailure, "corrupt session", err)}
		}
		if session == nil {
			return result{outcome: OutcomeAbsent}
		}
		// a session without a name or token cannot sign anyone in
		if strings.TrimSpace(session.Name) == "" || session.Token == "" {
			return result{outcome: OutcomeAbsent, skipped: "incomplete session"}
		}
		store.RestoreSession(session)
		return result{outcome: OutcomeRestored}
	}

	var items []models.Anime
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return result{outcome: OutcomeFailed, err: apperr.Wrap(apperr.CodeStorageFailure, "corrupt list", err)}
	}
	store.SetList(state.ListName(key), items)
	return result{outcome: OutcomeRestored}
}
