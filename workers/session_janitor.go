package workers

import (
	"context"
	"time"

	"hub/filter"
	"hub/models"
	"hub/store"

	"github.com/rs/zerolog"
)

// SessionJanitor periodically deletes revoked and expired login sessions.
type SessionJanitor struct {
	store    store.Store
	every    time.Duration
	pageSize int
	now      func() time.Time
	log      zerolog.Logger
}

func NewSessionJanitor(st store.Store, every time.Duration, pageSize int, log zerolog.Logger) *SessionJanitor {
	if pageSize <= 0 {
		pageSize = store.DefaultPerPage
	}
	return &SessionJanitor{store: st, every: every, pageSize: pageSize, now: time.Now, log: log}
}

// Run sweeps on every tick until ctx is cancelled.
func (j *SessionJanitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := j.Sweep(ctx)
			if err != nil {
				if ctx.Err() == nil {
					j.log.Error().Err(err).Msg("session sweep failed")
				}
				continue
			}
			if n > 0 {
				j.log.Info().Int("deleted", n).Msg("sessions swept")
			}
		}
	}
}

// Sweep deletes every dead session and returns how many were removed.
func (j *SessionJanitor) Sweep(ctx context.Context) (int, error) {
	now := models.FormatTime(j.now())
	dead := filter.Or(
		filter.Neq("revoked_at", ""),
		filter.Lt("expires", now),
		filter.Lt("absolute_expires", now),
	)

	deleted := 0
	for {
		page, err := j.store.List(ctx, models.COLLECTION_SESSIONS, store.Query{Filter: dead, PerPage: j.pageSize})
		if err != nil {
			return deleted, err
		}
		if len(page.Items) == 0 {
			return deleted, nil
		}
		for _, rec := range page.Items {
			if err := j.store.Delete(ctx, models.COLLECTION_SESSIONS, rec.ID()); err != nil {
				return deleted, err
			}
			deleted++
		}
		if page.TotalItems <= len(page.Items) {
			return deleted, nil
		}
	}
}
