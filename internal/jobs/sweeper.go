// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

/*
Package jobs hosts the gateway's background schedules.

Currently a single job: the session sweeper, which deletes expired portal
sessions so the session table does not grow without bound. Revoked and
expired sessions are already filtered at read time; the sweeper is purely
hygiene.
*/
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/castlinehq/castline-api/internal/session"
)

// sweepSchedule runs the sweeper every hour on the hour.
const sweepSchedule = "0 * * * *"

// sweepTimeout bounds one sweep run.
const sweepTimeout = 30 * time.Second

// SessionSweeper periodically deletes expired portal sessions.
type SessionSweeper struct {
	sessions session.Store
	logger   *slog.Logger
	cron     *cron.Cron
}

// NewSessionSweeper constructs a [SessionSweeper].
func NewSessionSweeper(sessions session.Store, logger *slog.Logger) *SessionSweeper {
	return &SessionSweeper{
		sessions: sessions,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start registers the schedule and launches the cron loop.
func (sweeper *SessionSweeper) Start() error {
	if _, err := sweeper.cron.AddFunc(sweepSchedule, sweeper.sweep); err != nil {
		return err
	}

	sweeper.cron.Start()
	sweeper.logger.Info("session sweeper started", slog.String("schedule", sweepSchedule))
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (sweeper *SessionSweeper) Stop() {
	ctx := sweeper.cron.Stop()
	<-ctx.Done()
	sweeper.logger.Info("session sweeper stopped")
}

// sweep runs one deletion pass.
func (sweeper *SessionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	deleted, err := sweeper.sessions.DeleteExpired(ctx)
	if err != nil {
		sweeper.logger.Error("session sweep failed", slog.String("error", err.Error()))
		return
	}

	if deleted > 0 {
		sweeper.logger.Info("expired sessions removed", slog.Int64("count", deleted))
	}
}
