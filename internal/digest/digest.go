// Package digest posts AI insights for one dashboard view to Slack on a cron
// schedule.
package digest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"insightdash/internal/config"
	"insightdash/internal/dashboard"
	"insightdash/internal/domain"
	"insightdash/internal/insights"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Generator interface {
	GenerateFor(ctx context.Context, ds domain.Dataset, title, view string, surface insights.Surface) insights.Result
}

// Poster delivers a generation result to a channel.
type Poster interface {
	PostInsights(ctx context.Context, channelID string, res insights.Result) error
}

type Scheduler struct {
	expr      string
	schedule  cron.Schedule
	view      dashboard.View
	channelID string
	generator Generator
	poster    Poster
	loc       *time.Location
	logger    *zap.Logger

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error
}

// New validates the cron expression and view name. It does not start anything.
func New(expr, view, channelID string, generator Generator, poster Poster, loc *time.Location, logger *zap.Logger) (*Scheduler, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("digest schedule is empty")
	}
	sched, err := config.ParseSchedule(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid digest schedule '%s': %w", expr, err)
	}
	v, err := dashboard.ParseView(view)
	if err != nil {
		return nil, err
	}
	if channelID == "" {
		return nil, errors.New("digest channel is empty")
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		expr:      expr,
		schedule:  sched,
		view:      v,
		channelID: channelID,
		generator: generator,
		poster:    poster,
		loc:       loc,
		logger:    logger.Named("digest"),
		now:       time.Now,
		wait:      sleepContext,
	}, nil
}

// Next reports when the digest fires after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.loc))
}

// Run sleeps until each scheduled time and posts a digest, until ctx is done.
// A failed digest is logged and the loop continues.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("digest scheduled",
		zap.String("cron", s.expr),
		zap.String("view", s.view.String()),
		zap.String("channel", s.channelID))
	for {
		now := s.now().In(s.loc)
		next := s.Next(now)
		wait := next.Sub(now)
		s.logger.Info("next digest",
			zap.String("at", next.Format("Mon Jan 2 15:04")),
			zap.Duration("in", wait.Round(time.Minute)))

		if err := s.wait(ctx, wait); err != nil {
			return nil
		}
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("digest failed", zap.Error(err))
		}
	}
}

// RunOnce generates the narrative for the configured view and posts it.
// Generation failures are still posted: the channel sees the error message.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	res := s.generator.GenerateFor(ctx, domain.SampleDataset(), s.view.Title(), s.view.String(), insights.SurfaceDigest)
	if err := s.poster.PostInsights(ctx, s.channelID, res); err != nil {
		return fmt.Errorf("posting digest to %s: %w", s.channelID, err)
	}
	s.logger.Info("digest posted",
		zap.String("view", s.view.String()),
		zap.String("outcome", res.Outcome()),
		zap.String("run_id", res.RunID))
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
