// Package remind implements the daily deadline-reminder fan-out: it scans
// stored notices with approaching deadlines and pushes one reminder payload
// per notice to every subscriber's device tokens.
package remind

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/campusboard/notice-ingest/internal/notice"
	"github.com/campusboard/notice-ingest/internal/notify"
)

// Store is the slice of the persistence collaborator the reminder cycle
// needs.
type Store interface {
	FindNoticesWithDeadlineOn(ctx context.Context, day time.Time) ([]notice.Notice, error)
	DeviceTokensForNotice(ctx context.Context, noticeID int64) ([]string, error)
}

// Clock returns the current time. Injected for testability.
type Clock interface {
	Now() time.Time
}

// CycleStats summarizes one reminder cycle.
type CycleStats struct {
	Candidates int `json:"candidates"`
	Dispatched int `json:"dispatched"`
	Failed     int `json:"failed"`
}

// Scheduler runs one reminder cycle per firing.
type Scheduler struct {
	store      Store
	dispatcher notify.Dispatcher
	clock      Clock
	loc        *time.Location
	logger     *zap.Logger
}

// NewScheduler wires a reminder Scheduler.
func NewScheduler(store Store, dispatcher notify.Dispatcher, clock Clock, loc *time.Location, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		store:      store,
		dispatcher: dispatcher,
		clock:      clock,
		loc:        loc,
		logger:     logger,
	}
}

// RunCycle queries deadline candidates for "today" and dispatches one
// reminder per notice. Per-notice failures are independent: one bad
// dispatch never blocks the remaining candidates.
func (s *Scheduler) RunCycle(ctx context.Context) (CycleStats, error) {
	stats := CycleStats{}
	today := s.clock.Now().In(s.loc)

	candidates, err := s.store.FindNoticesWithDeadlineOn(ctx, today)
	if err != nil {
		s.logger.Error("deadline query failed", zap.Error(err))
		return stats, fmt.Errorf("query deadline candidates: %w", err)
	}
	stats.Candidates = len(candidates)

	for _, n := range candidates {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := s.remindOne(ctx, today, n); err != nil {
			stats.Failed++
			s.logger.Warn("reminder dispatch failed",
				zap.Int64("notice_id", n.ID),
				zap.Error(err),
			)
			continue
		}
		stats.Dispatched++
	}

	s.logger.Info("reminder cycle finished",
		zap.Int("candidates", stats.Candidates),
		zap.Int("dispatched", stats.Dispatched),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

func (s *Scheduler) remindOne(ctx context.Context, today time.Time, n notice.Notice) error {
	if n.CurrentDeadline == nil {
		return fmt.Errorf("notice %d has no deadline", n.ID)
	}
	daysLeft := DaysBetween(today, *n.CurrentDeadline, s.loc)

	tokens, err := s.store.DeviceTokensForNotice(ctx, n.ID)
	if err != nil {
		return fmt.Errorf("gather device tokens: %w", err)
	}

	payload := notify.Payload{
		Title:    fmt.Sprintf("[Reminder] %d day(s) left", daysLeft),
		Body:     fmt.Sprintf("%s deadline is in %d day(s)", n.Title, daysLeft),
		ImageURL: n.ImageURL,
	}
	data := map[string]string{"path": fmt.Sprintf("/root/article?id=%d", n.ID)}

	if err := s.dispatcher.Send(ctx, payload, tokens, data); err != nil {
		return fmt.Errorf("dispatch reminder: %w", err)
	}
	return nil
}

// DaysBetween computes the calendar-day distance between two instants in
// the given timezone. Both sides are truncated to the start of their day,
// so the time-of-day component never shifts the result.
func DaysBetween(from, to time.Time, loc *time.Location) int {
	a := startOfDay(from.In(loc))
	b := startOfDay(to.In(loc))
	return int(math.Round(b.Sub(a).Hours() / 24))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
