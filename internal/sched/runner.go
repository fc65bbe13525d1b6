// Package sched provides a minimal recurring-task runner: independent
// repeating tasks with start/stop control and an advisory overlap guard
// that skips a firing while the previous run is still in flight.
package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var overlapSkips = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sched_overlap_skips_total",
	Help: "Firings skipped because the previous run had not finished.",
}, []string{"task"})

// Task is one unit of recurring work.
type Task func(ctx context.Context) error

// Trigger computes when a task fires next.
type Trigger interface {
	Next(now time.Time) time.Time
}

// Every fires at a fixed interval.
func Every(interval time.Duration) Trigger {
	return intervalTrigger{interval: interval}
}

type intervalTrigger struct {
	interval time.Duration
}

func (t intervalTrigger) Next(now time.Time) time.Time {
	return now.Add(t.interval)
}

// DailyAt fires once per day at a fixed wall-clock time in the given
// timezone.
func DailyAt(hour, minute int, loc *time.Location) Trigger {
	return dailyTrigger{hour: hour, minute: minute, loc: loc}
}

type dailyTrigger struct {
	hour   int
	minute int
	loc    *time.Location
}

func (t dailyTrigger) Next(now time.Time) time.Time {
	local := now.In(t.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), t.hour, t.minute, 0, 0, t.loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Runner drives one named task on a trigger.
type Runner struct {
	name    string
	trigger Trigger
	task    Task
	logger  *zap.Logger

	running atomic.Bool
	skips   atomic.Int64
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewRunner builds a Runner. Start must be called to begin firing.
func NewRunner(name string, trigger Trigger, task Task, logger *zap.Logger) *Runner {
	return &Runner{name: name, trigger: trigger, task: task, logger: logger}
}

// Name returns the task name.
func (r *Runner) Name() string { return r.name }

// Running reports whether a run is currently in flight.
func (r *Runner) Running() bool { return r.running.Load() }

// Skips returns how many firings the overlap guard has dropped.
func (r *Runner) Skips() int64 { return r.skips.Load() }

// Start launches the firing loop. Firings overlap-guard against the
// previous run: a tick that lands while the task is still running is
// counted and dropped rather than queued.
func (r *Runner) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			now := time.Now()
			timer := time.NewTimer(r.trigger.Next(now).Sub(now))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			r.fire(ctx)
		}
	}()
	r.logger.Info("runner started", zap.String("task", r.name))
}

// Stop cancels the firing loop and waits for it to exit. A run already in
// flight observes the canceled context and winds down on its own.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.logger.Info("runner stopped", zap.String("task", r.name))
}

func (r *Runner) fire(ctx context.Context) {
	if !r.running.CompareAndSwap(false, true) {
		r.skips.Add(1)
		overlapSkips.WithLabelValues(r.name).Inc()
		r.logger.Warn("previous run still in flight, skipping firing", zap.String("task", r.name))
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.running.Store(false)
		if err := r.task(ctx); err != nil {
			r.logger.Error("task run failed", zap.String("task", r.name), zap.Error(err))
		}
	}()
}
