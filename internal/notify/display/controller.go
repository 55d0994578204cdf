// internal/notify/display/controller.go

// Package display paces the one-at-a-time presentation of notifications: a
// fixed dwell while visible, a fixed exit period for the dismissal
// animation, then promotion of the next queued item. It is the only
// component holding the store's DisplayWriter.
package display

import (
	"context"
	"errors"
	"time"

	apperrors "notification-pipeline/internal/common/errors"
	"notification-pipeline/internal/common/logger"
	"notification-pipeline/internal/common/metrics"
	"notification-pipeline/internal/common/observability"
	"notification-pipeline/internal/models"
	"notification-pipeline/internal/notify/store"
)

type Config struct {
	DwellTime    time.Duration // how long a notification stays visible
	ExitDuration time.Duration // exit animation length before advancing
}

func DefaultConfig() *Config {
	return &Config{
		DwellTime:    5 * time.Second,
		ExitDuration: 300 * time.Millisecond,
	}
}

// Presenter receives visibility transitions. The embedding UI implements
// this; LogPresenter is the reference implementation.
type Presenter interface {
	Show(n models.Notification)
	Hide(n models.Notification)
}

// HistoryFetcher returns the authoritative notification list. Called after
// every completed display cycle so the history view converges on server
// state.
type HistoryFetcher interface {
	List(ctx context.Context) ([]models.Notification, error)
}

// errPreempted means current changed identity mid-phase; the cycle restarts
// for the new item.
var errPreempted = errors.New("display preempted")

type Controller struct {
	config    *Config
	reader    store.Reader
	writer    store.DisplayWriter
	presenter Presenter
	fetcher   HistoryFetcher
	logger    logger.Logger
	errs      *apperrors.Handler
	obs       *observability.Observability
}

func NewController(
	cfg *Config,
	reader store.Reader,
	writer store.DisplayWriter,
	presenter Presenter,
	fetcher HistoryFetcher,
	log logger.Logger,
	obs *observability.Observability,
) *Controller {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	ctrlLog := log.WithFields(map[string]interface{}{"component": "display"})
	return &Controller{
		config:    cfg,
		reader:    reader,
		writer:    writer,
		presenter: presenter,
		fetcher:   fetcher,
		logger:    ctrlLog,
		errs:      apperrors.NewHandlerWithCounter(ctrlLog, metrics.ErrorCounter{}),
		obs:       obs,
	}
}

// Run drives the state machine until ctx is cancelled. Both timers are tied
// to ctx, so cancellation mid-phase never leaves a stale callback acting on
// superseded state.
func (c *Controller) Run(ctx context.Context) {
	for {
		current, ok := c.reader.Current()
		if !ok {
			// Idle
			select {
			case <-ctx.Done():
				return
			case <-c.reader.Changed():
				continue
			}
		}

		c.runCycle(ctx, current)

		if ctx.Err() != nil {
			return
		}
	}
}

// Dismiss force-clears the on-screen notification without promoting the
// next item. The running cycle observes the change and returns to idle.
func (c *Controller) Dismiss(ctx context.Context) {
	c.writer.ClearCurrent(ctx)
}

// runCycle shows one notification through the full dwell + exit sequence.
func (c *Controller) runCycle(ctx context.Context, current models.Notification) {
	started := time.Now()

	// Showing
	c.presenter.Show(current)
	if err := c.waitPhase(ctx, c.config.DwellTime, current.ID); err != nil {
		// A new notification replaced current mid-dwell: restart the full
		// cycle for the new item. On shutdown just stop.
		return
	}

	// Dismissing
	c.presenter.Hide(current)
	if err := c.waitPhase(ctx, c.config.ExitDuration, current.ID); err != nil {
		return
	}

	// Advance: the only place the pipeline moves forward.
	c.writer.NextNotification(ctx)
	metrics.NotificationsDisplayed.Inc()
	if c.obs != nil {
		c.obs.RecordDisplayDuration(ctx, time.Since(started))
	}

	c.refetchHistory(ctx)
}

// waitPhase blocks for the given duration, aborting early when ctx is
// cancelled or current stops being the notification this phase was started
// for.
func (c *Controller) waitPhase(ctx context.Context, d time.Duration, id string) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case <-c.reader.Changed():
			now, ok := c.reader.Current()
			if !ok || now.ID != id {
				return errPreempted
			}
			// Same identity, e.g. a queue append behind it: keep waiting.
		}
	}
}

// refetchHistory reconciles the history view with the backend after a
// dismissal. Fetch failures are contained here.
func (c *Controller) refetchHistory(ctx context.Context) {
	if c.fetcher == nil {
		return
	}

	list, err := c.fetcher.List(ctx)
	if err != nil {
		c.errs.Handle("display", apperrors.NewListFetchFailedError(err))
		return
	}
	c.writer.SetHistory(ctx, list)
}

// LogPresenter is the reference Presenter: it logs visibility transitions
// instead of driving a UI surface.
type LogPresenter struct {
	Logger logger.Logger
}

func (p LogPresenter) Show(n models.Notification) {
	p.Logger.Info("notification visible", map[string]interface{}{
		"id":   n.ID,
		"type": n.NotificationTypeID,
	})
}

func (p LogPresenter) Hide(n models.Notification) {
	p.Logger.Info("notification dismissing", map[string]interface{}{
		"id": n.ID,
	})
}
