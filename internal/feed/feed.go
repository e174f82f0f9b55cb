package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/GamePointAnalytics/f1-race-simulator/internal/domain"
	"github.com/GamePointAnalytics/f1-race-simulator/internal/sim"
)

const (
	DefaultInterval  = 50 * time.Millisecond
	DefaultTimeScale = 5.0
	bufferSize       = 64
)

// Race is the part of the race controller the feed drives.
type Race interface {
	Tick(dt float64) []sim.Event
	IsRaceOver() bool
	SetMode(id string, mode domain.DrivingMode) error
	RequestPit(id string, tyre domain.TireCompound) error
	CancelPit(id string) error
	SetPitTyre(id string, tyre domain.TireCompound) error
	SetVerbosity(v domain.Verbosity)
}

// New returns a new feed for the given race.
func New(race Race, opts ...FeedOption) *Feed {
	// create a default instance of the feed
	f := &Feed{
		race:       race,
		interval:   DefaultInterval,
		timeScale:  DefaultTimeScale,
		updatesCh:  make(chan sim.Update, bufferSize),
		radioCh:    make(chan domain.RadioMsg, bufferSize),
		lapsCh:     make(chan sim.LapCompleted, bufferSize),
		resultsCh:  make(chan []sim.Classified, 1),
		commandsCh: make(chan Command, bufferSize),
		doneCh:     make(chan error, 1),
		logger:     slog.Default(),
	}
	// apply given options
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Feed is the external clock of a race. It ticks the race at a fixed real-time interval, applies
// player commands between ticks and publishes the emitted events on read-only channels. The race
// is only ever touched from the Listen goroutine.
type Feed struct {
	race Race
	// clock
	interval  time.Duration
	timeScale float64
	// channels
	updatesCh  chan sim.Update
	radioCh    chan domain.RadioMsg
	lapsCh     chan sim.LapCompleted
	resultsCh  chan []sim.Classified
	commandsCh chan Command
	doneCh     chan error
	// logger
	logger *slog.Logger
}

/* Feed Optional Functional Parameters
------------------------------------------------------------------------------------------------- */

type FeedOption = func(f *Feed)

// WithLogger configures the logger to use within the feed.
func WithLogger(l *slog.Logger) FeedOption {
	return func(f *Feed) { f.logger = l }
}

// WithInterval configures the real time between two ticks.
func WithInterval(d time.Duration) FeedOption {
	return func(f *Feed) {
		if d > 0 {
			f.interval = d
		}
	}
}

// WithTimeScale configures how many simulated seconds pass per real second.
func WithTimeScale(scale float64) FeedOption {
	return func(f *Feed) {
		if scale > 0 {
			f.timeScale = scale
		}
	}
}

/* Feed API
------------------------------------------------------------------------------------------------- */

// Updates exposes the race snapshots as read-only; one is published at the end of every tick.
func (f *Feed) Updates() <-chan sim.Update {
	return f.updatesCh
}

// Radio exposes the radio advisories that passed the verbosity filter, plus refused commands.
func (f *Feed) Radio() <-chan domain.RadioMsg {
	return f.radioCh
}

// Laps exposes every line crossing.
func (f *Feed) Laps() <-chan sim.LapCompleted {
	return f.lapsCh
}

// Results exposes the final classification; it is written once.
func (f *Feed) Results() <-chan []sim.Classified {
	return f.resultsCh
}

// Done is closed when the feed has stopped ticking, either because the race is over or because
// the context was cancelled.
func (f *Feed) Done() <-chan error {
	return f.doneCh
}

// Send queues a player command; it is applied before the next tick.
func (f *Feed) Send(cmd Command) {
	select {
	case f.commandsCh <- cmd:
	default:
		f.logger.Warn("command queue full, dropping command", "kind", cmd.Kind, "driver", cmd.DriverID)
	}
}

// Listen drives the race until it is over or ctx is cancelled. Every channel must be drained by
// the caller while Listen runs.
func (f *Feed) Listen(ctx context.Context) {
	defer close(f.doneCh)
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	step := f.interval.Seconds() * f.timeScale
	f.logger.Debug("feed listening", "interval", f.interval, "step", step)

	for {
		select {
		case <-ctx.Done():
			f.logger.Debug("feed context done")
			return
		case cmd := <-f.commandsCh:
			if err := f.apply(cmd); err != nil {
				f.logger.Warn("command refused", "kind", cmd.Kind, "driver", cmd.DriverID, "err", err)
				if !send(ctx, f.radioCh, refused(err)) {
					return
				}
			}
		case <-ticker.C:
			for _, e := range f.race.Tick(step) {
				if !f.publish(ctx, e) {
					return
				}
			}
			if f.race.IsRaceOver() {
				f.logger.Debug("race over, feed exiting")
				return
			}
		}
	}
}

/* Private Helper Functions
------------------------------------------------------------------------------------------------- */

func (f *Feed) apply(cmd Command) error {
	switch cmd.Kind {
	case CommandSetMode:
		return f.race.SetMode(cmd.DriverID, cmd.Mode)
	case CommandBox:
		return f.race.RequestPit(cmd.DriverID, cmd.Tyre)
	case CommandCancelBox:
		return f.race.CancelPit(cmd.DriverID)
	case CommandChooseTyre:
		return f.race.SetPitTyre(cmd.DriverID, cmd.Tyre)
	case CommandSetVerbosity:
		f.race.SetVerbosity(cmd.Verbosity)
	default:
		f.logger.Warn("unknown command", "kind", cmd.Kind)
	}
	return nil
}

// publish routes an event to its channel; it reports false when ctx ended first.
func (f *Feed) publish(ctx context.Context, e sim.Event) bool {
	switch e := e.(type) {
	case sim.Update:
		return send(ctx, f.updatesCh, e)
	case sim.Radio:
		return send(ctx, f.radioCh, e.Msg)
	case sim.LapCompleted:
		return send(ctx, f.lapsCh, e)
	case sim.RaceFinished:
		return send(ctx, f.resultsCh, e.Classification)
	}
	return true
}

func send[T any](ctx context.Context, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

func refused(err error) domain.RadioMsg {
	return domain.RadioMsg{
		Category: domain.RadioMsgCategoryStrategy,
		Title:    domain.RadioMsgTitlePit,
		Body:     err.Error(),
		Urgent:   true,
	}
}
