package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DispatchBatch is the most notifications delivered per sweep.
const DispatchBatch = 50

// Sender delivers a notification to the patient.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// LogSender writes notifications to the log instead of a real channel.
type LogSender struct {
	Logger zerolog.Logger
}

func (s LogSender) Send(_ context.Context, n Notification) error {
	s.Logger.Info().
		Int64("notification_id", n.ID).
		Int64("patient_id", n.PatientID).
		Str("type", n.Type).
		Str("title", n.Title).
		Msg("notification sent")
	return nil
}

type Dispatcher struct {
	store  Store
	sender Sender
	logger zerolog.Logger
}

func NewDispatcher(store Store, sender Sender, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:  store,
		sender: sender,
		logger: logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Dispatch sends due, unsent notifications and marks them sent. A failed
// send leaves the notification pending for the next sweep.
func (d *Dispatcher) Dispatch(ctx context.Context, now time.Time) (int, error) {
	due, err := d.store.Due(ctx, now, DispatchBatch)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, n := range due {
		if err := d.sender.Send(ctx, n); err != nil {
			d.logger.Warn().Err(err).Int64("notification_id", n.ID).Msg("send notification")
			continue
		}
		if err := d.store.MarkSent(ctx, n.ID, now); err != nil {
			return sent, fmt.Errorf("mark notification %d sent: %w", n.ID, err)
		}
		sent++
	}
	return sent, nil
}

// Sweeper runs reminder scheduling followed by dispatch.
type Sweeper struct {
	Scheduler  *ReminderScheduler
	Dispatcher *Dispatcher
	Clock      func() time.Time
	Logger     zerolog.Logger
}

// SweepResult reports one sweep.
type SweepResult struct {
	Scheduled int `json:"scheduled"`
	Sent      int `json:"sent"`
}

func (s *Sweeper) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := s.now()

	scheduled, err := s.Scheduler.Schedule(ctx, now)
	res.Scheduled = scheduled
	if err != nil {
		return res, fmt.Errorf("schedule reminders: %w", err)
	}

	sent, err := s.Dispatcher.Dispatch(ctx, now)
	res.Sent = sent
	if err != nil {
		return res, fmt.Errorf("dispatch notifications: %w", err)
	}
	return res, nil
}

// Run sweeps once immediately and then every interval until ctx is done.
// Each sweep is bounded by timeout.
func (s *Sweeper) Run(ctx context.Context, interval, timeout time.Duration) {
	s.sweep(ctx, timeout)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Logger.Info().Msg("reminder sweep stopped")
			return
		case <-ticker.C:
			s.sweep(ctx, timeout)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context, timeout time.Duration) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	res, err := s.RunOnce(runCtx)
	if err != nil {
		s.Logger.Error().Err(err).Msg("reminder sweep failed")
		return
	}
	s.Logger.Info().
		Int("scheduled", res.Scheduled).
		Int("sent", res.Sent).
		Dur("elapsed", time.Since(start)).
		Msg("reminder sweep finished")
}
