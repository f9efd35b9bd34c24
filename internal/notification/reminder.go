package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-portal/internal/appointment"
)

// UpcomingLister is satisfied by appointment.Service.
type UpcomingLister interface {
	ListUpcoming(ctx context.Context, from, to time.Time) ([]appointment.Upcoming, error)
}

type reminderOffset struct {
	label  string
	before time.Duration
}

var reminderOffsets = []reminderOffset{
	{label: "24h", before: 24 * time.Hour},
	{label: "1h", before: time.Hour},
}

func reminderTitle(label string, apptID int64) string {
	return fmt.Sprintf("Appointment Reminder (%s): Appt %d", label, apptID)
}

func reminderBody(u appointment.Upcoming, label string) string {
	return fmt.Sprintf("Reminder: Appointment on %s at %s. This reminder is %s before the appointment.",
		u.Date, u.Time, label)
}

// ReminderScheduler queues reminders ahead of scheduled appointments.
type ReminderScheduler struct {
	appts  UpcomingLister
	store  Store
	window time.Duration
	loc    *time.Location
	logger zerolog.Logger
}

func NewReminderScheduler(appts UpcomingLister, store Store, window time.Duration, loc *time.Location, logger zerolog.Logger) *ReminderScheduler {
	if loc == nil {
		loc = time.Local
	}
	return &ReminderScheduler{
		appts:  appts,
		store:  store,
		window: window,
		loc:    loc,
		logger: logger.With().Str("component", "reminders").Logger(),
	}
}

// Schedule creates the 24h and 1h reminders for every scheduled appointment
// starting within the window after now. Reminders whose send time has passed
// or that already exist are skipped. It returns how many were created.
func (r *ReminderScheduler) Schedule(ctx context.Context, now time.Time) (int, error) {
	now = now.In(r.loc)
	upcoming, err := r.appts.ListUpcoming(ctx, now, now.Add(r.window))
	if err != nil {
		return 0, err
	}

	created := 0
	for _, u := range upcoming {
		startsAt, err := u.StartsAt(r.loc)
		if err != nil {
			r.logger.Warn().Err(err).Int64("appointment_id", u.ID).Msg("skip appointment with unparseable start")
			continue
		}

		for _, off := range reminderOffsets {
			sendAt := startsAt.Add(-off.before)
			if !sendAt.After(now) {
				continue
			}

			title := reminderTitle(off.label, u.ID)
			exists, err := r.store.HasTitle(ctx, u.PatientID, title)
			if err != nil {
				return created, err
			}
			if exists {
				continue
			}

			if _, err := r.store.Append(ctx, Notification{
				PatientID:   u.PatientID,
				Type:        TypeAppointmentReminder,
				Title:       title,
				Body:        reminderBody(u, off.label),
				ScheduledAt: &sendAt,
			}); err != nil {
				return created, err
			}
			created++
		}
	}

	r.logger.Debug().Int("appointments", len(upcoming)).Int("created", created).Msg("reminders scheduled")
	return created, nil
}
