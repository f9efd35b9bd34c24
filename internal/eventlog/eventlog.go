// Package eventlog keeps an audit trail of booking, room and prescription
// events in the event_logs table. Recording is best effort: a failed insert
// is logged and never fails the operation that produced the event.
package eventlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-portal/internal/db"
)

const (
	AppointmentCreated       = "APPOINTMENT_CREATED"
	AppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"
	RoomBooked               = "ROOM_BOOKED"
	RoomBookingCancelled     = "ROOM_BOOKING_CANCELLED"
	PrescriptionSubmitted    = "PRESCRIPTION_SUBMITTED"
)

type Event struct {
	Type      string
	Subject   string // e.g. "appointment:12", "room:R101"
	Payload   map[string]any
	CreatedAt time.Time
}

// Recorder is what the services depend on.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}

type PgRecorder struct {
	q      db.Querier
	logger zerolog.Logger
}

func NewPgRecorder(q db.Querier, logger zerolog.Logger) *PgRecorder {
	return &PgRecorder{q: q, logger: logger.With().Str("component", "eventlog").Logger()}
}

func (r *PgRecorder) Record(ctx context.Context, ev Event) {
	var data []byte
	if ev.Payload != nil {
		var err error
		data, err = json.Marshal(ev.Payload)
		if err != nil {
			r.logger.Warn().Err(err).Str("event_type", ev.Type).Msg("marshal event payload")
			data = nil
		}
	}

	createdAt := ev.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO event_logs (event_type, subject, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`, ev.Type, ev.Subject, nullableJSON(data), createdAt)
	if err != nil {
		r.logger.Warn().Err(err).
			Str("event_type", ev.Type).
			Str("subject", ev.Subject).
			Msg("insert event log")
	}
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}
