// Package notification holds patient notifications, schedules appointment
// reminders and delivers due notifications in a periodic sweep.
package notification

import (
	"context"
	"time"

	"github.com/hackgods/hospital-portal/internal/apperr"
)

const (
	TypeGeneral             = "general"
	TypeAppointmentReminder = "appointment_reminder"
)

var (
	ErrMissingFields        = apperr.New(apperr.KindInvalidRequest, "missing_fields", "Patient_ID and Title are required.")
	ErrNotificationNotFound = apperr.New(apperr.KindNotFound, "notification_not_found", "Notification not found.")
)

type Notification struct {
	ID          int64      `json:"id"`
	PatientID   int64      `json:"patientId"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	ScheduledAt *time.Time `json:"scheduledAt"`
	SentAt      *time.Time `json:"sentAt"`
	IsRead      bool       `json:"isRead"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// due reports whether n should be delivered at now.
func (n Notification) due(now time.Time) bool {
	return n.SentAt == nil && (n.ScheduledAt == nil || !n.ScheduledAt.After(now))
}

// Store persists notifications. Implementations assign ID and CreatedAt on
// Append.
type Store interface {
	Append(ctx context.Context, n Notification) (int64, error)
	// ListByPatient returns newest first.
	ListByPatient(ctx context.Context, patientID int64) ([]Notification, error)
	MarkRead(ctx context.Context, id int64) error

	// Sweep support
	HasTitle(ctx context.Context, patientID int64, title string) (bool, error)
	Due(ctx context.Context, now time.Time, limit int) ([]Notification, error)
	MarkSent(ctx context.Context, id int64, at time.Time) error
}

// CreateInput is a notification requested through the API.
type CreateInput struct {
	PatientID   int64
	Type        string
	Title       string
	Body        string
	ScheduledAt *time.Time
}

// Create validates in and appends it to store.
func Create(ctx context.Context, store Store, in CreateInput) (int64, error) {
	if in.PatientID == 0 || in.Title == "" {
		return 0, ErrMissingFields
	}
	if in.Type == "" {
		in.Type = TypeGeneral
	}
	return store.Append(ctx, Notification{
		PatientID:   in.PatientID,
		Type:        in.Type,
		Title:       in.Title,
		Body:        in.Body,
		ScheduledAt: in.ScheduledAt,
	})
}
