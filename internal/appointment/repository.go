package appointment

import (
	"context"
	"time"

	"github.com/hackgods/hospital-portal/internal/apperr"
	"github.com/hackgods/hospital-portal/internal/db"
)

var (
	ErrMissingFields       = apperr.New(apperr.KindInvalidRequest, "missing_fields", "Missing required appointment fields")
	ErrInvalidDate         = apperr.New(apperr.KindInvalidRequest, "invalid_date", "Invalid date format. Use YYYY-MM-DD.")
	ErrMissingStatus       = apperr.New(apperr.KindInvalidRequest, "missing_status", "Missing Status in request body.")
	ErrInvalidStatus       = apperr.New(apperr.KindInvalidRequest, "invalid_status", "Status must be one of Scheduled, Completed, Cancelled.")
	ErrInvalidReference    = apperr.New(apperr.KindInvalidRequest, "invalid_reference", "Invalid Patient_ID or Doctor_ID (not found in database).")
	ErrAppointmentNotFound = apperr.New(apperr.KindNotFound, "appointment_not_found", "Appointment not found.")
	ErrSlotConflict        = apperr.New(apperr.KindConflict, "slot_conflict", "Selected time slot is no longer available for this doctor.")
	ErrSlotBeingBooked     = apperr.New(apperr.KindConflict, "slot_being_booked", "Selected time slot is currently being booked, please retry shortly.")
)

// Repository contains all DB interactions needed by the service. Methods
// taking a db.Querier run on the caller's transaction.
type Repository interface {
	// For conflict checks
	ScheduledExists(ctx context.Context, q db.Querier, doctorID int64, date, hhmm string) (bool, error)

	// Creation and updates
	Insert(ctx context.Context, q db.Querier, in CreateInput) (*Appointment, error)
	UpdateStatus(ctx context.Context, q db.Querier, id int64, status Status) (bool, error)

	// Portal reads
	ListForPatient(ctx context.Context, patientID int64) ([]PatientAppointment, error)
	ListForDoctor(ctx context.Context, doctorID int64) ([]DoctorAppointment, error)
	ScheduledTimes(ctx context.Context, doctorID int64, date string) ([]string, error)
	ListDepartments(ctx context.Context) ([]Department, error)

	// Reminder sweep
	ListUpcoming(ctx context.Context, from, to time.Time) ([]Upcoming, error)
}
