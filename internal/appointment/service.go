package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-portal/internal/db"
	"github.com/hackgods/hospital-portal/internal/eventlog"
	redisclient "github.com/hackgods/hospital-portal/internal/redis"
	"github.com/hackgods/hospital-portal/internal/slot"
)

const dateLayout = "2006-01-02"

type Service struct {
	repo   Repository
	tx     db.TxRunner
	locker redisclient.Locker
	events eventlog.Recorder
	logger zerolog.Logger
}

func NewService(repo Repository, tx db.TxRunner, locker redisclient.Locker, events eventlog.Recorder, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tx:     tx,
		locker: locker,
		events: events,
		logger: logger.With().Str("component", "appointment").Logger(),
	}
}

// ValidateDate checks a YYYY-MM-DD calendar date.
func ValidateDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// CreateAppointment books a doctor's slot for a patient.
// A Redis lock serializes the conflict check and insert for one
// doctor/date/time across instances; the partial unique index on scheduled
// appointments rejects whatever slips past it. When Redis cannot be reached
// the booking runs on the index alone.
func (s *Service) CreateAppointment(ctx context.Context, in CreateInput) (*Appointment, error) {
	if in.PatientID == 0 || in.DoctorID == 0 || in.Date == "" || in.Time == "" {
		return nil, ErrMissingFields
	}
	if err := ValidateDate(in.Date); err != nil {
		return nil, err
	}
	minutes, err := slot.Validate(in.Time)
	if err != nil {
		return nil, err
	}
	in.Time = slot.Format(minutes)

	var created *Appointment
	book := func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(q db.Querier) error {
			taken, err := s.repo.ScheduledExists(ctx, q, in.DoctorID, in.Date, in.Time)
			if err != nil {
				return fmt.Errorf("check scheduled appointment: %w", err)
			}
			if taken {
				return ErrSlotConflict
			}

			appt, err := s.repo.Insert(ctx, q, in)
			if err != nil {
				return mapWriteError(err, "insert appointment")
			}
			created = appt
			return nil
		})
	}

	key := redisclient.AppointmentSlotKey(in.DoctorID, in.Date, in.Time)
	err = s.locker.WithLock(ctx, key, book)
	switch {
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		return nil, ErrSlotBeingBooked
	case errors.Is(err, redisclient.ErrLockUnavailable):
		s.logger.Warn().Err(err).Str("lock_key", key).Msg("slot lock unavailable, booking without it")
		err = book(ctx)
	}
	if err != nil {
		return nil, err
	}

	s.events.Record(ctx, eventlog.Event{
		Type:    eventlog.AppointmentCreated,
		Subject: subject(created.ID),
		Payload: map[string]any{
			"patient_id": created.PatientID,
			"doctor_id":  created.DoctorID,
			"date":       created.Date,
			"time":       created.Time,
		},
	})

	return created, nil
}

// UpdateAppointmentStatus sets the status of an existing appointment.
func (s *Service) UpdateAppointmentStatus(ctx context.Context, id int64, status string) (Status, error) {
	if status == "" {
		return "", ErrMissingStatus
	}
	st, err := ParseStatus(status)
	if err != nil {
		return "", err
	}

	err = s.tx.WithTx(ctx, func(q db.Querier) error {
		found, err := s.repo.UpdateStatus(ctx, q, id, st)
		if err != nil {
			return mapWriteError(err, "update appointment status")
		}
		if !found {
			return ErrAppointmentNotFound.Withf("Appointment ID %d not found.", id)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.events.Record(ctx, eventlog.Event{
		Type:    eventlog.AppointmentStatusChanged,
		Subject: subject(id),
		Payload: map[string]any{"status": st},
	})

	return st, nil
}

// ListAppointmentsForPatient returns the most recent appointments first.
func (s *Service) ListAppointmentsForPatient(ctx context.Context, patientID int64) ([]PatientAppointment, error) {
	list, err := s.repo.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return list, nil
}

// ListAppointmentsForDoctor returns the nearest appointments first.
func (s *Service) ListAppointmentsForDoctor(ctx context.Context, doctorID int64) ([]DoctorAppointment, error) {
	list, err := s.repo.ListForDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by doctor: %w", err)
	}
	return list, nil
}

// ListBookableSlots returns every slot of the day without a scheduled
// appointment for the doctor.
func (s *Service) ListBookableSlots(ctx context.Context, doctorID int64, date string) (*BookableSlots, error) {
	if doctorID == 0 || date == "" {
		return nil, ErrMissingFields
	}
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	taken, err := s.repo.ScheduledTimes(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("load scheduled times: %w", err)
	}
	busy := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		busy[t] = struct{}{}
	}

	free := []string{}
	for _, t := range slot.All() {
		if _, ok := busy[t]; !ok {
			free = append(free, t)
		}
	}
	return &BookableSlots{DoctorID: doctorID, Date: date, Slots: free}, nil
}

func (s *Service) ListDepartments(ctx context.Context) ([]Department, error) {
	deps, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return deps, nil
}

// ListUpcoming returns scheduled appointments starting in (from, to].
func (s *Service) ListUpcoming(ctx context.Context, from, to time.Time) ([]Upcoming, error) {
	list, err := s.repo.ListUpcoming(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list upcoming appointments: %w", err)
	}
	return list, nil
}

// activeSlotIndex is the partial unique index over scheduled appointments.
const activeSlotIndex = "appointments_active_slot_uq"

func mapWriteError(err error, op string) error {
	switch db.Classify(err) {
	case db.UniqueViolation:
		if db.ConstraintName(err) == activeSlotIndex {
			return ErrSlotConflict
		}
	case db.ForeignKeyViolation:
		return ErrInvalidReference
	}
	return fmt.Errorf("%s: %w", op, err)
}

func subject(id int64) string {
	return fmt.Sprintf("appointment:%d", id)
}
