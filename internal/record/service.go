package record

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-portal/internal/appointment"
	"github.com/hackgods/hospital-portal/internal/prescription"
)

const (
	DefaultPageSize = 10
	MinPageSize     = 5
	MaxPageSize     = 50
)

type AppointmentLister interface {
	ListAppointmentsForPatient(ctx context.Context, patientID int64) ([]appointment.PatientAppointment, error)
}

type PrescriptionLister interface {
	ListPrescriptions(ctx context.Context, patientID int64) ([]prescription.Prescription, error)
}

type Service struct {
	repo          Repository
	appointments  AppointmentLister
	prescriptions PrescriptionLister
	logger        zerolog.Logger
}

func NewService(repo Repository, appointments AppointmentLister, prescriptions PrescriptionLister, logger zerolog.Logger) *Service {
	return &Service{
		repo:          repo,
		appointments:  appointments,
		prescriptions: prescriptions,
		logger:        logger.With().Str("component", "record").Logger(),
	}
}

// ListRecords returns the patient's medical records, newest first.
func (s *Service) ListRecords(ctx context.Context, patientID int64) ([]MedicalRecord, error) {
	list, err := s.repo.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list medical records: %w", err)
	}
	return list, nil
}

// LatestRecord returns nil when the patient has no records.
func (s *Service) LatestRecord(ctx context.Context, patientID int64) (*Summary, error) {
	sum, err := s.repo.Latest(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("latest medical record: %w", err)
	}
	return sum, nil
}

func (s *Service) GetPatient(ctx context.Context, patientID int64) (*Patient, error) {
	p, err := s.repo.GetPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	if p == nil {
		return nil, ErrPatientNotFound.Withf("Patient with ID %d not found.", patientID)
	}
	return p, nil
}

// ClampPageSize bounds a requested page size; zero selects the default.
func ClampPageSize(n int) int {
	if n == 0 {
		return DefaultPageSize
	}
	return min(MaxPageSize, max(MinPageSize, n))
}

// Timeline merges records, prescriptions and appointments into one list
// ordered by date, newest first, and returns the requested page.
func (s *Service) Timeline(ctx context.Context, patientID int64, page, pageSize int) (*Timeline, error) {
	page = max(page, 1)
	pageSize = ClampPageSize(pageSize)

	records, err := s.repo.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("timeline records: %w", err)
	}
	prescriptions, err := s.prescriptions.ListPrescriptions(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("timeline prescriptions: %w", err)
	}
	appts, err := s.appointments.ListAppointmentsForPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("timeline appointments: %w", err)
	}

	events := make([]Event, 0, len(records)+len(prescriptions)+len(appts))
	for _, r := range records {
		events = append(events, Event{
			Type:    EventRecord,
			ID:      r.ID,
			Date:    r.Date,
			Title:   r.Diagnosis,
			Details: map[string]any{"Allergies": r.Allergies, "Surgeries": r.Surgeries},
		})
	}
	for _, p := range prescriptions {
		events = append(events, Event{
			Type:    EventPrescription,
			ID:      p.ID,
			Date:    p.DatePrescribed,
			Title:   p.MedicineName,
			Details: map[string]any{"Quantity": p.Quantity},
		})
	}
	for _, a := range appts {
		events = append(events, Event{
			Type:    EventAppointment,
			ID:      a.ID,
			Date:    a.Date + " " + a.Time,
			Title:   fmt.Sprintf("Appointment (%s)", a.Status),
			Details: map[string]any{"Time": a.Time, "Status": a.Status},
		})
	}

	for i := range events {
		at, err := parseEventDate(events[i].Date)
		if err != nil {
			s.logger.Warn().Err(err).Str("type", string(events[i].Type)).Int64("id", events[i].ID).Msg("unparseable timeline date")
		}
		events[i].at = at
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].at.After(events[j].at) })

	total := len(events)
	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)

	return &Timeline{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Events:   events[start:end],
	}, nil
}

func parseEventDate(s string) (time.Time, error) {
	if len(s) > len("2006-01-02") {
		return time.Parse("2006-01-02 15:04", s)
	}
	return time.Parse("2006-01-02", s)
}
