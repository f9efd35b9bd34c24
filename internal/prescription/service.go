package prescription

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-portal/internal/db"
	"github.com/hackgods/hospital-portal/internal/eventlog"
)

type Service struct {
	repo   Repository
	tx     db.TxRunner
	events eventlog.Recorder
	logger zerolog.Logger
}

func NewService(repo Repository, tx db.TxRunner, events eventlog.Recorder, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tx:     tx,
		events: events,
		logger: logger.With().Str("component", "prescription").Logger(),
	}
}

// SubmitDiagnosisWithPrescription records a prescription and takes the
// quantity out of stock in one transaction. The diagnosis text itself is not
// stored here.
func (s *Service) SubmitDiagnosisWithPrescription(ctx context.Context, in SubmitInput) (*Submission, error) {
	if in.DoctorID == 0 || in.PatientID == 0 {
		return nil, ErrMissingIDs
	}
	if in.DoctorID < 0 || in.PatientID < 0 {
		return nil, ErrInvalidIDFormat
	}
	if in.MedicineID <= 0 || in.Quantity <= 0 {
		return nil, ErrNoPrescriptionSpecified
	}

	var sub Submission
	err := s.tx.WithTx(ctx, func(q db.Querier) error {
		stock, err := s.repo.LockMedicineStock(ctx, q, in.MedicineID)
		if err != nil {
			if errors.Is(err, ErrMedicineNotFound) {
				return err
			}
			return fmt.Errorf("lock medicine: %w", err)
		}
		if stock < in.Quantity {
			return ErrInsufficientStock
		}

		id, err := s.repo.InsertPrescription(ctx, q, NewPrescription{
			PatientID:  in.PatientID,
			MedicineID: in.MedicineID,
			DoctorID:   in.DoctorID,
			Quantity:   in.Quantity,
		})
		if err != nil {
			return mapWriteError(err, "insert prescription")
		}

		remaining, ok, err := s.repo.DecrementStock(ctx, q, in.MedicineID, in.Quantity)
		if err != nil {
			return mapWriteError(err, "decrement stock")
		}
		if !ok {
			return ErrInsufficientStock
		}

		sub = Submission{PrescriptionID: id, PrescriptionCount: 1, RemainingStock: remaining}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Int64("doctor_id", in.DoctorID).
		Int64("patient_id", in.PatientID).
		Int("diagnosis_len", len(in.Diagnosis)).
		Msg("diagnosis submitted")

	s.events.Record(ctx, eventlog.Event{
		Type:    eventlog.PrescriptionSubmitted,
		Subject: fmt.Sprintf("prescription:%d", sub.PrescriptionID),
		Payload: map[string]any{
			"doctor_id":   in.DoctorID,
			"patient_id":  in.PatientID,
			"medicine_id": in.MedicineID,
			"quantity":    in.Quantity,
		},
	})

	return &sub, nil
}

func (s *Service) ListMedicines(ctx context.Context) ([]Medicine, error) {
	meds, err := s.repo.ListMedicines(ctx)
	if err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	return meds, nil
}

// ListPrescriptions returns the patient's prescriptions, newest first.
func (s *Service) ListPrescriptions(ctx context.Context, patientID int64) ([]Prescription, error) {
	list, err := s.repo.ListPrescriptions(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	return list, nil
}

func mapWriteError(err error, op string) error {
	switch db.Classify(err) {
	case db.ForeignKeyViolation:
		return ErrInvalidReference
	case db.CheckViolation:
		return ErrInsufficientStock
	}
	return fmt.Errorf("%s: %w", op, err)
}
