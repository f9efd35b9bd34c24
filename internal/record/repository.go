package record

import (
	"context"

	"github.com/hackgods/hospital-portal/internal/apperr"
)

var (
	ErrPatientNotFound = apperr.New(apperr.KindNotFound, "patient_not_found", "Patient not found.")
)

type Repository interface {
	ListForPatient(ctx context.Context, patientID int64) ([]MedicalRecord, error)
	// Latest returns nil when the patient has no records.
	Latest(ctx context.Context, patientID int64) (*Summary, error)
	// GetPatient returns nil when the patient does not exist.
	GetPatient(ctx context.Context, patientID int64) (*Patient, error)
}
