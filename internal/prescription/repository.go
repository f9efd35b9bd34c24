package prescription

import (
	"context"

	"github.com/hackgods/hospital-portal/internal/apperr"
	"github.com/hackgods/hospital-portal/internal/db"
)

var (
	ErrMissingIDs              = apperr.New(apperr.KindInvalidRequest, "missing_fields", "Doctor_ID and Patient_ID are required.")
	ErrInvalidIDFormat         = apperr.New(apperr.KindInvalidRequest, "invalid_id_format", "Invalid Doctor_ID or Patient_ID format.")
	ErrInvalidMedicineFormat   = apperr.New(apperr.KindInvalidRequest, "invalid_medicine_format", "Invalid Medicine_ID or Quantity format.")
	ErrNoPrescriptionSpecified = apperr.New(apperr.KindInvalidRequest, "no_prescription_specified", "No medicine or quantity specified for prescription.")
	ErrInvalidReference        = apperr.New(apperr.KindInvalidRequest, "invalid_reference", "Invalid Doctor_ID or Patient_ID (not found in database).")
	ErrMedicineNotFound        = apperr.New(apperr.KindNotFound, "medicine_not_found", "Medicine not found.")
	ErrInsufficientStock       = apperr.New(apperr.KindConflict, "insufficient_stock", "Insufficient medicine stock.")
)

// Repository contains all DB interactions needed by the service. Methods
// taking a db.Querier run on the caller's transaction.
type Repository interface {
	LockMedicineStock(ctx context.Context, q db.Querier, medicineID int64) (int, error)
	InsertPrescription(ctx context.Context, q db.Querier, p NewPrescription) (int64, error)
	// DecrementStock removes qty units only if at least qty remain and
	// returns the new stock; ok is false when the guard failed.
	DecrementStock(ctx context.Context, q db.Querier, medicineID int64, qty int) (remaining int, ok bool, err error)

	ListMedicines(ctx context.Context) ([]Medicine, error)
	ListPrescriptions(ctx context.Context, patientID int64) ([]Prescription, error)
}
