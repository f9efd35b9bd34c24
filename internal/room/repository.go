package room

import (
	"context"

	"github.com/hackgods/hospital-portal/internal/apperr"
	"github.com/hackgods/hospital-portal/internal/db"
)

var (
	ErrMissingFields        = apperr.New(apperr.KindInvalidRequest, "missing_fields", "Patient_ID and Room_ID are required.")
	ErrInvalidReference     = apperr.New(apperr.KindInvalidRequest, "invalid_reference", "Invalid Patient_ID (not found in database).")
	ErrRoomNotFound         = apperr.New(apperr.KindNotFound, "room_not_found", "Room not found.")
	ErrNotOccupiedByPatient = apperr.New(apperr.KindNotFound, "not_occupied_by_patient", "Room was not occupied by this patient or room not found.")
	ErrRoomUnavailable      = apperr.New(apperr.KindConflict, "room_unavailable", "Room is already occupied.")
	ErrBillRemovalFailed    = apperr.New(apperr.KindInternal, "bill_removal_failed", "Failed to remove pending bill during cancellation.")
)

// Repository contains all DB interactions needed by the service. Methods
// taking a db.Querier run on the caller's transaction.
type Repository interface {
	// Booking
	LockRoom(ctx context.Context, q db.Querier, roomID string) (*LockedRoom, error)
	Occupy(ctx context.Context, q db.Querier, roomID string, patientID int64) error
	InsertBill(ctx context.Context, q db.Querier, b NewBill) (int64, error)

	// Cancellation
	Release(ctx context.Context, q db.Querier, roomID string, patientID int64) (bool, error)
	FindPendingBooking(ctx context.Context, q db.Querier, patientID int64, roomID string) (int64, bool, error)
	DeleteBill(ctx context.Context, q db.Querier, billID int64) (bool, error)

	// Reads
	ListWards(ctx context.Context) ([]Ward, error)
	ListBills(ctx context.Context, patientID int64) ([]Bill, error)
}
