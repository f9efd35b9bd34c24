package room

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
		logger: logger.With().Str("component", "room").Logger(),
	}
}

// BookRoom marks an available room as occupied by the patient and bills the
// booking. The room row is locked for the whole transaction, so two bookings
// of the same room serialize and the second sees it Unavailable.
func (s *Service) BookRoom(ctx context.Context, patientID int64, roomID string) (*Booking, error) {
	if patientID == 0 || roomID == "" {
		return nil, ErrMissingFields
	}

	var booking Booking
	err := s.tx.WithTx(ctx, func(q db.Querier) error {
		rm, err := s.repo.LockRoom(ctx, q, roomID)
		if err != nil {
			if errors.Is(err, ErrRoomNotFound) {
				return err
			}
			return fmt.Errorf("lock room: %w", err)
		}
		if rm.Availability != Available {
			return ErrRoomUnavailable
		}

		if err := s.repo.Occupy(ctx, q, roomID, patientID); err != nil {
			return mapWriteError(err, "occupy room")
		}

		billID, err := s.repo.InsertBill(ctx, q, NewBill{
			PatientID: patientID,
			RoomID:    roomID,
			Item:      BookingItem(roomID, rm.WardID),
			Amount:    BookingAmount,
		})
		if err != nil {
			return mapWriteError(err, "insert bill")
		}

		booking = Booking{RoomID: roomID, BillID: billID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Record(ctx, eventlog.Event{
		Type:    eventlog.RoomBooked,
		Subject: subject(roomID),
		Payload: map[string]any{"patient_id": patientID, "bill_id": booking.BillID},
	})

	return &booking, nil
}

// CancelRoomBooking frees a room held by the patient and removes the pending
// bill of that booking. The ownership check is part of the update predicate,
// so there is no window between checking and releasing.
func (s *Service) CancelRoomBooking(ctx context.Context, roomID string, patientID int64) (*Cancellation, error) {
	if patientID == 0 || roomID == "" {
		return nil, ErrMissingFields
	}

	result := Cancellation{RoomID: roomID}
	err := s.tx.WithTx(ctx, func(q db.Querier) error {
		released, err := s.repo.Release(ctx, q, roomID, patientID)
		if err != nil {
			return fmt.Errorf("release room: %w", err)
		}
		if !released {
			return ErrNotOccupiedByPatient
		}

		billID, found, err := s.repo.FindPendingBooking(ctx, q, patientID, roomID)
		if err != nil {
			return fmt.Errorf("find pending bill: %w", err)
		}
		if !found {
			return nil
		}

		deleted, err := s.repo.DeleteBill(ctx, q, billID)
		if err != nil {
			return errors.Join(ErrBillRemovalFailed, err)
		}
		if !deleted {
			return ErrBillRemovalFailed
		}
		result.BillID = &billID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Record(ctx, eventlog.Event{
		Type:    eventlog.RoomBookingCancelled,
		Subject: subject(roomID),
		Payload: map[string]any{"patient_id": patientID, "bill_id": result.BillID},
	})

	return &result, nil
}

// ListWards returns every ward with its rooms.
func (s *Service) ListWards(ctx context.Context) ([]Ward, error) {
	wards, err := s.repo.ListWards(ctx)
	if err != nil {
		return nil, fmt.Errorf("list wards: %w", err)
	}
	return wards, nil
}

// ListBills returns the patient's bills, newest first.
func (s *Service) ListBills(ctx context.Context, patientID int64) ([]Bill, error) {
	bills, err := s.repo.ListBills(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return bills, nil
}

func mapWriteError(err error, op string) error {
	if db.Classify(err) == db.ForeignKeyViolation {
		return ErrInvalidReference
	}
	return fmt.Errorf("%s: %w", op, err)
}

func subject(roomID string) string {
	return "room:" + roomID
}
