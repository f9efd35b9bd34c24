package room

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hackgods/hospital-portal/internal/db"
)

type PgRepository struct {
	q db.Querier
}

func NewPgRepository(q db.Querier) *PgRepository {
	return &PgRepository{q: q}
}

func (r *PgRepository) LockRoom(ctx context.Context, q db.Querier, roomID string) (*LockedRoom, error) {
	var lr LockedRoom
	err := q.QueryRowContext(ctx, `
		SELECT room_id, ward_id, availability
		FROM rooms
		WHERE room_id = $1
		FOR UPDATE
	`, roomID).Scan(&lr.ID, &lr.WardID, &lr.Availability)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lr, nil
}

func (r *PgRepository) Occupy(ctx context.Context, q db.Querier, roomID string, patientID int64) error {
	_, err := q.ExecContext(ctx, `
		UPDATE rooms
		SET availability = 'Unavailable',
		    patient_id_occupying = $2
		WHERE room_id = $1
	`, roomID, patientID)
	return err
}

func (r *PgRepository) InsertBill(ctx context.Context, q db.Querier, b NewBill) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO bills (patient_id, room_id, item, amount, payment_status, date_issued)
		VALUES ($1, $2, $3, $4, 'Pending', CURRENT_DATE)
		RETURNING bill_id
	`, b.PatientID, b.RoomID, b.Item, b.Amount).Scan(&id)
	return id, err
}

// Release frees the room only if patientID is the current occupant.
func (r *PgRepository) Release(ctx context.Context, q db.Querier, roomID string, patientID int64) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE rooms
		SET availability = 'Available',
		    patient_id_occupying = NULL
		WHERE room_id = $1
		  AND patient_id_occupying = $2
	`, roomID, patientID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *PgRepository) FindPendingBooking(ctx context.Context, q db.Querier, patientID int64, roomID string) (int64, bool, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		SELECT bill_id
		FROM bills
		WHERE patient_id = $1
		  AND room_id = $2
		  AND payment_status = 'Pending'
		ORDER BY bill_id DESC
		LIMIT 1
		FOR UPDATE
	`, patientID, roomID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (r *PgRepository) DeleteBill(ctx context.Context, q db.Querier, billID int64) (bool, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM bills WHERE bill_id = $1`, billID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *PgRepository) ListWards(ctx context.Context) ([]Ward, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT ward_id, ward_name FROM wards ORDER BY ward_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	wards := []Ward{}
	index := make(map[int64]int)
	for rows.Next() {
		w := Ward{Rooms: []Room{}}
		if err := rows.Scan(&w.ID, &w.Name); err != nil {
			return nil, err
		}
		index[w.ID] = len(wards)
		wards = append(wards, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	roomRows, err := r.q.QueryContext(ctx, `
		SELECT room_id, ward_id, type, availability, patient_id_occupying
		FROM rooms
		ORDER BY room_id
	`)
	if err != nil {
		return nil, err
	}
	defer roomRows.Close()

	for roomRows.Next() {
		var rm Room
		var wardID int64
		var occupant sql.NullInt64
		if err := roomRows.Scan(&rm.ID, &wardID, &rm.Type, &rm.Availability, &occupant); err != nil {
			return nil, err
		}
		if occupant.Valid {
			rm.PatientIDOccupying = &occupant.Int64
		}
		if i, ok := index[wardID]; ok {
			wards[i].Rooms = append(wards[i].Rooms, rm)
		}
	}
	return wards, roomRows.Err()
}

func (r *PgRepository) ListBills(ctx context.Context, patientID int64) ([]Bill, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT bill_id, room_id, item, amount::float8, payment_status, to_char(date_issued, 'YYYY-MM-DD')
		FROM bills
		WHERE patient_id = $1
		ORDER BY date_issued DESC, bill_id DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bills := []Bill{}
	for rows.Next() {
		var b Bill
		var roomID sql.NullString
		if err := rows.Scan(&b.ID, &roomID, &b.Item, &b.Amount, &b.PaymentStatus, &b.DateIssued); err != nil {
			return nil, err
		}
		if roomID.Valid {
			b.RoomID = &roomID.String
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}
