package prescription

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hackgods/hospital-portal/internal/db"
)

type PgRepository struct {
	q db.Querier
}

func NewPgRepository(q db.Querier) *PgRepository {
	return &PgRepository{q: q}
}

func (r *PgRepository) LockMedicineStock(ctx context.Context, q db.Querier, medicineID int64) (int, error) {
	var stock int
	err := q.QueryRowContext(ctx, `
		SELECT stock
		FROM medicines
		WHERE medicine_id = $1
		FOR UPDATE
	`, medicineID).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrMedicineNotFound
	}
	return stock, err
}

func (r *PgRepository) InsertPrescription(ctx context.Context, q db.Querier, p NewPrescription) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO prescriptions (patient_id, medicine_id, quantity, date_prescribed, doctor_id)
		VALUES ($1, $2, $3, CURRENT_DATE, $4)
		RETURNING prescription_id
	`, p.PatientID, p.MedicineID, p.Quantity, p.DoctorID).Scan(&id)
	return id, err
}

func (r *PgRepository) DecrementStock(ctx context.Context, q db.Querier, medicineID int64, qty int) (int, bool, error) {
	var remaining int
	err := q.QueryRowContext(ctx, `
		UPDATE medicines
		SET stock = stock - $2
		WHERE medicine_id = $1
		  AND stock >= $2
		RETURNING stock
	`, medicineID, qty).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return remaining, true, nil
}

func (r *PgRepository) ListMedicines(ctx context.Context) ([]Medicine, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT medicine_id, name, stock FROM medicines ORDER BY medicine_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meds := []Medicine{}
	for rows.Next() {
		var m Medicine
		if err := rows.Scan(&m.ID, &m.Name, &m.Stock); err != nil {
			return nil, err
		}
		meds = append(meds, m)
	}
	return meds, rows.Err()
}

func (r *PgRepository) ListPrescriptions(ctx context.Context, patientID int64) ([]Prescription, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT pr.prescription_id, pr.patient_id, pr.medicine_id, COALESCE(m.name, ''), pr.quantity,
		       to_char(pr.date_prescribed, 'YYYY-MM-DD'), pr.doctor_id
		FROM prescriptions pr
		LEFT JOIN medicines m ON m.medicine_id = pr.medicine_id
		WHERE pr.patient_id = $1
		ORDER BY pr.date_prescribed DESC, pr.prescription_id DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []Prescription{}
	for rows.Next() {
		var p Prescription
		if err := rows.Scan(&p.ID, &p.PatientID, &p.MedicineID, &p.MedicineName, &p.Quantity, &p.DatePrescribed, &p.DoctorID); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
