package record

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

func (r *PgRepository) ListForPatient(ctx context.Context, patientID int64) ([]MedicalRecord, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT record_id, diagnosis, allergies, surgeries, to_char(record_date, 'YYYY-MM-DD')
		FROM medical_records
		WHERE patient_id = $1
		ORDER BY record_date DESC, record_id DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []MedicalRecord{}
	for rows.Next() {
		var (
			m         MedicalRecord
			allergies sql.NullString
			surgeries sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.Diagnosis, &allergies, &surgeries, &m.Date); err != nil {
			return nil, err
		}
		m.Allergies = nullString(allergies)
		m.Surgeries = nullString(surgeries)
		list = append(list, m)
	}
	return list, rows.Err()
}

func (r *PgRepository) Latest(ctx context.Context, patientID int64) (*Summary, error) {
	var (
		s         Summary
		allergies sql.NullString
		surgeries sql.NullString
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT diagnosis, allergies, surgeries
		FROM medical_records
		WHERE patient_id = $1
		ORDER BY record_date DESC, record_id DESC
		LIMIT 1
	`, patientID).Scan(&s.Diagnosis, &allergies, &surgeries)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Allergies = nullString(allergies)
	s.Surgeries = nullString(surgeries)
	return &s, nil
}

func (r *PgRepository) GetPatient(ctx context.Context, patientID int64) (*Patient, error) {
	var (
		p       Patient
		dob     sql.NullString
		gender  sql.NullString
		address sql.NullString
		doctor  sql.NullInt64
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT patient_id, name, to_char(dob, 'YYYY-MM-DD'), gender, address, primary_doctor_id
		FROM patients
		WHERE patient_id = $1
	`, patientID).Scan(&p.ID, &p.Name, &dob, &gender, &address, &doctor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.DOB = nullString(dob)
	p.Gender = nullString(gender)
	p.Address = nullString(address)
	if doctor.Valid {
		p.PrimaryDoctorID = &doctor.Int64
	}
	return &p, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
