package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hackgods/hospital-portal/internal/db"
)

// Timestamps are compared as wall-clock values; callers convert the window
// into the clinic's zone first.
const wallClockLayout = "2006-01-02 15:04:05"

type PgRepository struct {
	q db.Querier
}

func NewPgRepository(q db.Querier) *PgRepository {
	return &PgRepository{q: q}
}

func (r *PgRepository) ScheduledExists(ctx context.Context, q db.Querier, doctorID int64, date, hhmm string) (bool, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		SELECT appt_id
		FROM appointments
		WHERE doctor_id = $1
		  AND appt_date = $2::date
		  AND appt_time = $3::time
		  AND status = 'Scheduled'
		LIMIT 1
	`, doctorID, date, hhmm).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PgRepository) Insert(ctx context.Context, q db.Querier, in CreateInput) (*Appointment, error) {
	var a Appointment
	err := q.QueryRowContext(ctx, `
		INSERT INTO appointments (patient_id, doctor_id, appt_date, appt_time, status)
		VALUES ($1, $2, $3::date, $4::time, 'Scheduled')
		RETURNING appt_id, patient_id, doctor_id,
		          to_char(appt_date, 'YYYY-MM-DD'), to_char(appt_time, 'HH24:MI'), status
	`, in.PatientID, in.DoctorID, in.Date, in.Time).Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.Date,
		&a.Time,
		&a.Status,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, q db.Querier, id int64, status Status) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE appt_id = $1
	`, id, status)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *PgRepository) ListForPatient(ctx context.Context, patientID int64) ([]PatientAppointment, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT a.appt_id, to_char(a.appt_date, 'YYYY-MM-DD'), to_char(a.appt_time, 'HH24:MI'), a.status, d.name
		FROM appointments a
		JOIN doctors d ON d.doctor_id = a.doctor_id
		WHERE a.patient_id = $1
		ORDER BY a.appt_date DESC, a.appt_time DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []PatientAppointment{}
	for rows.Next() {
		var a PatientAppointment
		if err := rows.Scan(&a.ID, &a.Date, &a.Time, &a.Status, &a.DoctorName); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *PgRepository) ListForDoctor(ctx context.Context, doctorID int64) ([]DoctorAppointment, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT a.appt_id, to_char(a.appt_date, 'YYYY-MM-DD'), to_char(a.appt_time, 'HH24:MI'), a.status, p.name, p.patient_id
		FROM appointments a
		JOIN patients p ON p.patient_id = a.patient_id
		WHERE a.doctor_id = $1
		ORDER BY a.appt_date ASC, a.appt_time ASC
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []DoctorAppointment{}
	for rows.Next() {
		var a DoctorAppointment
		if err := rows.Scan(&a.ID, &a.Date, &a.Time, &a.Status, &a.PatientName, &a.PatientID); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *PgRepository) ScheduledTimes(ctx context.Context, doctorID int64, date string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT to_char(appt_time, 'HH24:MI')
		FROM appointments
		WHERE doctor_id = $1
		  AND appt_date = $2::date
		  AND status = 'Scheduled'
		ORDER BY appt_time
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// ListDepartments loads departments and doctors in two queries and groups
// doctors under their department.
func (r *PgRepository) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT dept_id, name FROM departments ORDER BY dept_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	departments := []Department{}
	index := make(map[int64]int)
	for rows.Next() {
		d := Department{Doctors: []Doctor{}}
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		index[d.ID] = len(departments)
		departments = append(departments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	docRows, err := r.q.QueryContext(ctx, `
		SELECT doctor_id, dept_id, name, specialization
		FROM doctors
		WHERE dept_id IS NOT NULL
		ORDER BY doctor_id
	`)
	if err != nil {
		return nil, err
	}
	defer docRows.Close()

	for docRows.Next() {
		var doc Doctor
		var deptID int64
		var spec sql.NullString
		if err := docRows.Scan(&doc.ID, &deptID, &doc.Name, &spec); err != nil {
			return nil, err
		}
		if spec.Valid {
			doc.Specialization = &spec.String
		}
		if i, ok := index[deptID]; ok {
			departments[i].Doctors = append(departments[i].Doctors, doc)
		}
	}
	return departments, docRows.Err()
}

func (r *PgRepository) ListUpcoming(ctx context.Context, from, to time.Time) ([]Upcoming, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT a.appt_id, a.patient_id, p.name, to_char(a.appt_date, 'YYYY-MM-DD'), to_char(a.appt_time, 'HH24:MI')
		FROM appointments a
		JOIN patients p ON p.patient_id = a.patient_id
		WHERE a.status = 'Scheduled'
		  AND a.appt_date + a.appt_time > $1::timestamp
		  AND a.appt_date + a.appt_time <= $2::timestamp
		ORDER BY a.appt_date, a.appt_time
	`, from.Format(wallClockLayout), to.Format(wallClockLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Upcoming
	for rows.Next() {
		var u Upcoming
		if err := rows.Scan(&u.ID, &u.PatientID, &u.PatientName, &u.Date, &u.Time); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}
