package appointment

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/hospital-portal/internal/apperr"
	"github.com/hackgods/hospital-portal/internal/db"
	"github.com/hackgods/hospital-portal/internal/eventlog"
	redisclient "github.com/hackgods/hospital-portal/internal/redis"
)

func setupSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return sqlDB, mock
}

func TestPgRepository_ScheduledExists(t *testing.T) {
	sqlDB, mock := setupSQLMock(t)
	repo := NewPgRepository(sqlDB)

	mock.ExpectQuery(`SELECT appt_id\s+FROM appointments`).
		WithArgs(int64(5), "2025-01-10", "09:00").
		WillReturnRows(sqlmock.NewRows([]string{"appt_id"}).AddRow(3))
	mock.ExpectQuery(`SELECT appt_id\s+FROM appointments`).
		WithArgs(int64(5), "2025-01-10", "09:10").
		WillReturnRows(sqlmock.NewRows([]string{"appt_id"}))

	taken, err := repo.ScheduledExists(context.Background(), sqlDB, 5, "2025-01-10", "09:00")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.ScheduledExists(context.Background(), sqlDB, 5, "2025-01-10", "09:10")
	require.NoError(t, err)
	assert.False(t, taken)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_UpdateStatus(t *testing.T) {
	sqlDB, mock := setupSQLMock(t)
	repo := NewPgRepository(sqlDB)

	mock.ExpectExec(`UPDATE appointments`).WithArgs(int64(7), StatusCancelled).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE appointments`).WithArgs(int64(8), StatusCancelled).WillReturnResult(sqlmock.NewResult(0, 0))

	found, err := repo.UpdateStatus(context.Background(), sqlDB, 7, StatusCancelled)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.UpdateStatus(context.Background(), sqlDB, 8, StatusCancelled)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_ListForDoctorOrdersAscending(t *testing.T) {
	sqlDB, mock := setupSQLMock(t)
	repo := NewPgRepository(sqlDB)

	mock.ExpectQuery(`ORDER BY a.appt_date ASC, a.appt_time ASC`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"appt_id", "date", "time", "status", "name", "patient_id"}).
			AddRow(1, "2025-01-10", "09:00", "Scheduled", "Alice", 1).
			AddRow(2, "2025-01-10", "09:10", "Scheduled", "Bob", 2))

	list, err := repo.ListForDoctor(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, DoctorAppointment{ID: 1, Date: "2025-01-10", Time: "09:00", Status: StatusScheduled, PatientName: "Alice", PatientID: 1}, list[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_ListForPatientOrdersDescending(t *testing.T) {
	sqlDB, mock := setupSQLMock(t)
	repo := NewPgRepository(sqlDB)

	mock.ExpectQuery(`ORDER BY a.appt_date DESC, a.appt_time DESC`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"appt_id", "date", "time", "status", "doctor_name"}))

	list, err := repo.ListForPatient(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, list, "empty result encodes as [] not null")
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_ListDepartmentsGroupsDoctors(t *testing.T) {
	sqlDB, mock := setupSQLMock(t)
	repo := NewPgRepository(sqlDB)

	mock.ExpectQuery(`SELECT dept_id, name FROM departments`).
		WillReturnRows(sqlmock.NewRows([]string{"dept_id", "name"}).
			AddRow(1, "Cardiology").
			AddRow(2, "Radiology"))
	mock.ExpectQuery(`SELECT doctor_id, dept_id, name, specialization`).
		WillReturnRows(sqlmock.NewRows([]string{"doctor_id", "dept_id", "name", "specialization"}).
			AddRow(5, 1, "Dr. House", "Diagnostics").
			AddRow(6, 1, "Dr. Grey", nil))

	deps, err := repo.ListDepartments(context.Background())
	require.NoError(t, err)
	require.Len(t, deps, 2)
	require.Len(t, deps[0].Doctors, 2)
	assert.Equal(t, "Diagnostics", *deps[0].Doctors[0].Specialization)
	assert.Nil(t, deps[0].Doctors[1].Specialization)
	assert.Empty(t, deps[1].Doctors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_ListUpcomingUsesWallClock(t *testing.T) {
	sqlDB, mock := setupSQLMock(t)
	repo := NewPgRepository(sqlDB)
	from := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM appointments a`).
		WithArgs("2025-01-10 08:00:00", "2025-01-12 08:00:00").
		WillReturnRows(sqlmock.NewRows([]string{"appt_id", "patient_id", "name", "date", "time"}).
			AddRow(4, 1, "Alice", "2025-01-11", "10:00"))

	list, err := repo.ListUpcoming(context.Background(), from, from.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, Upcoming{ID: 4, PatientID: 1, PatientName: "Alice", Date: "2025-01-11", Time: "10:00"}, list[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The unique index is the last line of defence: a violation raised by the
// insert must surface as a slot conflict and roll the transaction back.
func TestService_UniqueViolationRollsBack(t *testing.T) {
	sqlDB, mock := setupSQLMock(t)
	store := db.NewStore(sqlDB, zerolog.Nop())
	svc := NewService(NewPgRepository(store), store, redisclient.LocalLocker{}, eventlog.Nop{}, zerolog.Nop())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT appt_id\s+FROM appointments`).
		WithArgs(int64(5), "2025-01-10", "09:00").
		WillReturnRows(sqlmock.NewRows([]string{"appt_id"}))
	mock.ExpectQuery(`INSERT INTO appointments`).
		WithArgs(int64(1), int64(5), "2025-01-10", "09:00").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "appointments_active_slot_uq"})
	mock.ExpectRollback()

	_, err := svc.CreateAppointment(context.Background(), CreateInput{PatientID: 1, DoctorID: 5, Date: "2025-01-10", Time: "09:00"})
	require.ErrorIs(t, err, ErrSlotConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_OtherUniqueViolationIsInternal(t *testing.T) {
	sqlDB, mock := setupSQLMock(t)
	store := db.NewStore(sqlDB, zerolog.Nop())
	svc := NewService(NewPgRepository(store), store, redisclient.LocalLocker{}, eventlog.Nop{}, zerolog.Nop())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT appt_id\s+FROM appointments`).
		WithArgs(int64(5), "2025-01-10", "09:00").
		WillReturnRows(sqlmock.NewRows([]string{"appt_id"}))
	mock.ExpectQuery(`INSERT INTO appointments`).
		WithArgs(int64(1), int64(5), "2025-01-10", "09:00").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "appointments_pkey"})
	mock.ExpectRollback()

	_, err := svc.CreateAppointment(context.Background(), CreateInput{PatientID: 1, DoctorID: 5, Date: "2025-01-10", Time: "09:00"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSlotConflict)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_CreateCommits(t *testing.T) {
	sqlDB, mock := setupSQLMock(t)
	store := db.NewStore(sqlDB, zerolog.Nop())
	svc := NewService(NewPgRepository(store), store, redisclient.LocalLocker{}, eventlog.Nop{}, zerolog.Nop())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT appt_id\s+FROM appointments`).
		WillReturnRows(sqlmock.NewRows([]string{"appt_id"}))
	mock.ExpectQuery(`INSERT INTO appointments`).
		WithArgs(int64(1), int64(5), "2025-01-10", "13:20").
		WillReturnRows(sqlmock.NewRows([]string{"appt_id", "patient_id", "doctor_id", "date", "time", "status"}).
			AddRow(11, 1, 5, "2025-01-10", "13:20", "Scheduled"))
	mock.ExpectCommit()

	appt, err := svc.CreateAppointment(context.Background(), CreateInput{PatientID: 1, DoctorID: 5, Date: "2025-01-10", Time: "13:20:00"})
	require.NoError(t, err)
	assert.Equal(t, int64(11), appt.ID)
	assert.Equal(t, StatusScheduled, appt.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_ForeignKeyViolation(t *testing.T) {
	sqlDB, mock := setupSQLMock(t)
	store := db.NewStore(sqlDB, zerolog.Nop())
	svc := NewService(NewPgRepository(store), store, redisclient.LocalLocker{}, eventlog.Nop{}, zerolog.Nop())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT appt_id\s+FROM appointments`).
		WillReturnRows(sqlmock.NewRows([]string{"appt_id"}))
	mock.ExpectQuery(`INSERT INTO appointments`).
		WillReturnError(&pgconn.PgError{Code: "23503"})
	mock.ExpectRollback()

	_, err := svc.CreateAppointment(context.Background(), CreateInput{PatientID: 999, DoctorID: 5, Date: "2025-01-10", Time: "09:00"})
	require.ErrorIs(t, err, ErrInvalidReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}
