package eventlog

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgRecorder_Record(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec(`INSERT INTO event_logs`).
		WithArgs(AppointmentCreated, "appointment:7", `{"doctor_id":5}`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := NewPgRecorder(sqlDB, zerolog.Nop())
	rec.Record(context.Background(), Event{
		Type:    AppointmentCreated,
		Subject: "appointment:7",
		Payload: map[string]any{"doctor_id": 5},
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRecorder_FailureIsLoggedNotReturned(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec(`INSERT INTO event_logs`).
		WithArgs(RoomBooked, "room:R1", nil, sqlmock.AnyArg()).
		WillReturnError(errors.New("relation does not exist"))

	var buf bytes.Buffer
	rec := NewPgRecorder(sqlDB, zerolog.New(&buf))
	rec.Record(context.Background(), Event{Type: RoomBooked, Subject: "room:R1"})

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Contains(t, buf.String(), "insert event log")
	assert.Contains(t, buf.String(), "room:R1")
}
