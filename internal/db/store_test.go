package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return NewStore(sqlDB, zerolog.Nop()), mock
}

func TestWithTx_Commit(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE rooms`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(q Querier) error {
		_, err := q.ExecContext(context.Background(), `UPDATE rooms SET availability = 'Unavailable'`)
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackOnError(t *testing.T) {
	store, mock := setupMockStore(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE rooms`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(q Querier) error {
		if _, err := q.ExecContext(context.Background(), `UPDATE rooms SET availability = 'Unavailable'`); err != nil {
			return err
		}
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackFailureIsJoined(t *testing.T) {
	store, mock := setupMockStore(t)
	boom := errors.New("boom")
	rbErr := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(rbErr)

	err := store.WithTx(context.Background(), func(q Querier) error {
		return boom
	})

	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, rbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = store.WithTx(context.Background(), func(q Querier) error {
			panic("unexpected")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_BeginFailure(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	called := false
	err := store.WithTx(context.Background(), func(q Querier) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_CommitFailure(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	err := store.WithTx(context.Background(), func(q Querier) error { return nil })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Violation
	}{
		{&pgconn.PgError{Code: "23505"}, UniqueViolation},
		{&pgconn.PgError{Code: "23503"}, ForeignKeyViolation},
		{&pgconn.PgError{Code: "23514"}, CheckViolation},
		{&pgconn.PgError{Code: "40001"}, NoViolation},
		{errors.New("plain"), NoViolation},
		{nil, NoViolation},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err), "error %v", tt.err)
	}

	wrapped := errors.Join(errors.New("insert"), &pgconn.PgError{Code: "23505", ConstraintName: "appointments_active_slot_uq"})
	assert.Equal(t, UniqueViolation, Classify(wrapped))
	assert.Equal(t, "appointments_active_slot_uq", ConstraintName(wrapped))
}
