package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fivem-dashboard/internal/db"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	database, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database, mock
}

func TestNewStaffStoreRejectsUnknownDriver(t *testing.T) {
	database, _ := newMockDB(t)

	_, err := NewStaffStore(database, "sqlite")
	assert.Error(t, err)

	_, err = NewStaffStore(database, db.DriverPostgres)
	assert.NoError(t, err)

	_, err = NewStaffStore(database, db.DriverMySQL)
	assert.NoError(t, err)
}

// The increment and the conditional lock must happen in one statement so
// concurrent failed logins cannot race past the threshold.
func TestPostgresRecordFailedAttemptSingleStatement(t *testing.T) {
	database, mock := newMockDB(t)
	store := &postgresStaffStore{db: database}

	lockUntil := time.Now().UTC().Add(15 * time.Minute)
	mock.ExpectQuery(`UPDATE staff_accounts\s+SET failed_login_attempts = failed_login_attempts \+ 1`).
		WithArgs("acc-1", 5, lockUntil).
		WillReturnRows(sqlmock.NewRows([]string{"failed_login_attempts"}).AddRow(5))

	count, err := store.RecordFailedAttempt(context.Background(), "acc-1", 5, lockUntil)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecordFailedAttemptUnknownAccount(t *testing.T) {
	database, mock := newMockDB(t)
	store := &postgresStaffStore{db: database}

	lockUntil := time.Now().UTC().Add(15 * time.Minute)
	mock.ExpectQuery(`UPDATE staff_accounts`).
		WithArgs("missing", 5, lockUntil).
		WillReturnError(sql.ErrNoRows)

	_, err := store.RecordFailedAttempt(context.Background(), "missing", 5, lockUntil)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

// The mysql variant cannot use RETURNING; it updates in one statement and
// reads the counter back separately.
func TestMySQLRecordFailedAttemptUpdateThenSelect(t *testing.T) {
	database, mock := newMockDB(t)
	store := &mysqlStaffStore{db: database}

	lockUntil := time.Now().UTC().Add(15 * time.Minute)
	mock.ExpectExec("UPDATE staff_accounts").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT failed_login_attempts FROM staff_accounts").
		WithArgs("acc-1").
		WillReturnRows(sqlmock.NewRows([]string{"failed_login_attempts"}).AddRow(5))

	count, err := store.RecordFailedAttempt(context.Background(), "acc-1", 5, lockUntil)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindByUsernameNotFound(t *testing.T) {
	database, mock := newMockDB(t)
	store := &postgresStaffStore{db: database}

	mock.ExpectQuery("SELECT (.+) FROM staff_accounts").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := store.FindByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestPostgresSessionStoreDeleteExpiredBatch(t *testing.T) {
	database, mock := newMockDB(t)
	store := &postgresSessionStore{db: database}

	cutoff := time.Now().UTC()
	mock.ExpectExec(`DELETE FROM sessions s`).
		WithArgs(cutoff, 500).
		WillReturnResult(sqlmock.NewResult(0, 42))

	deleted, err := store.DeleteExpired(context.Background(), cutoff, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(42), deleted)
}
