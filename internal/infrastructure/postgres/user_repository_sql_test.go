package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/identity-service/internal/domain/entity"
	"github.com/oksasatya/identity-service/internal/domain/repository"
)

const aliceID = "0b6a5f4e-6d1e-4a51-9d43-111111111111"

var columns = []string{
	"id", "username", "email", "password_hash", "first_name", "last_name",
	"phone_number", "date_of_birth", "profile_image_url", "email_verified", "phone_verified",
	"account_status", "failed_login_attempts", "last_login_at", "password_changed_at",
	"created_at", "updated_at", "created_by", "updated_by",
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func userRows(users ...*entity.User) *pgxmock.Rows {
	rows := pgxmock.NewRows(columns)
	for _, u := range users {
		rows.AddRow(u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName,
			nil, nil, nil, u.EmailVerified, u.PhoneVerified,
			string(u.AccountStatus), u.FailedLoginAttempts, nil, nil,
			u.CreatedAt, u.UpdatedAt, u.CreatedBy, u.UpdatedBy)
	}
	return rows
}

func alice() *entity.User {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	u := entity.NewUser("alice", "alice@x.io", "digest", "Alice", "Lee", now)
	u.CreatedBy = "admin"
	u.UpdatedBy = "admin"
	return u
}

func TestInsertReturnsStoredRow(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	stored := alice()
	stored.ID = aliceID
	mock.ExpectQuery(`INSERT INTO users \(username, email, password_hash`).
		WillReturnRows(userRows(stored))

	got, err := repo.Save(context.Background(), alice())
	require.NoError(t, err)
	assert.Equal(t, aliceID, got.ID)
	assert.Equal(t, entity.StatusActive, got.AccountStatus)
	assert.Equal(t, stored.CreatedAt, got.CreatedAt)
}

func TestInsertMapsUniqueViolations(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: emailConstraint})
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: usernameConstraint})

	_, err := repo.Save(context.Background(), alice())
	assert.ErrorIs(t, err, repository.ErrEmailTaken)
	_, err = repo.Save(context.Background(), alice())
	assert.ErrorIs(t, err, repository.ErrUsernameTaken)
}

func TestUpdateWithoutMatchingRowIsNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	u := alice()
	u.ID = aliceID
	mock.ExpectQuery(`UPDATE users SET .* WHERE id = \$17 RETURNING`).
		WillReturnRows(pgxmock.NewRows(columns))

	_, err := repo.Save(context.Background(), u)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFindByID(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	stored := alice()
	stored.ID = aliceID
	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs(aliceID).WillReturnRows(userRows(stored))
	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs(aliceID).WillReturnRows(pgxmock.NewRows(columns))

	got, err := repo.FindByID(context.Background(), aliceID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = repo.FindByID(context.Background(), aliceID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMalformedIDsNeverReachTheDatabase(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	ctx := context.Background()

	for _, id := range []string{"42", "abc", ""} {
		_, err := repo.FindByID(ctx, id)
		assert.ErrorIs(t, err, repository.ErrNotFound, id)
		assert.ErrorIs(t, repo.DeleteByID(ctx, id), repository.ErrNotFound, id)

		u := alice()
		u.ID = id
		if id != "" {
			_, err = repo.Save(ctx, u)
			assert.ErrorIs(t, err, repository.ErrNotFound, id)
			assert.ErrorIs(t, repo.Delete(ctx, u), repository.ErrNotFound, id)
		}
	}
}

func TestDeleteByIDChecksRowsAffected(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(aliceID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(aliceID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.DeleteByID(context.Background(), aliceID))
	assert.ErrorIs(t, repo.DeleteByID(context.Background(), aliceID), repository.ErrNotFound)
}

func TestContainingSearchesEscapeTheTerm(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	stored := alice()
	stored.ID = aliceID
	mock.ExpectQuery(`WHERE first_name ILIKE \$1 ORDER BY created_at, id`).
		WithArgs(`%al\_%`).WillReturnRows(userRows(stored))
	mock.ExpectQuery(`WHERE email ILIKE \$1`).
		WithArgs("%x.io%").WillReturnRows(pgxmock.NewRows(columns))

	got, err := repo.FindByFirstNameContaining(context.Background(), "al_")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, aliceID, got[0].ID)

	none, err := repo.FindByEmailContaining(context.Background(), "x.io")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestExistsAndCount(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM users WHERE username = \$1\)`).
		WithArgs("alice").WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT count\(\*\) FROM users`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	ok, err := repo.ExistsByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestTxManagerBindsQueriesToTheTransaction(t *testing.T) {
	mock := newMock(t)
	tm := NewTxManager(mock)
	repo := NewUserRepository(mock)

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadOnly})
	mock.ExpectQuery(`SELECT count\(\*\) FROM users`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectCommit()

	err := tm.WithinReadOnlyTransaction(context.Background(), func(ctx context.Context) error {
		n, err := repo.Count(ctx)
		assert.EqualValues(t, 1, n)
		return err
	})
	require.NoError(t, err)
}

func TestTxManagerRollsBackOnError(t *testing.T) {
	mock := newMock(t)
	tm := NewTxManager(mock)
	boom := errors.New("boom")

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	mock.ExpectRollback()

	err := tm.WithinTransaction(context.Background(), func(ctx context.Context) error {
		return tm.WithinTransaction(ctx, func(context.Context) error { return boom })
	})
	assert.ErrorIs(t, err, boom)
}
