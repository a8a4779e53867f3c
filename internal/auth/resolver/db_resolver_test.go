package resolver

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"atelier-auth/internal/auth"
	"atelier-auth/internal/db"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userID = "7d4c6a0e-3b1f-4f7a-9a51-0c2b8f1e6d11"

func newMock(t *testing.T) (*DBResolver, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewDBResolver(&db.DB{DB: sqlDB}), mock
}

var googleIdentity = &auth.ExternalIdentity{
	Provider:       "google",
	ProviderUserID: "1098",
	Email:          "ada@atelier.test",
	EmailVerified:  true,
}

func TestResolve(t *testing.T) {
	t.Run("known identity", func(t *testing.T) {
		r, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT user_id\\s+FROM identities").
			WithArgs("google", "1098").
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(userID))
		mock.ExpectCommit()

		got, err := r.Resolve(context.Background(), googleIdentity)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("new identity upserts user and links", func(t *testing.T) {
		r, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT user_id\\s+FROM identities").
			WithArgs("google", "1098").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("INSERT INTO auth_users").
			WithArgs("ada@atelier.test", true).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(userID))
		mock.ExpectExec("INSERT INTO identities").
			WithArgs(sqlmock.AnyArg(), "google", "1098").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		got, err := r.Resolve(context.Background(), googleIdentity)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lookup failure rolls back", func(t *testing.T) {
		r, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT user_id").WillReturnError(errors.New("conn reset"))
		mock.ExpectRollback()

		_, err := r.Resolve(context.Background(), googleIdentity)
		assert.ErrorContains(t, err, "resolver: lookup identity: conn reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil identity", func(t *testing.T) {
		r, _ := newMock(t)
		_, err := r.Resolve(context.Background(), nil)
		assert.Error(t, err)
	})
}

func TestLookup(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		r, mock := newMock(t)
		mock.ExpectQuery("SELECT email FROM auth_users").
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("ada@atelier.test"))

		email, err := r.Lookup(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, "ada@atelier.test", email)
	})

	t.Run("missing user", func(t *testing.T) {
		r, mock := newMock(t)
		mock.ExpectQuery("SELECT email FROM auth_users").
			WithArgs(userID).
			WillReturnError(sql.ErrNoRows)

		_, err := r.Lookup(context.Background(), userID)
		assert.ErrorIs(t, err, auth.ErrNoIdentity)
	})
}
