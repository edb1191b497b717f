package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*OwnershipRepo, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return NewOwnershipRepo(sqlx.NewDb(raw, "sqlmock")), mock
}

func TestAuthorizeUsesFixedQueryPerKind(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, seller_id AS owner_id, status FROM orders WHERE id = ?")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "status"}).AddRow(5, 9, "pending"))

	o, err := repo.Authorize(context.Background(), ResourceOrder, 5, 9)
	require.NoError(t, err)
	assert.Equal(t, Owned{Kind: ResourceOrder, ID: 5, OwnerID: 9, Status: "pending"}, o)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthorizeMissingRowIsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM products WHERE id = ?").
		WithArgs(77).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "status"}))

	_, err := repo.Authorize(context.Background(), ResourceProduct, 77, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthorizeWrongOwnerIsForbidden(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM products WHERE id = ?").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "status"}).AddRow(3, 2, "active"))

	_, err := repo.Authorize(context.Background(), ResourceProduct, 3, 1)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuthorizeStorageFaultPassesThrough(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("connection reset")
	mock.ExpectQuery("FROM orders WHERE id = ?").WithArgs(1).WillReturnError(boom)

	_, err := repo.Authorize(context.Background(), ResourceOrder, 1, 1)
	assert.ErrorIs(t, err, boom)
}

func TestLoadUnknownKind(t *testing.T) {
	repo, _ := newMockRepo(t)
	_, err := repo.Load(context.Background(), Resource(42), 1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
