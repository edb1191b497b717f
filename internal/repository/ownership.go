package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Resource is a kind of row that belongs to exactly one user.  The set is
// closed: each kind maps to a fixed table and owner column so no query is
// ever built from caller input.
type Resource int

const (
	ResourceProduct Resource = iota + 1
	ResourceOrder
)

func (r Resource) String() string {
	switch r {
	case ResourceProduct:
		return "product"
	case ResourceOrder:
		return "order"
	}
	return fmt.Sprintf("resource(%d)", int(r))
}

var ownershipQueries = map[Resource]string{
	ResourceProduct: `SELECT id, seller_id AS owner_id, status FROM products WHERE id = ?`,
	ResourceOrder:   `SELECT id, seller_id AS owner_id, status FROM orders WHERE id = ?`,
}

// Owned is the slice of an owned row needed to authorise a mutation.
type Owned struct {
	Kind    Resource `db:"-"`
	ID      uint64   `db:"id"`
	OwnerID uint64   `db:"owner_id"`
	Status  string   `db:"status"`
}

// OwnershipRepo loads owner fields for the resources in the closed set.
type OwnershipRepo struct{ DB *sqlx.DB }

func NewOwnershipRepo(db *sqlx.DB) *OwnershipRepo { return &OwnershipRepo{DB: db} }

// Load returns the resource's owner.  ErrNotFound when no row matches;
// an unknown kind is a programming error.
func (r *OwnershipRepo) Load(ctx context.Context, kind Resource, id uint64) (Owned, error) {
	q, ok := ownershipQueries[kind]
	if !ok {
		return Owned{}, fmt.Errorf("ownership: unknown %s", kind)
	}
	var o Owned
	if err := r.DB.GetContext(ctx, &o, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Owned{}, ErrNotFound
		}
		return Owned{}, err
	}
	o.Kind = kind
	return o, nil
}

// Authorize loads the resource and checks that ownerID owns it.  Absent
// rows yield ErrNotFound before any ownership comparison happens.
func (r *OwnershipRepo) Authorize(ctx context.Context, kind Resource, id, ownerID uint64) (Owned, error) {
	o, err := r.Load(ctx, kind, id)
	if err != nil {
		return Owned{}, err
	}
	if o.OwnerID != ownerID {
		return o, ErrForbidden
	}
	return o, nil
}
