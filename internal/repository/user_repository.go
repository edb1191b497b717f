package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/ecofinds-marketplace/internal/model"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, username, email, password_hash, created_at, updated_at"

// NormalizeEmail lower-cases and trims an address before it is stored or
// compared.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create inserts a user with an already hashed password and returns its ID.
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash) VALUES (?,?,?)",
		strings.TrimSpace(username), NormalizeEmail(email), passwordHash)
	if err != nil {
		return 0, classifyUserUnique(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.DB.GetContext(ctx, &u,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
	return u, notFound(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.GetContext(ctx, &u,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return u, notFound(err)
}

// GetSummary fetches the minimal identity record used to authenticate
// requests.
func (r *UserRepo) GetSummary(ctx context.Context, id uint64) (model.UserSummary, error) {
	var u model.UserSummary
	err := r.DB.GetContext(ctx, &u, "SELECT id, username, email FROM users WHERE id=? LIMIT 1", id)
	return u, notFound(err)
}

// Exists reports whether a user with the id is present.
func (r *UserRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var n int
	if err := r.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM users WHERE id=?", id); err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindByEmailOrUsername reports whether either value is already in use.
func (r *UserRepo) FindByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var n int
	err := r.DB.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM users WHERE email=? OR username=?",
		NormalizeEmail(email), strings.TrimSpace(username))
	return n > 0, err
}

// UsernameTaken reports whether another user already holds username.
func (r *UserRepo) UsernameTaken(ctx context.Context, username string, excludeID uint64) (bool, error) {
	var n int
	err := r.DB.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM users WHERE username=? AND id<>?", strings.TrimSpace(username), excludeID)
	return n > 0, err
}

// EmailTaken reports whether another user already holds email.
func (r *UserRepo) EmailTaken(ctx context.Context, email string, excludeID uint64) (bool, error) {
	var n int
	err := r.DB.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM users WHERE email=? AND id<>?", NormalizeEmail(email), excludeID)
	return n > 0, err
}

// UserPatch carries the profile columns an update may change.  Nil fields
// are left untouched.
type UserPatch struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool { return p.Username == nil && p.Email == nil && p.PasswordHash == nil }

// Update applies patch to the user and bumps updated_at.
func (r *UserRepo) Update(ctx context.Context, id uint64, p UserPatch) error {
	var (
		sets []string
		args []interface{}
	)
	if p.Username != nil {
		sets = append(sets, "username=?")
		args = append(args, strings.TrimSpace(*p.Username))
	}
	if p.Email != nil {
		sets = append(sets, "email=?")
		args = append(args, NormalizeEmail(*p.Email))
	}
	if p.PasswordHash != nil {
		sets = append(sets, "password_hash=?")
		args = append(args, *p.PasswordHash)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at=CURRENT_TIMESTAMP")
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if err != nil {
		return classifyUserUnique(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Profile returns the user with their active listing and purchase counts.
func (r *UserRepo) Profile(ctx context.Context, id uint64) (model.UserProfile, error) {
	var p model.UserProfile
	err := r.DB.GetContext(ctx, &p, `
		SELECT u.id, u.username, u.email, u.created_at,
		       (SELECT COUNT(*) FROM products p WHERE p.seller_id = u.id AND p.status = 'active') AS product_count,
		       (SELECT COUNT(*) FROM orders o WHERE o.buyer_id = u.id) AS order_count
		FROM users u
		WHERE u.id = ?`, id)
	return p, notFound(err)
}

// Search finds users whose username contains fragment, newest first.
func (r *UserRepo) Search(ctx context.Context, fragment string, limit, offset int) ([]model.UserSearchRow, int64, error) {
	like := "%" + fragment + "%"
	var total int64
	if err := r.DB.GetContext(ctx, &total, "SELECT COUNT(*) FROM users WHERE username LIKE ?", like); err != nil {
		return nil, 0, err
	}
	rows := []model.UserSearchRow{}
	err := r.DB.SelectContext(ctx, &rows, `
		SELECT u.id, u.username, u.created_at,
		       (SELECT COUNT(*) FROM products p WHERE p.seller_id = u.id AND p.status = 'active') AS product_count
		FROM users u
		WHERE u.username LIKE ?
		ORDER BY u.created_at DESC, u.id DESC
		LIMIT ? OFFSET ?`, like, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// notFound turns sql.ErrNoRows into ErrNotFound and passes anything else
// through.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
