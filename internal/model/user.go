package model

import "time"

// User represents an application user record as stored in the `users`
// table.  The password hash never leaves the server.
type User struct {
	ID           uint64    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserSummary is the minimal identity attached to an authenticated request.
type UserSummary struct {
	ID       uint64 `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Email    string `db:"email" json:"email"`
}

// Summary drops everything but the identity fields.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Email: u.Email}
}

// UserProfile is a user with their activity counters.
type UserProfile struct {
	ID           uint64    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	ProductCount int64     `db:"product_count" json:"productCount"`
	OrderCount   int64     `db:"order_count" json:"orderCount"`
}

// UserSearchRow is one hit of a username search.
type UserSearchRow struct {
	ID           uint64    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	ProductCount int64     `db:"product_count" json:"product_count"`
}
