package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/ecofinds-marketplace/internal/model"
	"github.com/iliyamo/ecofinds-marketplace/internal/repository"
	"github.com/iliyamo/ecofinds-marketplace/internal/utils"
)

const minPasswordLen = 6

// Accounts registers users, logs them in and serves profile reads and
// updates.
type Accounts struct {
	Users      *repository.UserRepo
	Products   *repository.ProductRepo
	Stats      *repository.StatsRepo
	Identity   *Identity
	BcryptCost int
	Log        logrus.FieldLogger

	// Cache holds listings that embed seller names and emails.
	Cache CacheInvalidator
}

// Session is what register and login hand back to the client.
type Session struct {
	Token string            `json:"token"`
	User  model.UserSummary `json:"user"`
}

// Register creates a user and signs them in.
func (s *Accounts) Register(ctx context.Context, username, email, password string) (Session, error) {
	username = strings.TrimSpace(username)
	email = repository.NormalizeEmail(email)
	if username == "" || email == "" || password == "" {
		return Session{}, invalidArg("All fields are required")
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return Session{}, invalidArg("Password must be at least 6 characters")
	}

	taken, err := s.Users.FindByEmailOrUsername(ctx, email, username)
	if err != nil {
		return Session{}, internal("Registration failed", err)
	}
	if taken {
		return Session{}, conflict("User already exists with this email or username")
	}

	hash, err := utils.HashPassword(password, s.BcryptCost)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return Session{}, invalidArg("Password must be at most 72 bytes")
	}
	if err != nil {
		return Session{}, internal("Registration failed", err)
	}
	id, err := s.Users.Create(ctx, username, email, hash)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) || errors.Is(err, repository.ErrUsernameExists) || errors.Is(err, repository.ErrConflict) {
			return Session{}, conflict("User already exists with this email or username")
		}
		return Session{}, internal("Registration failed", err)
	}
	return s.session(model.UserSummary{ID: id, Username: username, Email: email})
}

// Login verifies the credentials and signs the user in.  Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Accounts) Login(ctx context.Context, email, password string) (Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return Session{}, invalidArg("Email and password are required")
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, unauthenticated("Invalid credentials")
		}
		return Session{}, internal("Login failed", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, unauthenticated("Invalid credentials")
	}
	return s.session(u.Summary())
}

func (s *Accounts) session(u model.UserSummary) (Session, error) {
	tok, err := s.Identity.IssueCredential(u.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: tok.Token, User: u}, nil
}

// Me returns the full record of the caller.
func (s *Accounts) Me(ctx context.Context, callerID uint64) (model.User, error) {
	u, err := s.Users.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, notFound("User not found")
		}
		return model.User{}, internal("Failed to load user", err)
	}
	return u, nil
}

// ProfileUpdate is a partial profile change.  Nil fields are left as is.
type ProfileUpdate struct {
	Username        *string
	Email           *string
	CurrentPassword string
	NewPassword     *string
}

// UpdateProfile applies upd to the caller's profile and returns the new
// record.
func (s *Accounts) UpdateProfile(ctx context.Context, callerID uint64, upd ProfileUpdate) (model.User, error) {
	u, err := s.Me(ctx, callerID)
	if err != nil {
		return model.User{}, err
	}

	var patch repository.UserPatch
	if upd.Username != nil {
		name := strings.TrimSpace(*upd.Username)
		if name == "" {
			return model.User{}, invalidArg("Username cannot be empty")
		}
		if name != u.Username {
			taken, err := s.Users.UsernameTaken(ctx, name, callerID)
			if err != nil {
				return model.User{}, internal("Profile update failed", err)
			}
			if taken {
				return model.User{}, invalidArg("Username already taken")
			}
			patch.Username = &name
		}
	}
	if upd.Email != nil {
		email := repository.NormalizeEmail(*upd.Email)
		if email == "" {
			return model.User{}, invalidArg("Email cannot be empty")
		}
		if email != u.Email {
			taken, err := s.Users.EmailTaken(ctx, email, callerID)
			if err != nil {
				return model.User{}, internal("Profile update failed", err)
			}
			if taken {
				return model.User{}, invalidArg("Email already taken")
			}
			patch.Email = &email
		}
	}
	if upd.NewPassword != nil {
		if upd.CurrentPassword == "" {
			return model.User{}, invalidArg("Current password is required to change password")
		}
		if !utils.VerifyPassword(u.PasswordHash, upd.CurrentPassword) {
			return model.User{}, invalidArg("Current password is incorrect")
		}
		if utf8.RuneCountInString(*upd.NewPassword) < minPasswordLen {
			return model.User{}, invalidArg("New password must be at least 6 characters")
		}
		hash, err := utils.HashPassword(*upd.NewPassword, s.BcryptCost)
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return model.User{}, invalidArg("New password must be at most 72 bytes")
		}
		if err != nil {
			return model.User{}, internal("Profile update failed", err)
		}
		patch.PasswordHash = &hash
	}
	if patch.Empty() {
		return model.User{}, invalidArg("No updates provided")
	}

	if err := s.Users.Update(ctx, callerID, patch); err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameExists):
			return model.User{}, invalidArg("Username already taken")
		case errors.Is(err, repository.ErrEmailExists):
			return model.User{}, invalidArg("Email already taken")
		}
		return model.User{}, internal("Profile update failed", err)
	}
	if s.Cache != nil && (patch.Username != nil || patch.Email != nil) {
		if err := s.Cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
			s.Log.WithError(err).WithField("user_id", callerID).Warn("catalog cache not invalidated")
		}
	}
	return s.Me(ctx, callerID)
}

// Profile returns a user with their activity counters.
func (s *Accounts) Profile(ctx context.Context, id uint64) (model.UserProfile, error) {
	p, err := s.Users.Profile(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.UserProfile{}, notFound("User not found")
		}
		return model.UserProfile{}, internal("Failed to load profile", err)
	}
	return p, nil
}

// PublicProfile is a profile with the user's newest active listings.
type PublicProfile struct {
	User     model.UserProfile   `json:"user"`
	Products []model.ProductCard `json:"products"`
}

// PublicProfile returns the profile and up to six of the newest active
// listings.
func (s *Accounts) PublicProfile(ctx context.Context, id uint64) (PublicProfile, error) {
	p, err := s.Profile(ctx, id)
	if err != nil {
		return PublicProfile{}, err
	}
	products, err := s.Products.RecentActiveBySeller(ctx, id, 6)
	if err != nil {
		return PublicProfile{}, internal("Failed to load profile", err)
	}
	return PublicProfile{User: p, Products: products}, nil
}

// Search finds users by username fragment.
func (s *Accounts) Search(ctx context.Context, fragment string, page, limit int) ([]model.UserSearchRow, model.Pagination, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, model.Pagination{}, invalidArg("Search term is required")
	}
	pg := model.NewPagination(page, limit, 0)
	rows, total, err := s.Users.Search(ctx, fragment, limit, pg.Offset())
	if err != nil {
		return nil, model.Pagination{}, internal("Search failed", err)
	}
	return rows, model.NewPagination(page, limit, total), nil
}

// Dashboard returns the caller's listing, purchase and sales figures.
func (s *Accounts) Dashboard(ctx context.Context, callerID uint64) (model.Dashboard, error) {
	d, err := s.Stats.Dashboard(ctx, callerID)
	if err != nil {
		return model.Dashboard{}, internal("Failed to load dashboard", err)
	}
	return d, nil
}
