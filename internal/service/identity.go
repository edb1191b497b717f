package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/ecofinds-marketplace/internal/model"
	"github.com/iliyamo/ecofinds-marketplace/internal/repository"
	"github.com/iliyamo/ecofinds-marketplace/internal/utils"
)

// UserLookup is the slice of the user store Identity needs.
type UserLookup interface {
	GetSummary(ctx context.Context, id uint64) (model.UserSummary, error)
}

// OwnershipLoader authorises mutations of owned resources.
type OwnershipLoader interface {
	Authorize(ctx context.Context, kind repository.Resource, id, ownerID uint64) (repository.Owned, error)
}

// Identity issues bearer credentials, resolves the caller behind one and
// enforces resource ownership.  Secret and TTL are fixed at construction.
type Identity struct {
	Users     UserLookup
	Ownership OwnershipLoader
	Secret    string
	TTL       time.Duration
}

func NewIdentity(users UserLookup, ownership OwnershipLoader, secret string, ttl time.Duration) *Identity {
	return &Identity{Users: users, Ownership: ownership, Secret: secret, TTL: ttl}
}

// IssueCredential signs a token for userID that expires after TTL.
func (s *Identity) IssueCredential(userID uint64) (utils.AccessToken, error) {
	tok, err := utils.NewAccessToken(s.Secret, userID, s.TTL)
	if err != nil {
		return utils.AccessToken{}, internal("Token generation failed", err)
	}
	return tok, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	raw := strings.TrimSpace(header[len(prefix):])
	return raw, raw != ""
}

// ResolveCaller verifies the bearer token in header and re-reads the user
// it names.  Every failure is Unauthenticated except storage faults.
func (s *Identity) ResolveCaller(ctx context.Context, header string) (model.UserSummary, error) {
	raw, ok := BearerToken(header)
	if !ok {
		return model.UserSummary{}, unauthenticated("Access token required")
	}
	id, err := utils.ParseAccessToken(s.Secret, raw)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.UserSummary{}, unauthenticated("Token expired")
		}
		return model.UserSummary{}, unauthenticated("Invalid token")
	}
	u, err := s.Users.GetSummary(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.UserSummary{}, unauthenticated("User not found")
		}
		return model.UserSummary{}, internal("Token verification failed", err)
	}
	return u, nil
}

// ResolveCallerOptional is ResolveCaller for endpoints that also serve
// anonymous callers: any failure yields nil.
func (s *Identity) ResolveCallerOptional(ctx context.Context, header string) *model.UserSummary {
	if header == "" {
		return nil
	}
	u, err := s.ResolveCaller(ctx, header)
	if err != nil {
		return nil
	}
	return &u
}

// AuthorizeOwnership loads the resource and checks callerID owns it.  A
// missing resource is NotFound, never Forbidden.
func (s *Identity) AuthorizeOwnership(ctx context.Context, kind repository.Resource, id, callerID uint64) (repository.Owned, error) {
	o, err := s.Ownership.Authorize(ctx, kind, id, callerID)
	switch {
	case err == nil:
		return o, nil
	case errors.Is(err, repository.ErrNotFound):
		return repository.Owned{}, notFound(capitalize(kind.String()) + " not found")
	case errors.Is(err, repository.ErrForbidden):
		return repository.Owned{}, forbidden("Access denied")
	default:
		return repository.Owned{}, internal("Ownership check failed", err)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
