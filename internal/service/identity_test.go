package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ecofinds-marketplace/internal/repository"
	"github.com/iliyamo/ecofinds-marketplace/internal/utils"
)

func TestCredentialRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.user(t, "carol")

	tok, err := env.identity.IssueCredential(id)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), tok.Exp, time.Minute)

	u, err := env.identity.ResolveCaller(ctx, "Bearer "+tok.Token)
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "carol", u.Username)
	assert.Equal(t, "carol@example.com", u.Email)
}

func TestResolveCallerDeletedUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.user(t, "dave")
	tok, err := env.identity.IssueCredential(id)
	require.NoError(t, err)

	_, err = env.db.Exec("DELETE FROM users WHERE id = ?", id)
	require.NoError(t, err)

	_, err = env.identity.ResolveCaller(ctx, "Bearer "+tok.Token)
	requireKind(t, KindUnauthenticated, err)
	assert.Equal(t, "User not found", err.(*Error).Message)
	assert.Nil(t, env.identity.ResolveCallerOptional(ctx, "Bearer "+tok.Token))
}

func TestResolveCallerFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.user(t, "erin")
	expired, err := utils.NewAccessToken(testSecret, id, -time.Minute)
	require.NoError(t, err)
	foreign, err := utils.NewAccessToken("another-secret", id, time.Hour)
	require.NoError(t, err)

	cases := map[string]struct {
		header string
		msg    string
	}{
		"missing":       {"", "Access token required"},
		"not bearer":    {"Basic abc", "Access token required"},
		"empty bearer":  {"Bearer ", "Access token required"},
		"expired":       {"Bearer " + expired.Token, "Token expired"},
		"bad signature": {"Bearer " + foreign.Token, "Invalid token"},
		"garbage":       {"Bearer not.a.jwt", "Invalid token"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.identity.ResolveCaller(ctx, tc.header)
			requireKind(t, KindUnauthenticated, err)
			assert.Equal(t, tc.msg, err.(*Error).Message)
			assert.Nil(t, env.identity.ResolveCallerOptional(ctx, tc.header))
		})
	}
}

func TestResolveCallerOptional(t *testing.T) {
	env := newTestEnv(t)
	id := env.user(t, "frank")
	tok, err := env.identity.IssueCredential(id)
	require.NoError(t, err)

	u := env.identity.ResolveCallerOptional(context.Background(), "Bearer "+tok.Token)
	require.NotNil(t, u)
	assert.Equal(t, id, u.ID)
}

func TestAuthorizeOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.user(t, "seller")
	buyer := env.user(t, "buyer")
	p := env.product(t, seller, "Sofa", "75")
	d, err := env.orders.Create(ctx, buyer, p, 1)
	require.NoError(t, err)

	for _, kind := range []repository.Resource{repository.ResourceProduct, repository.ResourceOrder} {
		// A missing resource is never reported as forbidden, whoever asks.
		_, err := env.identity.AuthorizeOwnership(ctx, kind, 98765, buyer)
		requireKind(t, KindNotFound, err)
		_, err = env.identity.AuthorizeOwnership(ctx, kind, 98765, seller)
		requireKind(t, KindNotFound, err)
	}

	o, err := env.identity.AuthorizeOwnership(ctx, repository.ResourceProduct, p, seller)
	require.NoError(t, err)
	assert.Equal(t, seller, o.OwnerID)
	assert.Equal(t, "active", o.Status)

	_, err = env.identity.AuthorizeOwnership(ctx, repository.ResourceProduct, p, buyer)
	requireKind(t, KindForbidden, err)

	o, err = env.identity.AuthorizeOwnership(ctx, repository.ResourceOrder, d.ID, seller)
	require.NoError(t, err)
	assert.Equal(t, repository.ResourceOrder, o.Kind)
	_, err = env.identity.AuthorizeOwnership(ctx, repository.ResourceOrder, d.ID, buyer)
	requireKind(t, KindForbidden, err)
}

func TestBearerToken(t *testing.T) {
	raw, ok := BearerToken("bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", raw)

	_, ok = BearerToken("Token abc")
	assert.False(t, ok)
}
