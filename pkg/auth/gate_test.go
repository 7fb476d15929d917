package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgegate/edgegate/pkg/keys"
	"github.com/edgegate/edgegate/pkg/kv"
	"github.com/edgegate/edgegate/pkg/models"
	"github.com/edgegate/edgegate/pkg/quota"
)

const (
	secret = "shared-secret-pw"
	demo   = "demo-pw"
)

type stubLimiter struct {
	allow  bool
	deltas []float64
}

func (s *stubLimiter) CheckAndIncrement(_ context.Context, delta float64) (quota.Result, error) {
	s.deltas = append(s.deltas, delta)
	if !s.allow {
		return quota.Result{Allowed: false, Message: "Exceeded maximum API calls (3) for this hour. Please try again next hour."}, nil
	}
	return quota.Result{Allowed: true, Message: "OK"}, nil
}

func newGate(pool []string, lim Limiter) *Gate {
	return NewGate(secret, demo, keys.NewRotator(pool), lim)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var apiErr *models.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	return apiErr.Status
}

func TestResolveEmptyCredential(t *testing.T) {
	g := newGate([]string{"sk-1"}, &stubLimiter{allow: true})
	_, err := g.Resolve(context.Background(), "", 1)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestResolveSharedSecretRotatesPool(t *testing.T) {
	g := newGate([]string{"sk-1", "sk-2"}, &stubLimiter{allow: true})
	ctx := context.Background()

	g1, err := g.Resolve(ctx, secret, 1)
	require.NoError(t, err)
	g2, err := g.Resolve(ctx, secret, 1)
	require.NoError(t, err)

	assert.Equal(t, GrantShared, g1.Kind)
	assert.Equal(t, "sk-1", g1.Key)
	assert.Equal(t, "sk-2", g2.Key)
	assert.NotEqual(t, secret, g1.Key, "the shared secret must never become the upstream key")
}

func TestResolveSharedSecretEmptyPool(t *testing.T) {
	g := newGate(nil, &stubLimiter{allow: true})
	_, err := g.Resolve(context.Background(), secret, 1)
	assert.ErrorIs(t, err, keys.ErrEmptyPool)
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
}

func TestResolveDemoChargesDelta(t *testing.T) {
	lim := &stubLimiter{allow: true}
	g := newGate([]string{"sk-1"}, lim)

	grant, err := g.Resolve(context.Background(), demo, 0.1)
	require.NoError(t, err)
	assert.Equal(t, GrantDemo, grant.Kind)
	assert.Equal(t, "sk-1", grant.Key)
	assert.Equal(t, []float64{0.1}, lim.deltas)
}

func TestResolveDemoDenied(t *testing.T) {
	g := newGate([]string{"sk-1"}, &stubLimiter{allow: false})
	_, err := g.Resolve(context.Background(), demo, 1)
	assert.Equal(t, http.StatusTooManyRequests, statusOf(t, err))
	assert.Contains(t, err.Error(), "Exceeded maximum API calls")
}

func TestResolveDemoDisabledWhenUnset(t *testing.T) {
	lim := &stubLimiter{allow: true}
	g := NewGate(secret, "", keys.NewRotator([]string{"sk-1"}), lim)

	_, err := g.Resolve(context.Background(), "demo-pw", 1)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	assert.Empty(t, lim.deltas)
}

func TestResolveShortCredential(t *testing.T) {
	g := newGate([]string{"sk-1"}, &stubLimiter{allow: true})
	for _, cred := range []string{"x", "guess", "0123456789"} {
		_, err := g.Resolve(context.Background(), cred, 1)
		assert.Equalf(t, http.StatusUnauthorized, statusOf(t, err), "credential %q", cred)
	}
}

func TestResolvePassThrough(t *testing.T) {
	g := newGate([]string{"sk-1"}, &stubLimiter{allow: true})
	cred := "sk-caller-own-key"
	grant, err := g.Resolve(context.Background(), cred, 1)
	require.NoError(t, err)
	assert.Equal(t, GrantPassThrough, grant.Kind)
	assert.Equal(t, cred, grant.Key)

	grant, err = g.Resolve(context.Background(), "01234567890", 1)
	require.NoError(t, err, "11 characters is long enough")
	assert.Equal(t, "01234567890", grant.Key)
}

func TestResolveWithRealLimiter(t *testing.T) {
	lim := quota.New(kv.NewMemory(), 2)
	g := newGate([]string{"sk-1"}, lim)
	ctx := context.Background()

	_, err := g.Resolve(ctx, demo, 1)
	require.NoError(t, err)
	_, err = g.Resolve(ctx, demo, 1)
	require.NoError(t, err)
	_, err = g.Resolve(ctx, demo, 1)
	assert.Equal(t, http.StatusTooManyRequests, statusOf(t, err))
}

func TestRequirePassword(t *testing.T) {
	g := newGate([]string{"sk-1"}, &stubLimiter{allow: true})
	assert.NoError(t, g.RequirePassword(secret))
	assert.NoError(t, g.RequirePassword(demo))
	assert.Equal(t, http.StatusForbidden, statusOf(t, g.RequirePassword("sk-caller-own-key")))
	assert.Error(t, g.RequirePassword(""))

	noDemo := NewGate(secret, "", keys.NewRotator(nil), nil)
	assert.Error(t, noDemo.RequirePassword(""), "an empty demo password must not match an empty credential")
}

func TestCredentialFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/v1/chat/completions?key=from-query", nil)
	r.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-query", CredentialFromRequest(r))

	r = httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	r.Header.Set("Authorization", "Bearer  from-header ")
	assert.Equal(t, "from-header", CredentialFromRequest(r))

	r = httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	assert.Equal(t, "", CredentialFromRequest(r))
}

func TestRewriteQueryKey(t *testing.T) {
	assert.Equal(t, "alt=sse&key=sk-real", RewriteQueryKey("alt=sse&key=pw.1", "pw.1", "sk-real"))
	assert.Equal(t, "key=sk-real", RewriteQueryKey("key=p%40ss", "p@ss", "sk-real"))
	assert.Equal(t, "alt=sse", RewriteQueryKey("alt=sse", "pw", "sk-real"))
	assert.Equal(t, "", RewriteQueryKey("", "pw", "sk-real"))

	assert.Equal(t, "key=sk-real", RewriteQueryKey("key=my%20shared%20secret", "my shared secret", "sk-real"))
	assert.Equal(t, "key=sk-real", RewriteQueryKey("key=shared%2Dsecret%2Dpw", "shared-secret-pw", "sk-real"))
	assert.Equal(t, "x_key=pw.1&key=sk-real", RewriteQueryKey("x_key=pw.1&key=pw.1", "pw.1", "sk-real"))
	assert.Equal(t, "key=other&alt=sse", RewriteQueryKey("key=other&alt=sse", "pw.1", "sk-real"))
}

func TestFingerprintDoesNotLeak(t *testing.T) {
	fp := Fingerprint(secret)
	assert.Len(t, fp, 8)
	assert.NotContains(t, fp, secret)
	assert.Equal(t, fp, Fingerprint(secret))
}
