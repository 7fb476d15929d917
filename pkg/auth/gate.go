// Package auth classifies inbound caller credentials and resolves them to an
// upstream API key.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/edgegate/edgegate/pkg/keys"
	"github.com/edgegate/edgegate/pkg/models"
	"github.com/edgegate/edgegate/pkg/quota"
)

// MinPassThroughLength is the length at or below which an unrecognized
// credential is treated as a mistyped password rather than a real API key.
// TODO: make this configurable per deployment.
const MinPassThroughLength = 10

// GrantKind says how a credential was accepted.
type GrantKind int

const (
	GrantShared GrantKind = iota + 1
	GrantDemo
	GrantPassThrough
)

func (k GrantKind) String() string {
	switch k {
	case GrantShared:
		return "shared"
	case GrantDemo:
		return "demo"
	case GrantPassThrough:
		return "passthrough"
	default:
		return "unknown"
	}
}

// Grant is a successfully resolved credential.
type Grant struct {
	Kind GrantKind
	// Key is the upstream API key to send. For GrantPassThrough it is the
	// caller's own credential.
	Key string
}

// Limiter is the demo quota consulted for the demo password.
type Limiter interface {
	CheckAndIncrement(ctx context.Context, delta float64) (quota.Result, error)
}

// Gate validates caller credentials.
type Gate struct {
	secret  string
	demo    string
	keys    *keys.Rotator
	limiter Limiter
}

// NewGate builds a Gate. An empty demo password disables demo access.
func NewGate(secret, demo string, pool *keys.Rotator, limiter Limiter) *Gate {
	return &Gate{secret: secret, demo: demo, keys: pool, limiter: limiter}
}

// Resolve classifies credential. delta is the demo quota charge for this call.
// Rejections are *models.APIError; an empty key pool surfaces keys.ErrEmptyPool.
func (g *Gate) Resolve(ctx context.Context, credential string, delta float64) (Grant, error) {
	if credential == "" {
		return Grant{}, models.NewAPIError(http.StatusUnauthorized,
			"Missing API key. Provide via ?key= parameter or Authorization header")
	}

	if g.secret != "" && credential == g.secret {
		key, err := g.keys.Next()
		if err != nil {
			return Grant{}, fmt.Errorf("resolve shared password: %w", err)
		}
		return Grant{Kind: GrantShared, Key: key}, nil
	}

	if g.demo != "" && credential == g.demo {
		res, err := g.limiter.CheckAndIncrement(ctx, delta)
		if err != nil {
			return Grant{}, fmt.Errorf("demo quota: %w", err)
		}
		if !res.Allowed {
			log.WithFields(log.Fields{
				"times":     res.Record.Times,
				"max_times": res.Record.MaxTimes,
			}).Info("demo quota exhausted")
			return Grant{}, models.NewAPIError(http.StatusTooManyRequests, res.Message)
		}
		key, err := g.keys.Next()
		if err != nil {
			return Grant{}, fmt.Errorf("resolve demo password: %w", err)
		}
		return Grant{Kind: GrantDemo, Key: key}, nil
	}

	if len(credential) <= MinPassThroughLength {
		log.WithField("credential", Fingerprint(credential)).Debug("rejected short credential")
		return Grant{}, models.NewAPIError(http.StatusUnauthorized, "Wrong password.")
	}

	return Grant{Kind: GrantPassThrough, Key: credential}, nil
}

// RequirePassword rejects credentials that are not one of the configured
// passwords. Endpoints that spend the pool's own keys on auxiliary work use
// it to refuse pass-through keys.
func (g *Gate) RequirePassword(credential string) error {
	if credential != "" && (credential == g.secret || credential == g.demo) {
		return nil
	}
	return models.NewAPIError(http.StatusForbidden, "Invalid API key. Provide a valid key.")
}

// IsPassword reports whether credential is the shared or demo password.
func (g *Gate) IsPassword(credential string) bool {
	return g.RequirePassword(credential) == nil
}

// CredentialFromRequest reads the caller credential from the ?key= query
// parameter, falling back to the Authorization header.
func CredentialFromRequest(r *http.Request) string {
	cred := r.URL.Query().Get("key")
	if cred == "" {
		cred = r.Header.Get("Authorization")
	}
	return normalizeCredential(cred)
}

func normalizeCredential(cred string) string {
	return strings.TrimSpace(strings.Replace(cred, "Bearer ", "", 1))
}

// RewriteQueryKey replaces every key=<original> parameter in rawQuery with
// key=<resolved>, comparing decoded values so any percent-encoding of the
// password is caught. Other parameters keep their raw text and order.
func RewriteQueryKey(rawQuery, original, resolved string) string {
	if rawQuery == "" || original == "" {
		return rawQuery
	}
	pairs := strings.Split(rawQuery, "&")
	for i, pair := range pairs {
		name, value, _ := strings.Cut(pair, "=")
		if n, err := url.QueryUnescape(name); err != nil || n != "key" {
			continue
		}
		v, err := url.QueryUnescape(value)
		if err != nil || normalizeCredential(v) != original {
			continue
		}
		pairs[i] = "key=" + url.QueryEscape(resolved)
	}
	return strings.Join(pairs, "&")
}

// Fingerprint returns a short non-reversible tag for logging a credential.
func Fingerprint(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:4])
}

// StatusOf maps an error from Resolve to an HTTP status.
func StatusOf(err error) int {
	var apiErr *models.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return http.StatusInternalServerError
}
