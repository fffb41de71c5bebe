package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"

	"github.com/mangekyou-labs/flare-emissary/internal/chain"
)

type fakeLookup struct {
	subs []chain.Subscription
	err  error
}

func (f *fakeLookup) MatchingSubscriptions(ctx context.Context, address string, eventType chain.EventType) ([]chain.Subscription, error) {
	return f.subs, f.err
}

func signToken(t *testing.T, secret string, expiry time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry))}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestHealthEndpointIsUnauthenticated(t *testing.T) {
	r := NewRouter(&fakeLookup{}, "secret")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDebugSubscriptionsRejectsMissingToken(t *testing.T) {
	r := NewRouter(&fakeLookup{}, "secret")
	req := httptest.NewRequest(http.MethodGet, "/debug/subscriptions?address=0xabc&event_type=generic_event", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDebugSubscriptionsRejectsExpiredToken(t *testing.T) {
	r := NewRouter(&fakeLookup{}, "secret")
	req := httptest.NewRequest(http.MethodGet, "/debug/subscriptions?address=0xabc&event_type=generic_event", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "secret", -time.Hour))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDebugSubscriptionsAcceptsValidToken(t *testing.T) {
	lookup := &fakeLookup{subs: []chain.Subscription{{EventType: chain.GenericEvent}}}
	r := NewRouter(lookup, "secret")
	req := httptest.NewRequest(http.MethodGet, "/debug/subscriptions?address=0xabc&event_type=generic_event", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "secret", time.Hour))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDebugSubscriptionsRequiresQueryParams(t *testing.T) {
	r := NewRouter(&fakeLookup{}, "secret")
	req := httptest.NewRequest(http.MethodGet, "/debug/subscriptions", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "secret", time.Hour))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
