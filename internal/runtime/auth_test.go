package runtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSecret = []byte("0123456789abcdef0123")

type memRevocations struct {
	ids map[string]time.Time
	err error
}

func (m *memRevocations) Revoke(_ context.Context, id string, exp time.Time) error {
	m.ids[id] = exp
	return nil
}

func (m *memRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.ids[id]
	return ok, nil
}

func serveWithToken(t *testing.T, mw echo.MiddlewareFunc, method, token string) (*httptest.ResponseRecorder, echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/api/accounts", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := mw(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })(c)
	return rec, c, err
}

func statusOf(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}

func TestAuthMiddlewareAcceptsSignedToken(t *testing.T) {
	tok, err := SignJWT("alice", testSecret, time.Minute, ScopeWrite)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if tok.ID == "" || tok.ExpiresAt.IsZero() {
		t.Fatalf("token missing id or expiry: %+v", tok)
	}
	rec, c, err := serveWithToken(t, EchoAuthMiddleware(testSecret, nil), http.MethodGet, tok.Value)
	if err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if sub, ok := SubjectFromContext(c.Request().Context()); !ok || sub != "alice" {
		t.Fatalf("subject = %q %v", sub, ok)
	}
	jti, exp, err := TokenFromContext(c)
	if err != nil || jti != tok.ID || !exp.Equal(tok.ExpiresAt) {
		t.Fatalf("token context: %q %v %v", jti, exp, err)
	}
}

func TestAuthMiddlewareRejects(t *testing.T) {
	expired, _ := SignJWT("alice", testSecret, -time.Minute)
	otherKey, _ := SignJWT("alice", []byte("another-secret-0000"), time.Minute)
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice"}).SignedString(testSecret)

	cases := map[string]string{
		"missing":   "",
		"expired":   expired.Value,
		"wrong key": otherKey.Value,
		"no exp":    noExp,
		"garbage":   "not-a-token",
	}
	for name, tok := range cases {
		_, _, err := serveWithToken(t, EchoAuthMiddleware(testSecret, nil), http.MethodGet, tok)
		if statusOf(err) != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %v", name, err)
		}
	}
}

func TestAuthMiddlewareRevokedToken(t *testing.T) {
	revs := &memRevocations{ids: map[string]time.Time{}}
	tok, _ := SignJWT("alice", testSecret, time.Minute)
	if _, _, err := serveWithToken(t, EchoAuthMiddleware(testSecret, revs), http.MethodGet, tok.Value); err != nil {
		t.Fatalf("before revoke: %v", err)
	}
	_ = revs.Revoke(context.Background(), tok.ID, tok.ExpiresAt)
	if _, _, err := serveWithToken(t, EchoAuthMiddleware(testSecret, revs), http.MethodGet, tok.Value); statusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 after revoke, got %v", err)
	}

	revs.err = errors.New("redis down")
	if _, _, err := serveWithToken(t, EchoAuthMiddleware(testSecret, revs), http.MethodGet, tok.Value); statusOf(err) != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when lookup fails, got %v", err)
	}
}

func TestRequireScopes(t *testing.T) {
	reader, _ := SignJWT("bob", testSecret, time.Minute)
	writer, _ := SignJWT("bob", testSecret, time.Minute, ScopeWrite)

	chain := func(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return EchoAuthMiddleware(testSecret, nil)(mw(next))
		}
	}
	if _, _, err := serveWithToken(t, chain(RequireScopes(ScopeAdmin)), http.MethodGet, writer.Value); statusOf(err) != http.StatusForbidden {
		t.Fatalf("expected 403 without admin, got %v", err)
	}
	if _, _, err := serveWithToken(t, chain(WriteScopes()), http.MethodGet, reader.Value); err != nil {
		t.Fatalf("reads need no scope: %v", err)
	}
	if _, _, err := serveWithToken(t, chain(WriteScopes()), http.MethodPost, reader.Value); statusOf(err) != http.StatusForbidden {
		t.Fatalf("expected 403 for write without rw, got %v", err)
	}
	if _, _, err := serveWithToken(t, chain(WriteScopes()), http.MethodPut, writer.Value); err != nil {
		t.Fatalf("rw token should write: %v", err)
	}
}

func TestNormaliseScopes(t *testing.T) {
	got := normaliseScopes("rw  admin ")
	if len(got) != 2 || got[0] != "rw" || got[1] != "admin" {
		t.Fatalf("unexpected scopes %v", got)
	}
	got = normaliseScopes([]interface{}{"rw", 3, " "})
	if len(got) != 1 || got[0] != "rw" {
		t.Fatalf("unexpected scopes %v", got)
	}
}
