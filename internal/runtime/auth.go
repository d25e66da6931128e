package runtime

import (
	"context"
	"errors"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Token scopes.
const (
	ScopeWrite = "rw"
	ScopeAdmin = "admin"
)

// Revocations tracks tokens invalidated before they expire.
type Revocations interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Token is a signed credential together with the claims needed to revoke it.
type Token struct {
	Value     string    `json:"access_token"`
	ID        string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignJWT issues a signed token with the provided subject and TTL. Every
// token carries a fresh jti.
func SignJWT(subject string, secret []byte, ttl time.Duration, scopes ...string) (Token, error) {
	exp := time.Now().Add(ttl)
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"sub": subject,
		"jti": jti,
		"exp": exp.Unix(),
	}
	if len(scopes) > 0 {
		claims["scopes"] = scopes
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, ID: jti, ExpiresAt: time.Unix(exp.Unix(), 0)}, nil
}

// EchoAuthMiddleware validates JWT tokens from the Authorization header or
// the auth cookie. revoked may be nil.
func EchoAuthMiddleware(secret []byte, revoked Revocations) echo.MiddlewareFunc {
	logger := log.New(log.Writer(), "[AUTH] ", log.LstdFlags)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok := extractToken(c)
			if tok == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
			}
			parsed, err := parser.Parse(tok, func(t *jwt.Token) (interface{}, error) { return secret, nil })
			if err != nil || !parsed.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			claims, ok := parsed.Claims.(jwt.MapClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			sub, _ := claims["sub"].(string)
			if sub == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			jti, _ := claims["jti"].(string)
			if revoked != nil && jti != "" {
				gone, err := revoked.IsRevoked(c.Request().Context(), jti)
				if err != nil {
					logger.Printf("revocation lookup for %s: %v", sub, err)
					return echo.NewHTTPError(http.StatusServiceUnavailable, "token check unavailable")
				}
				if gone {
					return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
				}
			}
			reqCtx := context.WithValue(c.Request().Context(), subjectKey{}, sub)
			scopes := extractScopes(claims)
			if len(scopes) > 0 {
				reqCtx = context.WithValue(reqCtx, scopeKey{}, scopes)
				c.Set("scopes", scopes)
			}
			if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
				c.Set("token_exp", exp.Time)
			}
			c.Set("user_id", sub)
			c.Set("jti", jti)
			c.SetRequest(c.Request().WithContext(reqCtx))
			return next(c)
		}
	}
}

func extractToken(c echo.Context) string {
	if h := c.Request().Header.Get("Authorization"); len(h) > 7 && h[:7] == "Bearer " {
		return h[7:]
	}
	if ck, err := c.Cookie("auth"); err == nil {
		return ck.Value
	}
	return ""
}

// TokenFromContext returns the jti and expiry stored by EchoAuthMiddleware.
func TokenFromContext(c echo.Context) (string, time.Time, error) {
	jti, _ := c.Get("jti").(string)
	exp, _ := c.Get("token_exp").(time.Time)
	if jti == "" || exp.IsZero() {
		return "", time.Time{}, errors.New("no token in context")
	}
	return jti, exp, nil
}

// ContextWithSubject stores subject the way EchoAuthMiddleware does.
func ContextWithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

type subjectKey struct{}

// SubjectFromContext returns the JWT subject if stored in context via middleware.
func SubjectFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v := ctx.Value(subjectKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

type scopeKey struct{}

// ScopesFromContext returns scopes associated with the request context.
func ScopesFromContext(ctx context.Context) ([]string, bool) {
	if ctx == nil {
		return nil, false
	}
	if v := ctx.Value(scopeKey{}); v != nil {
		if scopes, ok := v.([]string); ok {
			return scopes, true
		}
	}
	return nil, false
}

// RequireScopes ensures the caller token includes all required scopes.
func RequireScopes(required ...string) echo.MiddlewareFunc {
	reqSet := make([]string, 0, len(required))
	for _, scope := range required {
		scope = strings.TrimSpace(scope)
		if scope == "" {
			continue
		}
		reqSet = append(reqSet, scope)
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			existing := getScopesFromContext(c)
			for _, scope := range reqSet {
				if !slices.Contains(existing, scope) {
					return echo.NewHTTPError(http.StatusForbidden, "missing scope: "+scope)
				}
			}
			return next(c)
		}
	}
}

// WriteScopes guards mutating methods with ScopeWrite and lets reads through.
func WriteScopes() echo.MiddlewareFunc {
	guard := RequireScopes(ScopeWrite)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		guarded := guard(next)
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}
			return guarded(c)
		}
	}
}

func extractScopes(claims jwt.MapClaims) []string {
	if raw, ok := claims["scopes"]; ok {
		return normaliseScopes(raw)
	}
	if raw, ok := claims["scope"]; ok {
		return normaliseScopes(raw)
	}
	return nil
}

func normaliseScopes(raw interface{}) []string {
	var items []string
	switch v := raw.(type) {
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
	case []string:
		items = v
	case string:
		items = strings.Fields(v)
	default:
		return nil
	}
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getScopesFromContext(c echo.Context) []string {
	if c == nil {
		return nil
	}
	if raw := c.Get("scopes"); raw != nil {
		if scopes, ok := raw.([]string); ok {
			return scopes
		}
	}
	if scopes, ok := ScopesFromContext(c.Request().Context()); ok {
		return scopes
	}
	return nil
}
