package server

import (
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/mohammad-safakhou/worstcrm/internal/runtime"
	"github.com/mohammad-safakhou/worstcrm/internal/store"
)

type AuthHandler struct {
	Store             *store.Store
	Secret            []byte
	TokenTTL          time.Duration
	MaxFailedAttempts int
	Revocations       runtime.Revocations
	SecureCookie      bool
	Logger            *log.Logger
}

// Register mounts login publicly and the session routes behind authMW.
func (a *AuthHandler) Register(g *echo.Group, authMW echo.MiddlewareFunc) {
	g.POST("/login", a.login)
	g.POST("/logout", a.logout, authMW)
}

// RegisterMe mounts the current-user route.
func (a *AuthHandler) RegisterMe(g *echo.Group) {
	g.GET("", a.me)
}

var errInvalidCredentials = echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")

// login checks the password and issues a token carrying the user's scopes.
// Each failure counts against the user; at MaxFailedAttempts the account
// is locked until an admin resets failed_attempts.
func (a *AuthHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	user, ok, err := a.Store.GetUserWithHash(ctx, req.Username)
	if err != nil {
		return storeError(err)
	}
	if !ok {
		return errInvalidCredentials
	}
	if user.IsDisabled {
		return echo.NewHTTPError(http.StatusForbidden, "user disabled")
	}
	if a.MaxFailedAttempts > 0 && user.FailedAttempts >= a.MaxFailedAttempts {
		return echo.NewHTTPError(http.StatusForbidden, "too many failed attempts")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)) != nil {
		if _, _, err := a.Store.IncreaseFailedAttempts(ctx, user.UserID); err != nil {
			a.Logger.Printf("failed attempt for %s not recorded: %v", user.UserID, err)
		}
		return errInvalidCredentials
	}
	if user.FailedAttempts > 0 {
		if err := a.Store.ResetFailedAttempts(ctx, user.UserID); err != nil {
			return storeError(err)
		}
	}

	tok, err := runtime.SignJWT(user.UserID, a.Secret, a.TokenTTL, user.Scopes...)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.SetCookie(&http.Cookie{
		Name:     "auth",
		Value:    tok.Value,
		Path:     "/",
		Expires:  tok.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.SecureCookie,
	})
	// also return token for Bearer flows
	c.Response().Header().Set("Authorization", "Bearer "+tok.Value)
	return c.JSON(http.StatusOK, TokenResponse{AccessToken: tok.Value, TokenType: "bearer", ExpiresAt: tok.ExpiresAt})
}

// logout revokes the presented token until it expires and clears the
// cookie.
func (a *AuthHandler) logout(c echo.Context) error {
	if a.Revocations != nil {
		jti, exp, err := runtime.TokenFromContext(c)
		if err == nil {
			if err := a.Revocations.Revoke(c.Request().Context(), jti, exp); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
			}
		}
	}
	c.SetCookie(&http.Cookie{Name: "auth", Value: "", Path: "/", MaxAge: -1})
	return c.NoContent(http.StatusOK)
}

func (a *AuthHandler) me(c echo.Context) error {
	rec, ok, err := a.Store.GetUser(c.Request().Context(), actor(c))
	return found(c, "user", rec, ok, err)
}
