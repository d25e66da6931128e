package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/mohammad-safakhou/worstcrm/internal/runtime"
	"github.com/mohammad-safakhou/worstcrm/internal/store"
)

var userCols = []string{"user_id", "full_name", "email", "is_disabled", "scopes", "failed_attempts",
	"created_at", "created_by", "updated_at", "updated_by", "hashed_password"}

func userRow(t *testing.T, password string, failed int, disabled bool) *sqlmock.Rows {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	ts := time.Now().UTC()
	return sqlmock.NewRows(userCols).AddRow("ana", "Ana", "ana@example.com", disabled, "{rw}", failed,
		ts, "root", ts, "root", string(hash))
}

func login(s *testServer, username, password string) *httptest.ResponseRecorder {
	body := `{"username":"` + username + `","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

const selectUser = `SELECT .+ FROM users WHERE user_id = \$1`

func TestLoginIssuesScopedToken(t *testing.T) {
	s := newTestServer(t)
	s.mock.ExpectQuery(selectUser).WithArgs("ana").WillReturnRows(userRow(t, "correct-horse", 0, false))

	rec := login(s, "ana", "correct-horse")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var tok TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &tok); err != nil || tok.AccessToken == "" || tok.TokenType != "bearer" {
		t.Fatalf("unexpected token response %s", rec.Body.String())
	}
	if ck := rec.Result().Cookies(); len(ck) != 1 || ck[0].Name != "auth" || !ck[0].HttpOnly {
		t.Fatalf("auth cookie not set: %v", ck)
	}

	// the token carries the stored scopes, so it can write
	s.mock.ExpectExec(`UPDATE accounts SET attachments = array_remove`).WillReturnResult(sqlmock.NewResult(0, 1))
	req := httptest.NewRequest(http.MethodDelete, "/api/accounts/0b6f1c2e-4a59-4c1e-9a55-2f3b8f0c9d10/attachments/a.pdf", nil)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	out := httptest.NewRecorder()
	s.e.ServeHTTP(out, req)
	if out.Code != http.StatusNoContent {
		t.Fatalf("expected rw token to delete, got %d: %s", out.Code, out.Body.String())
	}
	s.verify(t)
}

func TestLoginWrongPasswordCountsFailure(t *testing.T) {
	s := newTestServer(t)
	s.mock.ExpectQuery(selectUser).WithArgs("ana").WillReturnRows(userRow(t, "correct-horse", 1, false))
	s.mock.ExpectQuery(`UPDATE users SET failed_attempts = failed_attempts \+ 1 WHERE user_id = \$1`).
		WithArgs("ana").
		WillReturnRows(userRow(t, "correct-horse", 2, false))

	rec := login(s, "ana", "battery-staple")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	s.verify(t)
}

func TestLoginLockedAfterMaxFailures(t *testing.T) {
	s := newTestServer(t)
	s.mock.ExpectQuery(selectUser).WithArgs("ana").WillReturnRows(userRow(t, "correct-horse", 3, false))

	rec := login(s, "ana", "correct-horse")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for locked user, got %d", rec.Code)
	}
	s.verify(t)
}

func TestLoginResetsFailuresOnSuccess(t *testing.T) {
	s := newTestServer(t)
	s.mock.ExpectQuery(selectUser).WithArgs("ana").WillReturnRows(userRow(t, "correct-horse", 2, false))
	s.mock.ExpectExec(`UPDATE users SET failed_attempts = 0, updated_at = \$2 WHERE user_id = \$1`).
		WithArgs("ana", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if rec := login(s, "ana", "correct-horse"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	s.verify(t)
}

func TestLoginUnknownUser(t *testing.T) {
	s := newTestServer(t)
	s.mock.ExpectQuery(selectUser).WithArgs("nobody").WillReturnRows(sqlmock.NewRows(userCols))
	if rec := login(s, "nobody", "whatever-pass"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	s.verify(t)
}

type memRevocations map[string]time.Time

func (m memRevocations) Revoke(_ context.Context, id string, exp time.Time) error {
	m[id] = exp
	return nil
}

func (m memRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := m[id]
	return ok, nil
}

func TestLogoutRevokesToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	revs := memRevocations{}
	e := NewEcho(Deps{Store: &store.Store{DB: db}, Secret: testSecret, TokenTTL: time.Minute, Revocations: revs})

	tok, _ := runtime.SignJWT("ana", testSecret, time.Minute)
	send := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+tok.Value)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}
	if code := send(http.MethodPost, "/api/auth/logout"); code != http.StatusOK {
		t.Fatalf("logout: %d", code)
	}
	if _, ok := revs[tok.ID]; !ok {
		t.Fatalf("token %s not revoked", tok.ID)
	}
	if code := send(http.MethodGet, "/api/me"); code != http.StatusUnauthorized {
		t.Fatalf("revoked token accepted: %d", code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
