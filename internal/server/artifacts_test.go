package server

import (
	"database/sql/driver"
	"net/http"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

const quoteDefinition = `{"type":"object","required":["amount"],"properties":{"amount":{"type":"integer"},"currency":{"type":"string"}}}`

var schemaCols = []string{"artifact_schema_id", "artifact_schema", "created_at", "created_by", "updated_at", "updated_by"}

func expectQuoteSchema(s *testServer) {
	ts := time.Now().UTC()
	s.mock.ExpectQuery(`SELECT .+ FROM artifact_schemas WHERE artifact_schema_id = \$1`).
		WithArgs("quote").
		WillReturnRows(sqlmock.NewRows(schemaCols).AddRow("quote", []byte(quoteDefinition), ts, "root", ts, "root"))
}

func TestCreateArtifactInvalidPayloadIs422(t *testing.T) {
	s := newTestServer(t)
	expectQuoteSchema(s)

	body := `{"account_id":"` + uuid.NewString() + `","opportunity_id":"` + uuid.NewString() +
		`","artifact_schema_id":"quote","name":"Q1","payload":{"currency":"EUR","extra":1}}`
	rec := s.do(t, http.MethodPost, "/api/artifacts", body, writer)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	got := decodeError(t, rec)
	if len(got.Fields) != 2 {
		t.Fatalf("expected both field errors, got %+v", got.Fields)
	}
	s.verify(t)
}

func TestCreateArtifactStoresCanonicalPayload(t *testing.T) {
	s := newTestServer(t)
	expectQuoteSchema(s)
	acct, opp := uuid.New(), uuid.New()
	ts := time.Now().UTC()

	args := make([]driver.Value, 11)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	args[5] = `{"amount":120}`
	s.mock.ExpectQuery(`INSERT INTO artifacts`).
		WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "opportunity_id", "artifact_id", "artifact_schema_id",
			"name", "payload", "tags", "created_at", "created_by", "updated_at", "updated_by"}).
			AddRow(acct.String(), opp.String(), uuid.NewString(), "quote", "Q1", []byte(`{"amount":120}`), "{}", ts, "ana", ts, "ana"))

	body := `{"account_id":"` + acct.String() + `","opportunity_id":"` + opp.String() +
		`","artifact_schema_id":"quote","name":"Q1","payload":{"amount":"120"}}`
	rec := s.do(t, http.MethodPost, "/api/artifacts", body, writer)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	s.verify(t)
}

func TestCreateArtifactUnknownSchemaIs422(t *testing.T) {
	s := newTestServer(t)
	s.mock.ExpectQuery(`FROM artifact_schemas WHERE artifact_schema_id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(schemaCols))

	body := `{"account_id":"` + uuid.NewString() + `","opportunity_id":"` + uuid.NewString() + `","artifact_schema_id":"missing","payload":{}}`
	if rec := s.do(t, http.MethodPost, "/api/artifacts", body, writer); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	s.verify(t)
}

func TestCreateArtifactSchemaChecksDefinition(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(t, http.MethodPost, "/api/artifact-schemas", `{"artifact_schema_id":"quote","artifact_schema":{"type":"object"}}`, writer); rec.Code != http.StatusForbidden {
		t.Fatalf("schemas need admin, got %d", rec.Code)
	}
	rec := s.do(t, http.MethodPost, "/api/artifact-schemas", `{"artifact_schema_id":"quote","artifact_schema":{"type":"tuple"}}`, admin)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad definition, got %d: %s", rec.Code, rec.Body.String())
	}
	s.verify(t)
}

func TestStatusUnknownKindIs404(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(t, http.MethodGet, "/api/status/opportunity", "", reader); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	s.verify(t)
}
