package server

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/worstcrm/internal/payload"
	"github.com/mohammad-safakhou/worstcrm/internal/store"
)

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error  string               `json:"error"`
	Fields []payload.FieldError `json:"fields,omitempty"`
}

// LoginRequest accepts JSON or form-encoded credentials.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// URLResponse carries a presigned object URL.
type URLResponse struct {
	URL string `json:"url"`
}

// RecordRequest is the create body shared by accounts, projects, tasks and
// notes.
type RecordRequest struct {
	Name    string           `json:"name"`
	OwnedBy string           `json:"owned_by"`
	DueDate *store.Timestamp `json:"due_date"`
	Status  *string          `json:"status"`
	Tags    []string         `json:"tags"`
	Data    json.RawMessage  `json:"data"`
}

func (r RecordRequest) common(actor string) store.Common {
	return store.Common{
		Summary: store.Summary{
			Name:    r.Name,
			OwnedBy: r.OwnedBy,
			DueDate: r.DueDate.Ptr(),
			Status:  r.Status,
			Tags:    r.Tags,
			Audit:   store.Audit{CreatedBy: actor},
		},
		Data: r.Data,
	}
}

type AccountRequest struct {
	AccountID uuid.UUID `json:"account_id"`
	RecordRequest
}

type ProjectRequest struct {
	ProjectID uuid.UUID `json:"project_id"`
	RecordRequest
}

type ArtifactRequest struct {
	AccountID        uuid.UUID       `json:"account_id"`
	OpportunityID    uuid.UUID       `json:"opportunity_id"`
	ArtifactID       uuid.UUID       `json:"artifact_id"`
	ArtifactSchemaID string          `json:"artifact_schema_id"`
	Name             string          `json:"name"`
	Payload          json.RawMessage `json:"payload"`
	Tags             []string        `json:"tags"`
}

type ArtifactSchemaRequest struct {
	ArtifactSchemaID string          `json:"artifact_schema_id"`
	ArtifactSchema   json.RawMessage `json:"artifact_schema"`
}

type StatusRequest struct {
	Name string `json:"name"`
}

type CreateUserRequest struct {
	UserID     string   `json:"user_id"`
	FullName   string   `json:"full_name"`
	Email      string   `json:"email"`
	Password   string   `json:"password"`
	IsDisabled bool     `json:"is_disabled"`
	Scopes     []string `json:"scopes"`
}

// UpdateUserRequest is a partial user update; Password, when present, is
// hashed before storing.
type UpdateUserRequest struct {
	store.UserUpdate
	Password *string `json:"password"`
}
