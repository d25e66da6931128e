package store

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Audit is carried by every stored record.
type Audit struct {
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
}

// Summary is the list-view part shared by accounts, projects, tasks and notes.
type Summary struct {
	Name    string     `json:"name"`
	OwnedBy string     `json:"owned_by"`
	DueDate *time.Time `json:"due_date"`
	Status  *string    `json:"status"`
	Tags    []string   `json:"tags"`
	Audit
}

// Common is the full body of an account, project, task or note.
type Common struct {
	Summary
	Data        json.RawMessage `json:"data"`
	Attachments []string        `json:"attachments"`
}

type Account struct {
	AccountID uuid.UUID `json:"account_id"`
	Common
}

type AccountOverview struct {
	AccountID uuid.UUID `json:"account_id"`
	Summary
}

type Project struct {
	AccountID uuid.UUID `json:"account_id"`
	ProjectID uuid.UUID `json:"project_id"`
	Common
}

type ProjectOverview struct {
	AccountID uuid.UUID `json:"account_id"`
	ProjectID uuid.UUID `json:"project_id"`
	Summary
}

type ProjectOverviewWithAccountName struct {
	ProjectOverview
	AccountName string `json:"account_name"`
}

type Task struct {
	AccountID uuid.UUID `json:"account_id"`
	ProjectID uuid.UUID `json:"project_id"`
	TaskID    int64     `json:"task_id"`
	Common
}

type TaskOverview struct {
	AccountID uuid.UUID `json:"account_id"`
	ProjectID uuid.UUID `json:"project_id"`
	TaskID    int64     `json:"task_id"`
	Summary
}

type TaskOverviewWithProjectName struct {
	TaskOverview
	ProjectName string `json:"project_name"`
}

type Note struct {
	AccountID uuid.UUID `json:"account_id"`
	ProjectID uuid.UUID `json:"project_id"`
	NoteID    int64     `json:"note_id"`
	Common
}

type NoteOverview struct {
	AccountID uuid.UUID `json:"account_id"`
	ProjectID uuid.UUID `json:"project_id"`
	NoteID    int64     `json:"note_id"`
	Summary
}

type NoteOverviewWithProjectName struct {
	NoteOverview
	ProjectName string `json:"project_name"`
}

// Artifact is a schema-constrained document owned by an account and
// opportunity pair.
type Artifact struct {
	AccountID        uuid.UUID       `json:"account_id"`
	OpportunityID    uuid.UUID       `json:"opportunity_id"`
	ArtifactID       uuid.UUID       `json:"artifact_id"`
	ArtifactSchemaID string          `json:"artifact_schema_id"`
	Name             string          `json:"name"`
	Payload          json.RawMessage `json:"payload"`
	Tags             []string        `json:"tags"`
	Audit
}

type ArtifactOverview struct {
	AccountID        uuid.UUID `json:"account_id"`
	OpportunityID    uuid.UUID `json:"opportunity_id"`
	ArtifactID       uuid.UUID `json:"artifact_id"`
	ArtifactSchemaID string    `json:"artifact_schema_id"`
	Name             string    `json:"name"`
	Tags             []string  `json:"tags"`
	Audit
}

type ArtifactOverviewWithAccountName struct {
	ArtifactOverview
	AccountName string `json:"account_name"`
}

// ArtifactSchema holds the definition artifact payloads are checked against.
type ArtifactSchema struct {
	ArtifactSchemaID string          `json:"artifact_schema_id"`
	ArtifactSchema   json.RawMessage `json:"artifact_schema"`
	Audit
}

type User struct {
	UserID         string   `json:"user_id"`
	FullName       string   `json:"full_name"`
	Email          string   `json:"email"`
	IsDisabled     bool     `json:"is_disabled"`
	Scopes         []string `json:"scopes"`
	FailedAttempts int      `json:"failed_attempts"`
	Audit
}

// UserWithHash is the stored user row, never returned over the API.
type UserWithHash struct {
	User
	HashedPassword string `json:"-"`
}

type Status struct {
	Name string `json:"name"`
}

// StatusKind selects one of the independent status enumerations.
type StatusKind string

const (
	AccountStatus StatusKind = "account"
	ProjectStatus StatusKind = "project"
	TaskStatus    StatusKind = "task"
)

var statusTables = map[StatusKind]string{
	AccountStatus: "account_status",
	ProjectStatus: "project_status",
	TaskStatus:    "task_status",
}

// StatusKinds lists the known enumerations.
func StatusKinds() []StatusKind {
	return []StatusKind{AccountStatus, ProjectStatus, TaskStatus}
}

// Valid reports whether k names a known enumeration.
func (k StatusKind) Valid() bool {
	_, ok := statusTables[k]
	return ok
}

// stamp fills creation defaults left empty by the caller.
func (a *Audit) stamp(by string) {
	t := now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = t
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	if a.CreatedBy == "" {
		a.CreatedBy = by
	}
	if a.UpdatedBy == "" {
		a.UpdatedBy = a.CreatedBy
	}
}

// Audit column descriptors, shared by every table.
func auditColumns[T any](get func(*T) *Audit) []Column[T] {
	return lift([]Column[Audit]{
		field("created_at", func(a *Audit) *time.Time { return &a.CreatedAt }),
		field("created_by", func(a *Audit) *string { return &a.CreatedBy }),
		field("updated_at", func(a *Audit) *time.Time { return &a.UpdatedAt }),
		field("updated_by", func(a *Audit) *string { return &a.UpdatedBy }),
	}, get)
}

var summaryColumns = slices.Concat(
	[]Column[Summary]{
		field("name", func(s *Summary) *string { return &s.Name }),
		field("owned_by", func(s *Summary) *string { return &s.OwnedBy }),
		field("due_date", func(s *Summary) **time.Time { return &s.DueDate }),
		field("status", func(s *Summary) **string { return &s.Status }),
		arrayField("tags", func(s *Summary) *[]string { return &s.Tags }),
	},
	auditColumns(func(s *Summary) *Audit { return &s.Audit }),
)

// commonWrite is the stored column list: every body column except
// attachments, which only the attachment operations touch.
var commonWrite = slices.Concat(
	lift(summaryColumns, func(c *Common) *Summary { return &c.Summary }),
	[]Column[Common]{jsonField("data", func(c *Common) *json.RawMessage { return &c.Data })},
)

var commonPublic = slices.Concat(
	commonWrite,
	[]Column[Common]{readOnlyArray("attachments", func(c *Common) *[]string { return &c.Attachments })},
)
