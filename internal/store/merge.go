package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNullField rejects a JSON null for a column that cannot hold one.
var ErrNullField = errors.New("field cannot be null")

// Field is one field of a partial update: either unchanged or set to a
// value. Decoding any JSON value, null included, marks it set.
type Field[T any] struct {
	value T
	set   bool
	null  bool
}

// Set returns a field that overwrites the stored value with v.
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

func (f Field[T]) IsSet() bool { return f.set }

func (f Field[T]) Value() T { return f.value }

// IsNull reports whether the field was decoded from a JSON null.
func (f Field[T]) IsNull() bool { return f.null }

// Apply overwrites *dst when the field is set.
func (f Field[T]) Apply(dst *T) {
	if f.set {
		*dst = f.value
	}
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.set = true
	f.null = bytes.Equal(bytes.TrimSpace(b), []byte("null"))
	if f.null {
		var zero T
		f.value = zero
		return nil
	}
	return json.Unmarshal(b, &f.value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.set {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// mergeUpdate fetches the current record, overlays the caller's fields and
// writes the full row back. A missing record yields (zero, false, nil)
// without any write. The fetch and the write are separate statements.
func mergeUpdate[T any](
	ctx context.Context,
	fetch func(context.Context) (T, bool, error),
	apply func(*T) error,
	write func(context.Context, *T) (T, bool, error),
) (T, bool, error) {
	var zero T
	current, ok, err := fetch(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	if err := apply(&current); err != nil {
		return zero, false, err
	}
	return write(ctx, &current)
}

type nullChecker interface{ IsNull() bool }

// notNull fails on the first named field that was explicitly null.
func notNull(names []string, fields ...nullChecker) error {
	for i, f := range fields {
		if f.IsNull() {
			return fmt.Errorf("%w: %s", ErrNullField, names[i])
		}
	}
	return nil
}

// RecordUpdate is the partial update accepted for accounts, projects,
// tasks and notes. Null clears due_date and status, and resets tags and
// data to empty; name and owned_by reject null.
type RecordUpdate struct {
	Name    Field[string]          `json:"name"`
	OwnedBy Field[string]          `json:"owned_by"`
	DueDate Field[*Timestamp]      `json:"due_date"`
	Status  Field[*string]         `json:"status"`
	Tags    Field[[]string]        `json:"tags"`
	Data    Field[json.RawMessage] `json:"data"`

	UpdatedBy string    `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (u RecordUpdate) Validate() error {
	return notNull([]string{"name", "owned_by"}, u.Name, u.OwnedBy)
}

// Apply overlays the set fields onto c and stamps the update audit.
func (u RecordUpdate) Apply(c *Common) {
	u.Name.Apply(&c.Name)
	u.OwnedBy.Apply(&c.OwnedBy)
	if u.DueDate.IsSet() {
		c.DueDate = u.DueDate.Value().Ptr()
	}
	u.Status.Apply(&c.Status)
	u.Tags.Apply(&c.Tags)
	u.Data.Apply(&c.Data)
	touch(&c.Audit, u.UpdatedBy, u.UpdatedAt)
}

// ArtifactUpdate is the partial update accepted for artifacts.
type ArtifactUpdate struct {
	ArtifactSchemaID Field[string]          `json:"artifact_schema_id"`
	Name             Field[string]          `json:"name"`
	Payload          Field[json.RawMessage] `json:"payload"`
	Tags             Field[[]string]        `json:"tags"`

	UpdatedBy string    `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (u ArtifactUpdate) Validate() error {
	return notNull([]string{"artifact_schema_id", "name"}, u.ArtifactSchemaID, u.Name)
}

func (u ArtifactUpdate) Apply(a *Artifact) {
	u.ArtifactSchemaID.Apply(&a.ArtifactSchemaID)
	u.Name.Apply(&a.Name)
	u.Payload.Apply(&a.Payload)
	u.Tags.Apply(&a.Tags)
	touch(&a.Audit, u.UpdatedBy, u.UpdatedAt)
}

// UserUpdate is the partial update accepted for users. HashedPassword is
// filled by the caller after hashing, never decoded from a request.
type UserUpdate struct {
	FullName       Field[string]   `json:"full_name"`
	Email          Field[string]   `json:"email"`
	IsDisabled     Field[bool]     `json:"is_disabled"`
	Scopes         Field[[]string] `json:"scopes"`
	FailedAttempts Field[int]      `json:"failed_attempts"`
	HashedPassword Field[string]   `json:"-"`

	UpdatedBy string    `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (u UserUpdate) Validate() error {
	return notNull([]string{"full_name", "email", "is_disabled", "failed_attempts"},
		u.FullName, u.Email, u.IsDisabled, u.FailedAttempts)
}

func (u UserUpdate) Apply(usr *UserWithHash) {
	u.FullName.Apply(&usr.FullName)
	u.Email.Apply(&usr.Email)
	u.IsDisabled.Apply(&usr.IsDisabled)
	u.Scopes.Apply(&usr.Scopes)
	u.FailedAttempts.Apply(&usr.FailedAttempts)
	u.HashedPassword.Apply(&usr.HashedPassword)
	touch(&usr.Audit, u.UpdatedBy, u.UpdatedAt)
}

func touch(a *Audit, by string, at time.Time) {
	if by != "" {
		a.UpdatedBy = by
	}
	if at.IsZero() {
		at = now()
	}
	a.UpdatedAt = at
}

// Timestamp decodes an RFC 3339 timestamp or a bare YYYY-MM-DD date
// (midnight UTC) and encodes as RFC 3339.
type Timestamp struct {
	time.Time
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	t, err := ParseTimestamp(v)
	if err != nil {
		return err
	}
	ts.Time = t
	return nil
}

// Ptr returns the wrapped time, nil for a nil receiver.
func (ts *Timestamp) Ptr() *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.Time
	return &t
}

// DateLayout is the date-only form accepted wherever a timestamp is.
const DateLayout = "2006-01-02"

// ParseTimestamp accepts YYYY-MM-DD or RFC 3339.
func ParseTimestamp(v string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}
