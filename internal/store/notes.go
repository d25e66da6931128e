package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// NoteFilter narrows ListNotesForAccount.
type NoteFilter struct {
	ProjectID     []uuid.UUID
	Name          []string
	OwnedBy       []string
	Status        []string
	DueDateFrom   time.Time
	DueDateTo     time.Time
	Tags          []string
	CreatedAtFrom time.Time
	CreatedAtTo   time.Time
	CreatedBy     []string
	UpdatedAtFrom time.Time
	UpdatedAtTo   time.Time
	UpdatedBy     []string
}

func (f NoteFilter) Fields() []FilterField {
	return []FilterField{
		{"project_id", f.ProjectID},
		{"name", f.Name},
		{"owned_by", f.OwnedBy},
		{"status", f.Status},
		{"due_date_from", f.DueDateFrom},
		{"due_date_to", f.DueDateTo},
		{"tags", f.Tags},
		{"created_at_from", f.CreatedAtFrom},
		{"created_at_to", f.CreatedAtTo},
		{"created_by", f.CreatedBy},
		{"updated_at_from", f.UpdatedAtFrom},
		{"updated_at_to", f.UpdatedAtTo},
		{"updated_by", f.UpdatedBy},
	}
}

var (
	noteParent = []Column[Note]{
		field("account_id", func(n *Note) *uuid.UUID { return &n.AccountID }),
		field("project_id", func(n *Note) *uuid.UUID { return &n.ProjectID }),
	}
	noteIDColumn = []Column[Note]{field("note_id", func(n *Note) *int64 { return &n.NoteID })}
	noteCommon   = func(n *Note) *Common { return &n.Common }

	// note_id is assigned by the store, so inserts carry only the parent key.
	notes = newTable("notes", []string{"account_id", "project_id", "note_id"},
		NewColumns(slices.Concat(noteParent, noteIDColumn, lift(commonPublic, noteCommon))...),
		NewColumns(lift(commonWrite, noteCommon)...),
		NewColumns(slices.Concat(noteParent, lift(commonWrite, noteCommon))...),
	)

	noteOverviewColumns = NewColumns(slices.Concat(
		[]Column[NoteOverview]{
			field("account_id", func(n *NoteOverview) *uuid.UUID { return &n.AccountID }),
			field("project_id", func(n *NoteOverview) *uuid.UUID { return &n.ProjectID }),
			field("note_id", func(n *NoteOverview) *int64 { return &n.NoteID }),
		},
		lift(summaryColumns, func(n *NoteOverview) *Summary { return &n.Summary }),
	)...)

	noteWithProjectColumns = Embed(noteOverviewColumns,
		func(n *NoteOverviewWithProjectName) *NoteOverview { return &n.NoteOverview },
		readOnly("project_name", func(n *NoteOverviewWithProjectName) *string { return &n.ProjectName }),
	)
)

var (
	selectNotesWithProject = fmt.Sprintf(
		"SELECT %s, projects.name AS project_name FROM notes JOIN projects ON (notes.account_id, notes.project_id) = (projects.account_id, projects.project_id)",
		noteOverviewColumns.Qualified("notes"))
	selectNotesForProject = fmt.Sprintf(
		"SELECT %s FROM notes WHERE (account_id, project_id) = ($1, $2) ORDER BY note_id DESC", noteOverviewColumns.Names())
)

// ListNotesForAccount returns the notes of every project of accountID with
// the project name, newest first within a project.
func (s *Store) ListNotesForAccount(ctx context.Context, accountID uuid.UUID, f NoteFilter) ([]NoteOverviewWithProjectName, error) {
	where, args := scoped("notes.account_id = $1", 1, f, "notes")
	q := fmt.Sprintf("%s %s ORDER BY project_name, notes.note_id DESC", selectNotesWithProject, where)
	return queryMany(ctx, s.DB, "list_notes_for_account", noteWithProjectColumns, q, append([]any{accountID}, args...)...)
}

func (s *Store) ListNotesForProject(ctx context.Context, accountID, projectID uuid.UUID) ([]NoteOverview, error) {
	return queryMany(ctx, s.DB, "list_notes_for_project", noteOverviewColumns, selectNotesForProject, accountID, projectID)
}

func (s *Store) GetNote(ctx context.Context, accountID, projectID uuid.UUID, noteID int64) (Note, bool, error) {
	return notes.get(ctx, s.DB, accountID, projectID, noteID)
}

// CreateNote inserts n under the given project; the store assigns NoteID.
func (s *Store) CreateNote(ctx context.Context, accountID, projectID uuid.UUID, n Note) (Note, error) {
	n.AccountID, n.ProjectID = accountID, projectID
	n.stamp(n.CreatedBy)
	return notes.create(ctx, s.DB, &n)
}

func (s *Store) UpdateNote(ctx context.Context, accountID, projectID uuid.UUID, noteID int64, u RecordUpdate) (Note, bool, error) {
	if err := u.Validate(); err != nil {
		return Note{}, false, err
	}
	return notes.update(ctx, s.DB, func(n *Note) error {
		u.Apply(&n.Common)
		return nil
	}, accountID, projectID, noteID)
}

func (s *Store) DeleteNote(ctx context.Context, accountID, projectID uuid.UUID, noteID int64) (Note, bool, error) {
	return notes.remove(ctx, s.DB, accountID, projectID, noteID)
}

func (s *Store) AddNoteAttachment(ctx context.Context, accountID, projectID uuid.UUID, noteID int64, objectName string) error {
	return notes.addAttachment(ctx, s.DB, objectName, accountID, projectID, noteID)
}

func (s *Store) RemoveNoteAttachment(ctx context.Context, accountID, projectID uuid.UUID, noteID int64, objectName string) error {
	return notes.removeAttachment(ctx, s.DB, objectName, accountID, projectID, noteID)
}
