package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// ProjectFilter narrows ListProjects.
type ProjectFilter struct {
	AccountID     []uuid.UUID
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

func (f ProjectFilter) Fields() []FilterField {
	return []FilterField{
		{"account_id", f.AccountID},
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
	projectKey = []Column[Project]{
		field("account_id", func(p *Project) *uuid.UUID { return &p.AccountID }),
		field("project_id", func(p *Project) *uuid.UUID { return &p.ProjectID }),
	}
	projectCommon = func(p *Project) *Common { return &p.Common }

	projects = newTable("projects", []string{"account_id", "project_id"},
		NewColumns(slices.Concat(projectKey, lift(commonPublic, projectCommon))...),
		NewColumns(lift(commonWrite, projectCommon)...),
		NewColumns(slices.Concat(projectKey, lift(commonWrite, projectCommon))...),
	)

	projectOverviewColumns = NewColumns(slices.Concat(
		[]Column[ProjectOverview]{
			field("account_id", func(p *ProjectOverview) *uuid.UUID { return &p.AccountID }),
			field("project_id", func(p *ProjectOverview) *uuid.UUID { return &p.ProjectID }),
		},
		lift(summaryColumns, func(p *ProjectOverview) *Summary { return &p.Summary }),
	)...)

	projectWithAccountColumns = Embed(projectOverviewColumns,
		func(p *ProjectOverviewWithAccountName) *ProjectOverview { return &p.ProjectOverview },
		readOnly("account_name", func(p *ProjectOverviewWithAccountName) *string { return &p.AccountName }),
	)
)

var (
	selectProjectsWithAccount = fmt.Sprintf(
		"SELECT %s, accounts.name AS account_name FROM projects JOIN accounts ON projects.account_id = accounts.account_id",
		projectOverviewColumns.Qualified("projects"))
	selectProjectsForAccount = fmt.Sprintf(
		"SELECT %s FROM projects WHERE account_id = $1 ORDER BY name", projectOverviewColumns.Names())
)

// ListProjects returns projects across accounts with the owning account's
// name.
func (s *Store) ListProjects(ctx context.Context, f ProjectFilter) ([]ProjectOverviewWithAccountName, error) {
	where, args := CompileFilter(f.Fields(), "projects", true, 0)
	q := fmt.Sprintf("%s %s ORDER BY account_name, projects.name", selectProjectsWithAccount, where)
	return queryMany(ctx, s.DB, "list_projects", projectWithAccountColumns, q, args...)
}

func (s *Store) ListProjectsForAccount(ctx context.Context, accountID uuid.UUID) ([]ProjectOverview, error) {
	return queryMany(ctx, s.DB, "list_projects_for_account", projectOverviewColumns, selectProjectsForAccount, accountID)
}

func (s *Store) GetProject(ctx context.Context, accountID, projectID uuid.UUID) (Project, bool, error) {
	return projects.get(ctx, s.DB, accountID, projectID)
}

// CreateProject inserts p under accountID. A nil ProjectID is replaced by a
// new one.
func (s *Store) CreateProject(ctx context.Context, accountID uuid.UUID, p Project) (Project, error) {
	p.AccountID = accountID
	if p.ProjectID == uuid.Nil {
		p.ProjectID = uuid.New()
	}
	p.stamp(p.CreatedBy)
	return projects.create(ctx, s.DB, &p)
}

func (s *Store) UpdateProject(ctx context.Context, accountID, projectID uuid.UUID, u RecordUpdate) (Project, bool, error) {
	if err := u.Validate(); err != nil {
		return Project{}, false, err
	}
	return projects.update(ctx, s.DB, func(p *Project) error {
		u.Apply(&p.Common)
		return nil
	}, accountID, projectID)
}

func (s *Store) DeleteProject(ctx context.Context, accountID, projectID uuid.UUID) (Project, bool, error) {
	return projects.remove(ctx, s.DB, accountID, projectID)
}

func (s *Store) AddProjectAttachment(ctx context.Context, accountID, projectID uuid.UUID, objectName string) error {
	return projects.addAttachment(ctx, s.DB, objectName, accountID, projectID)
}

func (s *Store) RemoveProjectAttachment(ctx context.Context, accountID, projectID uuid.UUID, objectName string) error {
	return projects.removeAttachment(ctx, s.DB, objectName, accountID, projectID)
}
