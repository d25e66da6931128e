package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// TaskFilter narrows ListTasksForAccount.
type TaskFilter struct {
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

func (f TaskFilter) Fields() []FilterField {
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
	taskParent = []Column[Task]{
		field("account_id", func(t *Task) *uuid.UUID { return &t.AccountID }),
		field("project_id", func(t *Task) *uuid.UUID { return &t.ProjectID }),
	}
	taskIDColumn = []Column[Task]{field("task_id", func(t *Task) *int64 { return &t.TaskID })}
	taskCommon   = func(t *Task) *Common { return &t.Common }

	// task_id is assigned by the store, so inserts carry only the parent key.
	tasks = newTable("tasks", []string{"account_id", "project_id", "task_id"},
		NewColumns(slices.Concat(taskParent, taskIDColumn, lift(commonPublic, taskCommon))...),
		NewColumns(lift(commonWrite, taskCommon)...),
		NewColumns(slices.Concat(taskParent, lift(commonWrite, taskCommon))...),
	)

	taskOverviewColumns = NewColumns(slices.Concat(
		[]Column[TaskOverview]{
			field("account_id", func(t *TaskOverview) *uuid.UUID { return &t.AccountID }),
			field("project_id", func(t *TaskOverview) *uuid.UUID { return &t.ProjectID }),
			field("task_id", func(t *TaskOverview) *int64 { return &t.TaskID }),
		},
		lift(summaryColumns, func(t *TaskOverview) *Summary { return &t.Summary }),
	)...)

	taskWithProjectColumns = Embed(taskOverviewColumns,
		func(t *TaskOverviewWithProjectName) *TaskOverview { return &t.TaskOverview },
		readOnly("project_name", func(t *TaskOverviewWithProjectName) *string { return &t.ProjectName }),
	)
)

var (
	selectTasksWithProject = fmt.Sprintf(
		"SELECT %s, projects.name AS project_name FROM tasks JOIN projects ON (tasks.account_id, tasks.project_id) = (projects.account_id, projects.project_id)",
		taskOverviewColumns.Qualified("tasks"))
	selectTasksForProject = fmt.Sprintf(
		"SELECT %s FROM tasks WHERE (account_id, project_id) = ($1, $2) ORDER BY task_id DESC", taskOverviewColumns.Names())
)

// ListTasksForAccount returns the tasks of every project of accountID with
// the project name, newest first within a project.
func (s *Store) ListTasksForAccount(ctx context.Context, accountID uuid.UUID, f TaskFilter) ([]TaskOverviewWithProjectName, error) {
	where, args := scoped("tasks.account_id = $1", 1, f, "tasks")
	q := fmt.Sprintf("%s %s ORDER BY project_name, tasks.task_id DESC", selectTasksWithProject, where)
	return queryMany(ctx, s.DB, "list_tasks_for_account", taskWithProjectColumns, q, append([]any{accountID}, args...)...)
}

func (s *Store) ListTasksForProject(ctx context.Context, accountID, projectID uuid.UUID) ([]TaskOverview, error) {
	return queryMany(ctx, s.DB, "list_tasks_for_project", taskOverviewColumns, selectTasksForProject, accountID, projectID)
}

func (s *Store) GetTask(ctx context.Context, accountID, projectID uuid.UUID, taskID int64) (Task, bool, error) {
	return tasks.get(ctx, s.DB, accountID, projectID, taskID)
}

// CreateTask inserts t under the given project; the store assigns TaskID.
func (s *Store) CreateTask(ctx context.Context, accountID, projectID uuid.UUID, t Task) (Task, error) {
	t.AccountID, t.ProjectID = accountID, projectID
	t.stamp(t.CreatedBy)
	return tasks.create(ctx, s.DB, &t)
}

func (s *Store) UpdateTask(ctx context.Context, accountID, projectID uuid.UUID, taskID int64, u RecordUpdate) (Task, bool, error) {
	if err := u.Validate(); err != nil {
		return Task{}, false, err
	}
	return tasks.update(ctx, s.DB, func(t *Task) error {
		u.Apply(&t.Common)
		return nil
	}, accountID, projectID, taskID)
}

func (s *Store) DeleteTask(ctx context.Context, accountID, projectID uuid.UUID, taskID int64) (Task, bool, error) {
	return tasks.remove(ctx, s.DB, accountID, projectID, taskID)
}

func (s *Store) AddTaskAttachment(ctx context.Context, accountID, projectID uuid.UUID, taskID int64, objectName string) error {
	return tasks.addAttachment(ctx, s.DB, objectName, accountID, projectID, taskID)
}

func (s *Store) RemoveTaskAttachment(ctx context.Context, accountID, projectID uuid.UUID, taskID int64, objectName string) error {
	return tasks.removeAttachment(ctx, s.DB, objectName, accountID, projectID, taskID)
}
