package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestListTasksForAccountScopesFilter(t *testing.T) {
	st, mock := newMockStore(t)
	accountID, projectID := uuid.New(), uuid.New()
	due := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	ts := time.Now().UTC()

	q := selectTasksWithProject +
		" WHERE tasks.account_id = $1 AND tasks.status IN ($2, $3) AND tasks.due_date <= $4" +
		" ORDER BY project_name, tasks.task_id DESC"
	mock.ExpectQuery(regexp.QuoteMeta(q)).
		WithArgs(accountID, "open", "blocked", due).
		WillReturnRows(sqlmock.NewRows(taskWithProjectColumns.List()).AddRow(
			accountID.String(), projectID.String(), int64(42),
			"Call back", "ana", due, "open", "{}", ts, "ana", ts, "ana",
			"Apollo",
		))

	out, err := st.ListTasksForAccount(context.Background(), accountID, TaskFilter{
		Status:    []string{"open", "blocked"},
		DueDateTo: due,
	})
	if err != nil {
		t.Fatalf("ListTasksForAccount: %v", err)
	}
	if len(out) != 1 || out[0].TaskID != 42 || out[0].ProjectName != "Apollo" {
		t.Fatalf("unexpected tasks: %#v", out)
	}
	if out[0].DueDate == nil || !out[0].DueDate.Equal(due) {
		t.Fatalf("due date: %v", out[0].DueDate)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateTaskUsesParentKey(t *testing.T) {
	st, mock := newMockStore(t)
	accountID, projectID := uuid.New(), uuid.New()
	ts := time.Now().UTC()

	args := anyArgs(tasks.insert.Len())
	args[0], args[1] = accountID, projectID
	mock.ExpectQuery(regexp.QuoteMeta(tasks.insertOne)).
		WithArgs(args...).
		WillReturnRows(sqlmock.NewRows(tasks.public.List()).AddRow(
			accountID.String(), projectID.String(), int64(1),
			"Call back", "", nil, nil, "{}", ts, "ana", ts, "ana", []byte(`{}`), "{}",
		))

	in := Task{}
	in.Name = "Call back"
	in.CreatedBy = "ana"
	out, err := st.CreateTask(context.Background(), accountID, projectID, in)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if out.TaskID != 1 || out.Status != nil {
		t.Fatalf("unexpected task: %#v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRemoveNoteAttachmentKeyedByFullChain(t *testing.T) {
	st, mock := newMockStore(t)
	accountID, projectID := uuid.New(), uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(notes.removeRef)).
		WithArgs("a/p/n/minutes.txt", accountID, projectID, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := st.RemoveNoteAttachment(context.Background(), accountID, projectID, 7, "a/p/n/minutes.txt"); err != nil {
		t.Fatalf("RemoveNoteAttachment: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
