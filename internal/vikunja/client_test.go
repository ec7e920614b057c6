package vikunja

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(context.Background(), logger, srv.URL+"/api/v1", "secret-token")
}

func TestListTasksPaginatesAndFiltersDueDate(t *testing.T) {
	pages := map[string]string{
		"1": `[
			{"id": 1, "title": "No due", "due_date": "0001-01-01T00:00:00Z", "project_id": 7, "updated": "2024-02-20T10:00:00Z"},
			{"id": 2, "title": "Report", "description": "<p>Q1</p>", "due_date": "2024-03-01T00:00:00Z", "project_id": 7, "updated": "2024-02-20T10:00:00Z"}
		]`,
		"2": `[
			{"id": 3, "title": "Done", "done": true, "due_date": "2024-03-05T12:00:00+01:00", "project_id": 8, "updated": "2024-02-21T11:00:00+01:00"}
		]`,
	}

	var requested []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/tasks/all" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("Expected bearer token, got %q", got)
		}
		page := r.URL.Query().Get("page")
		requested = append(requested, page)
		w.Header().Set(totalPagesHeader, "2")
		fmt.Fprint(w, pages[page])
	})

	tasks, err := client.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(requested) != 2 {
		t.Fatalf("Expected 2 pages to be requested, got %v", requested)
	}
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks with due dates, got %d", len(tasks))
	}

	report := tasks[0]
	if report.ID != 2 || report.Title != "Report" || report.Description != "<p>Q1</p>" || report.ProjectID != 7 {
		t.Errorf("Unexpected task: %+v", report)
	}
	if report.Due.String() != "2024-03-01" {
		t.Errorf("Expected due 2024-03-01, got %s", report.Due)
	}

	done := tasks[1]
	if !done.Done {
		t.Error("Expected task 3 to be done")
	}
	if done.Due.String() != "2024-03-05" {
		t.Errorf("Expected due date to keep the reported day, got %s", done.Due)
	}
	want := time.Date(2024, 2, 21, 10, 0, 0, 0, time.UTC)
	if !done.Updated.Equal(want) || done.Updated.Location() != time.UTC {
		t.Errorf("Expected updated %s in UTC, got %s", want, done.Updated)
	}
}

func TestListProjectsWithoutPaginationHeader(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		if perPage != defaultPerPage {
			t.Errorf("Expected per_page %d, got %d", defaultPerPage, perPage)
		}
		fmt.Fprint(w, `[{"id": 7, "title": "Ops"}, {"id": 8, "title": "Home"}]`)
	})

	projects, err := client.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected a short page to end pagination, got %d calls", calls)
	}
	if len(projects) != 2 || projects[0].Title != "Ops" || projects[1].ID != 8 {
		t.Errorf("Unexpected projects: %+v", projects)
	}
}

func TestListTasksFailsOnServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	if _, err := client.ListTasks(context.Background()); err == nil {
		t.Fatal("Expected error on 500 response")
	}
}

func TestToTaskInlinedProject(t *testing.T) {
	task, ok := toTask(apiTask{
		ID:      9,
		DueDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Project: &apiProject{ID: 3, Title: "Garden"},
	})
	if !ok {
		t.Fatal("Expected task with due date to be kept")
	}
	if task.ProjectID != 3 || task.Project == nil || task.Project.Title != "Garden" {
		t.Errorf("Expected inlined project to be used, got %+v", task)
	}
}
