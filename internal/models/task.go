package models

import (
	"strconv"
	"time"
)

// Project is a Vikunja project. Each project is mirrored into one managed calendar.
type Project struct {
	ID    int64
	Title string
}

// Task represents a Vikunja task that is eligible for sync.
type Task struct {
	ID          int64
	Title       string
	Description string    // Free text, possibly empty
	Due         Date      // Only tasks with a due date are ever fetched
	Done        bool      // Completed tasks are removed from the calendar
	Updated     time.Time // Last modification, UTC
	ProjectID   int64
	Project     *Project // Set when the API inlines the project
}

// Key is the task identifier as stored in the remote event metadata.
func (t Task) Key() string {
	return strconv.FormatInt(t.ID, 10)
}
