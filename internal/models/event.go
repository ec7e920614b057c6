package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	// PropTaskID is the private extended property carrying the task identifier.
	PropTaskID = "vikunja_task_id"

	TransparencyOpaque      = "opaque"
	TransparencyTransparent = "transparent"
)

// Calendar is a managed calendar on the sink, one per project.
type Calendar struct {
	ID   string
	Name string
}

func (c Calendar) String() string {
	return c.Name
}

// CalendarName is the display name of the managed calendar for a project.
func CalendarName(prefix string, p Project) string {
	return prefix + " " + p.Title
}

// Event is a remote calendar event created for a task.
type Event struct {
	ID           string
	CalendarID   string
	Summary      string
	Start        Date      // All-day start
	End          Date      // Exclusive all-day end
	Updated      time.Time // Last modification on the sink, UTC
	TaskID       string    // Value of PropTaskID, empty for foreign events
	Transparency string
}

// EventPayload is the desired state of the event for a task.
type EventPayload struct {
	Summary      string
	Description  string
	Start        Date
	End          Date
	TaskID       string
	Transparency string
}

// TaskURL is the deep link to a task in the Vikunja frontend.
func TaskURL(frontendURL string, taskID int64) string {
	return fmt.Sprintf("%s/tasks/%d", strings.TrimSuffix(frontendURL, "/"), taskID)
}

// TaskDescription is the task description followed by the deep link.
func TaskDescription(t Task, frontendURL string) string {
	link := TaskURL(frontendURL, t.ID)
	desc := strings.TrimSpace(t.Description)
	if desc == "" {
		return link
	}
	return desc + "\n\n" + link
}

// NewEventPayload builds the event payload for a task as a one day all-day event.
func NewEventPayload(t Task, frontendURL string) EventPayload {
	return EventPayload{
		Summary:      t.Title,
		Description:  TaskDescription(t, frontendURL),
		Start:        t.Due,
		End:          t.Due.AddDays(1),
		TaskID:       t.Key(),
		Transparency: TransparencyOpaque,
	}
}
