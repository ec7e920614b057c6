// Package feed renders uncompleted Vikunja tasks as a read-only iCalendar subscription.
package feed

import (
	"strconv"
	"strings"
	"time"
	"vikcal/internal/models"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const productID = "-//vikcal//EN"

// uidNamespace scopes the name-based event UIDs so they stay stable across restarts.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/vikcal/task"))

// EventUID returns the stable iCalendar UID of a task.
func EventUID(taskID int64) string {
	return uuid.NewSHA1(uidNamespace, []byte(strconv.FormatInt(taskID, 10))).String() + "@vikcal"
}

// Builder turns tasks into iCalendar documents.
type Builder struct {
	frontendURL string
	now         func() time.Time
}

// NewBuilder creates a Builder linking events to tasks under frontendURL.
func NewBuilder(frontendURL string) *Builder {
	return &Builder{frontendURL: frontendURL, now: time.Now}
}

// Build returns a calendar named name holding one all-day event per uncompleted task.
func (b *Builder) Build(name string, tasks []models.Task) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	if name != "" {
		cal.Props.SetText("X-WR-CALNAME", name)
	}

	for _, task := range tasks {
		if task.Done || task.Due.IsZero() {
			continue
		}
		cal.Children = append(cal.Children, b.toICal(task))
	}
	return cal
}

// toICal converts a task to a VEVENT with the same content as the Google event.
func (b *Builder) toICal(task models.Task) *ical.Component {
	payload := models.NewEventPayload(task, b.frontendURL)

	stamp := task.Updated
	if stamp.IsZero() {
		stamp = b.now()
	}

	ve := ical.NewEvent()
	ve.Props.SetText(ical.PropUID, EventUID(task.ID))
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ve.Props.SetDate(ical.PropDateTimeStart, payload.Start.Time)
	ve.Props.SetDate(ical.PropDateTimeEnd, payload.End.Time)
	ve.Props.SetText(ical.PropSummary, payload.Summary)
	ve.Props.SetText(ical.PropDescription, payload.Description)
	ve.Props.SetText(ical.PropTransparency, strings.ToUpper(payload.Transparency))

	link := ical.NewProp(ical.PropURL)
	link.Value = models.TaskURL(b.frontendURL, task.ID)
	ve.Props.Set(link)

	return ve.Component
}
