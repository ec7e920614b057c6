package google

import (
	"time"
	"vikcal/internal/models"

	"google.golang.org/api/calendar/v3"
)

func newEvent(calendarID string, item *calendar.Event) models.Event {
	e := models.Event{
		ID:           item.Id,
		CalendarID:   calendarID,
		Summary:      item.Summary,
		Start:        eventDate(item.Start),
		End:          eventDate(item.End),
		Transparency: item.Transparency,
	}
	// The API omits the default transparency.
	if e.Transparency == "" {
		e.Transparency = models.TransparencyOpaque
	}
	if updated, err := time.Parse(time.RFC3339, item.Updated); err == nil {
		e.Updated = updated.UTC()
	}
	if item.ExtendedProperties != nil {
		e.TaskID = item.ExtendedProperties.Private[models.PropTaskID]
	}
	return e
}

func eventDate(dt *calendar.EventDateTime) models.Date {
	if dt == nil {
		return models.Date{}
	}
	if dt.Date != "" {
		d, _ := models.ParseDate(dt.Date)
		return d
	}
	if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
		return models.NewDateFromTime(t)
	}
	return models.Date{}
}

func newGoogleEvent(p models.EventPayload) *calendar.Event {
	return &calendar.Event{
		Summary:     p.Summary,
		Description: p.Description,
		Start: &calendar.EventDateTime{
			Date: p.Start.String(),
		},
		End: &calendar.EventDateTime{
			Date: p.End.String(),
		},
		Transparency: p.Transparency,
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				models.PropTaskID: p.TaskID,
			},
		},
		Reminders: &calendar.EventReminders{
			UseDefault: true,
		},
	}
}
