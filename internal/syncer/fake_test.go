package syncer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
	"vikcal/internal/models"
)

var (
	taskTime = time.Date(2024, 2, 20, 10, 0, 0, 0, time.UTC)
	sinkTime = time.Date(2024, 2, 21, 9, 0, 0, 0, time.UTC)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSource struct {
	projects    []models.Project
	tasks       []models.Task
	projectsErr error
	tasksErr    error
}

func (f *fakeSource) ListProjects(context.Context) ([]models.Project, error) {
	if f.projectsErr != nil {
		return nil, f.projectsErr
	}
	return f.projects, nil
}

func (f *fakeSource) ListTasks(context.Context) ([]models.Task, error) {
	if f.tasksErr != nil {
		return nil, f.tasksErr
	}
	return f.tasks, nil
}

// fakeSink is an in-memory, zero-latency calendar sink.
type fakeSink struct {
	calendars []models.Calendar
	events    map[string][]models.Event
	acl       map[string]map[string]string
	clock     time.Time
	nextID    int

	mutations []string
	listed    []string // calendar ids passed to ListEvents

	listCalendarsErr  error
	listEventsErr     map[string]error
	createCalendarErr error
	createEventErr    map[string]error // by task id
	deleteEventErr    map[string]error // by event id
}

func newFakeSink(cals ...models.Calendar) *fakeSink {
	return &fakeSink{
		calendars:      cals,
		events:         make(map[string][]models.Event),
		acl:            make(map[string]map[string]string),
		clock:          sinkTime,
		listEventsErr:  make(map[string]error),
		createEventErr: make(map[string]error),
		deleteEventErr: make(map[string]error),
	}
}

func (f *fakeSink) addEvent(e models.Event) {
	f.events[e.CalendarID] = append(f.events[e.CalendarID], e)
}

// eventsForTask returns every live event carrying the task id, across calendars.
func (f *fakeSink) eventsForTask(taskID string) []models.Event {
	var out []models.Event
	for _, cal := range f.calendars {
		for _, e := range f.events[cal.ID] {
			if e.TaskID == taskID {
				out = append(out, e)
			}
		}
	}
	return out
}

func (f *fakeSink) calendarByName(name string) (models.Calendar, bool) {
	for _, c := range f.calendars {
		if c.Name == name {
			return c, true
		}
	}
	return models.Calendar{}, false
}

func (f *fakeSink) ListCalendars(_ context.Context, prefix string) ([]models.Calendar, error) {
	if f.listCalendarsErr != nil {
		return nil, f.listCalendarsErr
	}
	return append([]models.Calendar(nil), f.calendars...), nil
}

func (f *fakeSink) CreateCalendar(_ context.Context, name string) (models.Calendar, error) {
	if f.createCalendarErr != nil {
		return models.Calendar{}, f.createCalendarErr
	}
	f.nextID++
	cal := models.Calendar{ID: fmt.Sprintf("cal-%d", f.nextID), Name: name}
	f.calendars = append(f.calendars, cal)
	f.mutations = append(f.mutations, "create_calendar:"+name)
	return cal, nil
}

func (f *fakeSink) ShareCalendar(_ context.Context, calendarID, principal, role string) (bool, error) {
	if f.acl[calendarID] == nil {
		f.acl[calendarID] = make(map[string]string)
	}
	if _, ok := f.acl[calendarID][principal]; ok {
		return false, nil
	}
	f.acl[calendarID][principal] = role
	f.mutations = append(f.mutations, "share:"+calendarID+":"+principal)
	return true, nil
}

func (f *fakeSink) ListEvents(_ context.Context, calendarID string) ([]models.Event, error) {
	f.listed = append(f.listed, calendarID)
	if err := f.listEventsErr[calendarID]; err != nil {
		return nil, err
	}
	return append([]models.Event(nil), f.events[calendarID]...), nil
}

func (f *fakeSink) CreateEvent(_ context.Context, calendarID string, p models.EventPayload) (models.Event, error) {
	if err := f.createEventErr[p.TaskID]; err != nil {
		return models.Event{}, err
	}
	f.nextID++
	e := models.Event{
		ID:           fmt.Sprintf("ev-%d", f.nextID),
		CalendarID:   calendarID,
		Summary:      p.Summary,
		Start:        p.Start,
		End:          p.End,
		Updated:      f.clock,
		TaskID:       p.TaskID,
		Transparency: p.Transparency,
	}
	f.addEvent(e)
	f.mutations = append(f.mutations, "create_event:"+calendarID+":"+p.TaskID)
	return e, nil
}

func (f *fakeSink) UpdateEvent(_ context.Context, calendarID, eventID string, p models.EventPayload) error {
	for i, e := range f.events[calendarID] {
		if e.ID != eventID {
			continue
		}
		e.Summary = p.Summary
		e.Start = p.Start
		e.End = p.End
		e.Transparency = p.Transparency
		e.Updated = f.clock
		f.events[calendarID][i] = e
		f.mutations = append(f.mutations, "update_event:"+calendarID+":"+p.TaskID)
		return nil
	}
	return fmt.Errorf("event %s not found", eventID)
}

func (f *fakeSink) DeleteEvent(_ context.Context, calendarID, eventID string) error {
	if err := f.deleteEventErr[eventID]; err != nil {
		return err
	}
	events := f.events[calendarID]
	for i, e := range events {
		if e.ID == eventID {
			f.events[calendarID] = append(events[:i], events[i+1:]...)
			f.mutations = append(f.mutations, "delete_event:"+calendarID+":"+e.TaskID)
			return nil
		}
	}
	// Already gone counts as deleted.
	return nil
}

type fakeRecorder struct {
	reports []*Report
}

func (r *fakeRecorder) RecordRun(_ context.Context, report *Report) error {
	r.reports = append(r.reports, report)
	return nil
}
