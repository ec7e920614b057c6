package syncer

import (
	"sort"
	"vikcal/internal/models"
)

// ActionKind names the change an Action makes to an event.
type ActionKind string

func (k ActionKind) String() string {
	return string(k)
}

const (
	ActionCreate ActionKind = "create"
	ActionUpdate ActionKind = "update"
	ActionMove   ActionKind = "move"
	ActionDelete ActionKind = "delete"
)

// Action is one change to apply on the calendar sink.
type Action struct {
	Kind     ActionKind
	TaskID   string
	Title    string
	Calendar models.Calendar     // Target calendar, or the calendar holding the event to delete
	Event    *models.Event       // Existing event for update, move and delete
	Payload  models.EventPayload // Desired event for create, update and move
	Reason   string
}

// Skip records a task that was left alone this cycle.
type Skip struct {
	TaskID string
	Title  string
	Reason string
}

// Plan is the outcome of the diff between tasks and indexed events.
type Plan struct {
	Actions        []Action // Per task, in task order
	Cleanup        []Action // Deletes, applied after Actions
	Skipped        []Skip
	CleanupSkipped bool
}

// PlanInput is everything the diff needs. Tasks must be the uncompleted tasks.
type PlanInput struct {
	Tasks       []models.Task
	Projects    []models.Project
	Calendars   []models.Calendar
	Index       Index
	Prefix      string
	FrontendURL string
	// AllowCleanup is false when any fetch of this cycle failed.
	AllowCleanup bool
}

const (
	reasonNoProject      = "project not found"
	reasonNoCalendar     = "project calendar not found"
	reasonUnindexed      = "events of project calendar could not be listed"
	reasonNew            = "no event yet"
	reasonWrongCalendar  = "event in another calendar"
	reasonStale          = "task modified after event"
	reasonNotOpaque      = "event does not block time"
	reasonNotPending     = "task completed, deleted or without due date"
	reasonDuplicateEvent = "duplicate event for task"
)

// ComputePlan decides, for each uncompleted task, whether its event must be created,
// updated or moved, then which indexed events must be deleted.
func ComputePlan(in PlanInput) Plan {
	var plan Plan

	projects := make(map[int64]models.Project, len(in.Projects))
	for _, p := range in.Projects {
		projects[p.ID] = p
	}
	calendars := make(map[string]models.Calendar, len(in.Calendars))
	calendarsByID := make(map[string]models.Calendar, len(in.Calendars))
	for _, c := range in.Calendars {
		calendars[c.Name] = c
		calendarsByID[c.ID] = c
	}

	pending := make(map[string]bool, len(in.Tasks))
	for _, task := range in.Tasks {
		key := task.Key()
		if pending[key] {
			// Offset pagination can list a task twice; one event per task.
			continue
		}
		pending[key] = true

		project, ok := resolveProject(task, projects)
		if !ok {
			plan.Skipped = append(plan.Skipped, Skip{TaskID: key, Title: task.Title, Reason: reasonNoProject})
			continue
		}
		target, ok := calendars[models.CalendarName(in.Prefix, project)]
		if !ok {
			plan.Skipped = append(plan.Skipped, Skip{TaskID: key, Title: task.Title, Reason: reasonNoCalendar})
			continue
		}
		if in.Index.Unindexed[target.ID] {
			plan.Skipped = append(plan.Skipped, Skip{TaskID: key, Title: task.Title, Reason: reasonUnindexed})
			continue
		}

		if action, ok := decide(task, target, in); ok {
			plan.Actions = append(plan.Actions, action)
		}
	}

	if !in.AllowCleanup {
		plan.CleanupSkipped = true
		return plan
	}

	taskIDs := make([]string, 0, len(in.Index.ByTask))
	for id := range in.Index.ByTask {
		taskIDs = append(taskIDs, id)
	}
	sort.Strings(taskIDs)
	for _, id := range taskIDs {
		if pending[id] {
			continue
		}
		ev := in.Index.ByTask[id]
		plan.Cleanup = append(plan.Cleanup, deleteAction(ev, calendarsByID, reasonNotPending))
	}
	for _, ev := range in.Index.Duplicates {
		plan.Cleanup = append(plan.Cleanup, deleteAction(ev, calendarsByID, reasonDuplicateEvent))
	}
	return plan
}

func decide(task models.Task, target models.Calendar, in PlanInput) (Action, bool) {
	action := Action{
		TaskID:   task.Key(),
		Title:    task.Title,
		Calendar: target,
		Payload:  models.NewEventPayload(task, in.FrontendURL),
	}

	existing, ok := in.Index.ByTask[action.TaskID]
	switch {
	case !ok:
		action.Kind = ActionCreate
		action.Reason = reasonNew
	case existing.CalendarID != target.ID:
		action.Kind = ActionMove
		action.Reason = reasonWrongCalendar
	case task.Updated.After(existing.Updated):
		action.Kind = ActionUpdate
		action.Reason = reasonStale
	case existing.Transparency != models.TransparencyOpaque:
		action.Kind = ActionUpdate
		action.Reason = reasonNotOpaque
	default:
		return Action{}, false
	}
	if ok {
		action.Event = &existing
	}
	return action, true
}

func deleteAction(ev models.Event, calendarsByID map[string]models.Calendar, reason string) Action {
	cal, ok := calendarsByID[ev.CalendarID]
	if !ok {
		cal = models.Calendar{ID: ev.CalendarID, Name: ev.CalendarID}
	}
	return Action{
		Kind:     ActionDelete,
		TaskID:   ev.TaskID,
		Title:    ev.Summary,
		Calendar: cal,
		Event:    &ev,
		Reason:   reason,
	}
}

// resolveProject prefers the fetched project list over an inlined project.
func resolveProject(task models.Task, projects map[int64]models.Project) (models.Project, bool) {
	if p, ok := projects[task.ProjectID]; ok {
		return p, true
	}
	if task.Project != nil && task.Project.Title != "" {
		return *task.Project, true
	}
	return models.Project{}, false
}
