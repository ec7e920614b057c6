package syncer

import (
	"context"
	"log/slog"
)

// apply executes one planned action against the sink. Failures are logged and
// recorded, never returned, so one task cannot abort the cycle.
func (s *Syncer) apply(ctx context.Context, logger *slog.Logger, a Action, report *Report) {
	logger = logger.With("task", a.TaskID, "title", a.Title, "calendar", a.Calendar.Name)

	if s.opts.DryRun {
		logger.Info("[DRY RUN] Would "+a.Kind.String()+" event", "reason", a.Reason, "date", a.Payload.Start)
		report.count(a.Kind)
		return
	}

	switch a.Kind {
	case ActionCreate:
		if s.create(ctx, logger, a, report) {
			report.count(ActionCreate)
		}

	case ActionUpdate:
		err := s.sink.UpdateEvent(ctx, a.Calendar.ID, a.Event.ID, a.Payload)
		op := Operation{Kind: string(ActionUpdate), TaskID: a.TaskID, CalendarID: a.Calendar.ID, EventID: a.Event.ID}
		if err != nil {
			logger.Error("Failed to update event", "event", a.Event.ID, "error", err)
			op.Err = err.Error()
			report.add(op)
			return
		}
		logger.Info("Updated event", "event", a.Event.ID, "reason", a.Reason, "date", a.Payload.Start)
		report.add(op)
		report.count(ActionUpdate)

	case ActionMove:
		// There is no cross-calendar move, so the stale event is deleted and a new one created.
		err := s.sink.DeleteEvent(ctx, a.Event.CalendarID, a.Event.ID)
		op := Operation{Kind: string(ActionMove), TaskID: a.TaskID, CalendarID: a.Event.CalendarID, EventID: a.Event.ID}
		if err != nil {
			logger.Error("Failed to delete event before move, not recreating it", "event", a.Event.ID, "from", a.Event.CalendarID, "error", err)
			op.Err = err.Error()
			report.add(op)
			return
		}
		logger.Info("Deleted event from previous calendar", "event", a.Event.ID, "from", a.Event.CalendarID)
		report.add(op)
		if s.create(ctx, logger, a, report) {
			report.count(ActionMove)
		}

	case ActionDelete:
		err := s.sink.DeleteEvent(ctx, a.Calendar.ID, a.Event.ID)
		op := Operation{Kind: string(ActionDelete), TaskID: a.TaskID, CalendarID: a.Calendar.ID, EventID: a.Event.ID}
		if err != nil {
			logger.Error("Failed to delete event", "event", a.Event.ID, "error", err)
			op.Err = err.Error()
			report.add(op)
			return
		}
		logger.Info("Deleted event", "event", a.Event.ID, "reason", a.Reason)
		report.add(op)
		report.count(ActionDelete)
	}
}

func (s *Syncer) create(ctx context.Context, logger *slog.Logger, a Action, report *Report) bool {
	ev, err := s.sink.CreateEvent(ctx, a.Calendar.ID, a.Payload)
	op := Operation{Kind: string(ActionCreate), TaskID: a.TaskID, CalendarID: a.Calendar.ID}
	if err != nil {
		logger.Error("Failed to create event", "error", err)
		op.Err = err.Error()
		report.add(op)
		return false
	}
	op.EventID = ev.ID
	logger.Info("Created event", "event", ev.ID, "date", a.Payload.Start)
	report.add(op)
	return true
}
