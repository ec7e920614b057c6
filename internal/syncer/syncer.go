package syncer

import (
	"context"
	"log/slog"
	"time"
	"vikcal/internal/models"

	"github.com/google/uuid"
)

// TaskSource enumerates Vikunja projects and tasks with a due date.
type TaskSource interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	ListTasks(ctx context.Context) ([]models.Task, error)
}

// CalendarSink is the calendar side of the sync. Implementations pace their mutating calls.
type CalendarSink interface {
	ListCalendars(ctx context.Context, prefix string) ([]models.Calendar, error)
	CreateCalendar(ctx context.Context, name string) (models.Calendar, error)
	ShareCalendar(ctx context.Context, calendarID, principal, role string) (bool, error)
	ListEvents(ctx context.Context, calendarID string) ([]models.Event, error)
	CreateEvent(ctx context.Context, calendarID string, p models.EventPayload) (models.Event, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, p models.EventPayload) error
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// Recorder persists the report of each cycle.
type Recorder interface {
	RecordRun(ctx context.Context, r *Report) error
}

// Options configures a Syncer.
type Options struct {
	CalendarPrefix string
	FrontendURL    string
	ShareWith      string // Sharing is skipped when empty
	ShareRole      string
	DryRun         bool
	Recorder       Recorder
}

// Syncer converges the managed Google calendars to the Vikunja tasks.
type Syncer struct {
	logger *slog.Logger
	source TaskSource
	sink   CalendarSink
	opts   Options
	now    func() time.Time
}

// NewSyncer creates a new Syncer.
func NewSyncer(logger *slog.Logger, source TaskSource, sink CalendarSink, opts Options) *Syncer {
	return &Syncer{
		logger: logger,
		source: source,
		sink:   sink,
		opts:   opts,
		now:    time.Now,
	}
}

// snapshot is the state fetched at the start of a cycle. The ok flags tell
// whether the matching fetch succeeded, an empty slice alone does not.
type snapshot struct {
	projects    []models.Project
	projectsOK  bool
	tasks       []models.Task
	tasksOK     bool
	calendars   []models.Calendar
	calendarsOK bool
}

// Reconcile runs one sync cycle. Per-item failures are logged and counted in the
// report; an error is only returned when ctx is cancelled.
func (s *Syncer) Reconcile(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: s.now().UTC(),
		DryRun:    s.opts.DryRun,
	}
	logger := s.logger.With("run", report.RunID)
	logger.Info("Starting sync cycle.", "dryRun", s.opts.DryRun)

	err := s.reconcile(ctx, logger, report)

	report.FinishedAt = s.now().UTC()
	if s.opts.Recorder != nil && !s.opts.DryRun {
		if rerr := s.opts.Recorder.RecordRun(context.WithoutCancel(ctx), report); rerr != nil {
			logger.Error("Failed to record sync run", "error", rerr)
		}
	}
	if err != nil {
		logger.Error("Sync cycle aborted", "error", err)
		return report, err
	}

	logger.Info("Sync cycle finished.",
		"created", report.Created,
		"updated", report.Updated,
		"moved", report.Moved,
		"deleted", report.Deleted,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"cleanupSkipped", report.CleanupSkipped,
		"duration", report.FinishedAt.Sub(report.StartedAt))
	return report, nil
}

func (s *Syncer) reconcile(ctx context.Context, logger *slog.Logger, report *Report) error {
	snap := s.fetch(ctx, logger)
	if err := ctx.Err(); err != nil {
		return err
	}

	if !snap.calendarsOK {
		// Provisioning against an unknown calendar list would create duplicates.
		logger.Error("Managed calendars could not be listed, skipping this cycle")
		report.CleanupSkipped = true
		return nil
	}

	calendars := s.provision(ctx, logger, snap.projects, snap.calendars, report)
	if err := ctx.Err(); err != nil {
		return err
	}
	s.share(ctx, logger, calendars, report)
	if err := ctx.Err(); err != nil {
		return err
	}

	idx := s.index(ctx, logger, calendars)
	if err := ctx.Err(); err != nil {
		return err
	}

	pending := make([]models.Task, 0, len(snap.tasks))
	for _, t := range snap.tasks {
		if !t.Done {
			pending = append(pending, t)
		}
	}
	report.Tasks = len(pending)

	plan := ComputePlan(PlanInput{
		Tasks:        pending,
		Projects:     snap.projects,
		Calendars:    calendars,
		Index:        idx,
		Prefix:       s.opts.CalendarPrefix,
		FrontendURL:  s.opts.FrontendURL,
		AllowCleanup: snap.projectsOK && snap.tasksOK && idx.Complete(),
	})

	for _, skip := range plan.Skipped {
		logger.Warn("Skipping task", "task", skip.TaskID, "title", skip.Title, "reason", skip.Reason)
		report.Skipped++
	}

	for _, a := range plan.Actions {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.apply(ctx, logger, a, report)
	}

	if plan.CleanupSkipped {
		logger.Warn("Skipping cleanup of removed tasks because a fetch failed in this cycle")
		report.CleanupSkipped = true
		return nil
	}
	for _, a := range plan.Cleanup {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.apply(ctx, logger, a, report)
	}
	return nil
}

// fetch reads both sides. Failures degrade to empty collections and clear the ok flag.
func (s *Syncer) fetch(ctx context.Context, logger *slog.Logger) snapshot {
	var (
		snap snapshot
		err  error
	)

	snap.projects, err = s.source.ListProjects(ctx)
	if err != nil {
		logger.Error("Could not fetch projects", "error", err)
	} else {
		snap.projectsOK = true
	}

	snap.tasks, err = s.source.ListTasks(ctx)
	if err != nil {
		logger.Error("Could not fetch tasks", "error", err)
	} else {
		snap.tasksOK = true
	}

	snap.calendars, err = s.sink.ListCalendars(ctx, s.opts.CalendarPrefix)
	if err != nil {
		logger.Error("Could not fetch managed calendars", "prefix", s.opts.CalendarPrefix, "error", err)
	} else {
		snap.calendarsOK = true
	}

	logger.Info("Fetched sync state.",
		"projects", len(snap.projects),
		"tasks", len(snap.tasks),
		"calendars", len(snap.calendars))
	return snap
}

// index lists the events of every managed calendar and indexes them by task id.
func (s *Syncer) index(ctx context.Context, logger *slog.Logger, calendars []models.Calendar) Index {
	var (
		events    []models.Event
		unindexed []string
	)
	for _, cal := range calendars {
		if isPlanned(cal) {
			// Not created yet, so it holds no events.
			continue
		}
		calEvents, err := s.sink.ListEvents(ctx, cal.ID)
		if err != nil {
			logger.Error("Could not fetch events", "calendar", cal.Name, "error", err)
			unindexed = append(unindexed, cal.ID)
			continue
		}
		events = append(events, calEvents...)
	}

	idx := IndexEvents(events)
	for _, id := range unindexed {
		idx.Unindexed[id] = true
	}
	logger.Info("Indexed synced events.", "events", len(events), "tasks", len(idx.ByTask), "duplicates", len(idx.Duplicates))
	return idx
}
