package syncer

import (
	"context"
	"log/slog"
	"strings"
	"vikcal/internal/models"
)

// provision makes sure every project has its managed calendar. Missing calendars are
// created and appended to the returned list so later phases see them without refetching.
// A project whose calendar cannot be created is skipped until the next cycle. In a
// dry run the missing calendars are added as placeholders so their tasks are planned.
func (s *Syncer) provision(ctx context.Context, logger *slog.Logger, projects []models.Project, calendars []models.Calendar, report *Report) []models.Calendar {
	cals := append([]models.Calendar(nil), calendars...)

	for _, p := range projects {
		if ctx.Err() != nil {
			return cals
		}

		name := models.CalendarName(s.opts.CalendarPrefix, p)
		if findCalendar(cals, name) {
			continue
		}

		if s.opts.DryRun {
			logger.Info("[DRY RUN] Would create calendar", "calendar", name, "project", p.ID)
			cals = append(cals, models.Calendar{ID: plannedCalendarPrefix + name, Name: name})
			continue
		}

		cal, err := s.sink.CreateCalendar(ctx, name)
		if err != nil {
			logger.Error("Failed to create calendar", "calendar", name, "project", p.ID, "error", err)
			report.add(Operation{Kind: OpCreateCalendar, CalendarID: name, Err: err.Error()})
			continue
		}
		logger.Info("Created calendar", "calendar", cal.Name, "id", cal.ID)
		report.add(Operation{Kind: OpCreateCalendar, CalendarID: cal.ID})
		cals = append(cals, cal)
	}
	return cals
}

// share grants the configured principal access to every managed calendar. The sink
// rechecks the ACL every cycle, so an existing grant costs no mutation.
func (s *Syncer) share(ctx context.Context, logger *slog.Logger, calendars []models.Calendar, report *Report) {
	if s.opts.ShareWith == "" {
		return
	}
	if s.opts.DryRun {
		logger.Debug("[DRY RUN] Not checking calendar sharing", "principal", s.opts.ShareWith)
		return
	}

	for _, cal := range calendars {
		if ctx.Err() != nil {
			return
		}

		granted, err := s.sink.ShareCalendar(ctx, cal.ID, s.opts.ShareWith, s.opts.ShareRole)
		if err != nil {
			logger.Error("Failed to share calendar", "calendar", cal.Name, "principal", s.opts.ShareWith, "error", err)
			report.add(Operation{Kind: OpShareCalendar, CalendarID: cal.ID, Err: err.Error()})
			continue
		}
		if granted {
			logger.Info("Shared calendar", "calendar", cal.Name, "principal", s.opts.ShareWith, "role", s.opts.ShareRole)
			report.add(Operation{Kind: OpShareCalendar, CalendarID: cal.ID})
		}
	}
}

// plannedCalendarPrefix marks the placeholder ids of calendars a dry run would create.
const plannedCalendarPrefix = "planned:"

func isPlanned(cal models.Calendar) bool {
	return strings.HasPrefix(cal.ID, plannedCalendarPrefix)
}

func findCalendar(cals []models.Calendar, name string) bool {
	for _, c := range cals {
		if c.Name == name {
			return true
		}
	}
	return false
}
