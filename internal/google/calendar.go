package google

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"vikcal/internal/models"

	"golang.org/x/time/rate"
	"google.golang.org/api/calendar/v3"
)

const (
	defaultTimeZone   = "UTC"
	defaultMaxRetries = 3
	defaultRetryDelay = 5 * time.Second
	eventsPageSize    = 250
)

// Limiter paces calls to the Calendar API. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// NewLimiter returns a limiter allowing one mutating call every interval.
// A non-positive interval disables pacing.
func NewLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// CalendarClient provides a client for interacting with the Google Calendar API.
// Every mutating call waits on the limiter first.
type CalendarClient struct {
	service *calendar.Service
	logger  *slog.Logger
	limiter Limiter

	MaxRetries int
	RetryDelay time.Duration
}

// NewCalendarClient wraps an authenticated Calendar service.
func NewCalendarClient(service *calendar.Service, logger *slog.Logger, limiter Limiter) *CalendarClient {
	if limiter == nil {
		limiter = NewLimiter(0)
	}
	return &CalendarClient{
		service:    service,
		logger:     logger,
		limiter:    limiter,
		MaxRetries: defaultMaxRetries,
		RetryDelay: defaultRetryDelay,
	}
}

// ListCalendars returns the calendars of the account whose name starts with prefix.
func (c *CalendarClient) ListCalendars(ctx context.Context, prefix string) ([]models.Calendar, error) {
	var (
		cals      []models.Calendar
		pageToken string
	)
	for {
		var list *calendar.CalendarList
		err := c.call(ctx, "list calendars", false, func() (err error) {
			list, err = c.service.CalendarList.List().PageToken(pageToken).Context(ctx).Do()
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list calendars: %w", err)
		}

		for _, item := range list.Items {
			if strings.HasPrefix(item.Summary, prefix) {
				cals = append(cals, models.Calendar{ID: item.Id, Name: item.Summary})
			}
		}
		pageToken = list.NextPageToken
		if pageToken == "" {
			break
		}
	}

	c.logger.Debug("Fetched managed calendars", "prefix", prefix, "count", len(cals))
	return cals, nil
}

// CreateCalendar creates a new calendar in UTC.
func (c *CalendarClient) CreateCalendar(ctx context.Context, name string) (models.Calendar, error) {
	var created *calendar.Calendar
	err := c.call(ctx, "create calendar", true, func() (err error) {
		created, err = c.service.Calendars.Insert(&calendar.Calendar{
			Summary:  name,
			TimeZone: defaultTimeZone,
		}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return models.Calendar{}, fmt.Errorf("failed to create calendar %q: %w", name, err)
	}

	c.logger.Debug("Created calendar", "name", name, "id", created.Id)
	return models.Calendar{ID: created.Id, Name: created.Summary}, nil
}

// ShareCalendar grants role on the calendar to principal unless it already holds
// reader, writer or owner access. It reports whether a rule was inserted.
func (c *CalendarClient) ShareCalendar(ctx context.Context, calendarID, principal, role string) (bool, error) {
	shared, err := c.hasAccess(ctx, calendarID, principal)
	if err != nil {
		return false, err
	}
	if shared {
		return false, nil
	}

	err = c.call(ctx, "share calendar", true, func() error {
		_, err := c.service.Acl.Insert(calendarID, &calendar.AclRule{
			Role: role,
			Scope: &calendar.AclRuleScope{
				Type:  "user",
				Value: principal,
			},
		}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to share calendar %s with %s: %w", calendarID, principal, err)
	}

	c.logger.Debug("Shared calendar", "calendarID", calendarID, "principal", principal, "role", role)
	return true, nil
}

func (c *CalendarClient) hasAccess(ctx context.Context, calendarID, principal string) (bool, error) {
	var pageToken string
	for {
		var acl *calendar.Acl
		err := c.call(ctx, "list acl", false, func() (err error) {
			acl, err = c.service.Acl.List(calendarID).PageToken(pageToken).Context(ctx).Do()
			return err
		})
		if err != nil {
			return false, fmt.Errorf("failed to list acl of %s: %w", calendarID, err)
		}

		for _, rule := range acl.Items {
			if rule.Scope == nil || !strings.EqualFold(rule.Scope.Value, principal) {
				continue
			}
			switch rule.Role {
			case "reader", "writer", "owner":
				return true, nil
			}
		}
		pageToken = acl.NextPageToken
		if pageToken == "" {
			return false, nil
		}
	}
}

// ListEvents returns every non-cancelled event of the calendar.
func (c *CalendarClient) ListEvents(ctx context.Context, calendarID string) ([]models.Event, error) {
	var (
		events    []models.Event
		pageToken string
	)
	for {
		var page *calendar.Events
		err := c.call(ctx, "list events", false, func() (err error) {
			page, err = c.service.Events.List(calendarID).
				ShowDeleted(false).
				MaxResults(eventsPageSize).
				PageToken(pageToken).
				Context(ctx).
				Do()
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve events of %s: %w", calendarID, err)
		}

		for _, item := range page.Items {
			events = append(events, newEvent(calendarID, item))
		}
		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	c.logger.Debug("Fetched events", "calendarID", calendarID, "count", len(events))
	return events, nil
}

// CreateEvent inserts the payload as a new event.
func (c *CalendarClient) CreateEvent(ctx context.Context, calendarID string, p models.EventPayload) (models.Event, error) {
	var created *calendar.Event
	err := c.call(ctx, "create event", true, func() (err error) {
		created, err = c.service.Events.Insert(calendarID, newGoogleEvent(p)).Context(ctx).Do()
		return err
	})
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to create event for task %s: %w", p.TaskID, err)
	}
	return newEvent(calendarID, created), nil
}

// UpdateEvent replaces the event with the payload.
func (c *CalendarClient) UpdateEvent(ctx context.Context, calendarID, eventID string, p models.EventPayload) error {
	err := c.call(ctx, "update event", true, func() error {
		_, err := c.service.Events.Update(calendarID, eventID, newGoogleEvent(p)).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update event %s: %w", eventID, err)
	}
	return nil
}

// DeleteEvent deletes the event. An event that is already gone counts as deleted.
func (c *CalendarClient) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	err := c.call(ctx, "delete event", true, func() error {
		return c.service.Events.Delete(calendarID, eventID).Context(ctx).Do()
	})
	if err != nil && !alreadyDeleted(err) {
		return fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}
	return nil
}

// call runs fn, retrying a bounded number of times when Google reports a rate limit.
// Paced calls wait on the limiter before every attempt.
func (c *CalendarClient) call(ctx context.Context, op string, paced bool, fn func() error) error {
	for attempt := 0; ; attempt++ {
		if paced {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		err := fn()
		if err == nil || !shouldRetry(err) || attempt >= c.MaxRetries {
			return err
		}

		c.logger.Warn("Rate limited by Google Calendar, retrying", "op", op, "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.RetryDelay):
		}
	}
}
