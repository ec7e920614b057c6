package vikunja

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"vikcal/internal/models"

	"golang.org/x/oauth2"
)

const (
	defaultPerPage    = 50
	totalPagesHeader  = "x-pagination-total-pages"
	defaultReqTimeout = 30 * time.Second
)

// Client reads projects and tasks from the Vikunja API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	perPage    int
}

// NewClient creates a Vikunja client authenticating with a bearer token.
// baseURL is the API root, e.g. https://vikunja.example/api/v1.
func NewClient(ctx context.Context, logger *slog.Logger, baseURL, token string) *Client {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = defaultReqTimeout

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		perPage:    defaultPerPage,
	}
}

type apiProject struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type apiTask struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Done        bool        `json:"done"`
	DueDate     time.Time   `json:"due_date"`
	ProjectID   int64       `json:"project_id"`
	Updated     time.Time   `json:"updated"`
	Project     *apiProject `json:"project,omitempty"`
}

// ListProjects fetches every project the token can see.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := c.paginate(ctx, "/projects", func(dec *json.Decoder) (int, error) {
		var page []apiProject
		if err := dec.Decode(&page); err != nil {
			return 0, err
		}
		for _, p := range page {
			projects = append(projects, models.Project{ID: p.ID, Title: p.Title})
		}
		return len(page), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	c.logger.Debug("Fetched Vikunja projects", "count", len(projects))
	return projects, nil
}

// ListTasks fetches every task across all projects and keeps only the ones with a due date.
func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var (
		tasks []models.Task
		total int
	)
	err := c.paginate(ctx, "/tasks/all", func(dec *json.Decoder) (int, error) {
		var page []apiTask
		if err := dec.Decode(&page); err != nil {
			return 0, err
		}
		total += len(page)
		for _, t := range page {
			if task, ok := toTask(t); ok {
				tasks = append(tasks, task)
			}
		}
		return len(page), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	c.logger.Debug("Fetched Vikunja tasks", "total", total, "withDueDate", len(tasks))
	return tasks, nil
}

// toTask converts an API task. Vikunja reports "no due date" as the zero time.
func toTask(t apiTask) (models.Task, bool) {
	if t.DueDate.IsZero() || t.DueDate.Year() <= 1 {
		return models.Task{}, false
	}

	task := models.Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Due:         models.NewDateFromTime(t.DueDate),
		Done:        t.Done,
		Updated:     t.Updated.UTC(),
		ProjectID:   t.ProjectID,
	}
	if t.Project != nil {
		task.Project = &models.Project{ID: t.Project.ID, Title: t.Project.Title}
		if task.ProjectID == 0 {
			task.ProjectID = t.Project.ID
		}
	}
	return task, true
}

// paginate walks every page of a list endpoint. decode returns the number of items on the page.
func (c *Client) paginate(ctx context.Context, path string, decode func(*json.Decoder) (int, error)) error {
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(c.perPage))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("GET %s page %d: unexpected status %s", path, page, resp.Status)
		}

		n, err := decode(json.NewDecoder(resp.Body))
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("GET %s page %d: decoding response: %w", path, page, err)
		}
		if n == 0 {
			return nil
		}

		if totalPages, err := strconv.Atoi(resp.Header.Get(totalPagesHeader)); err == nil {
			if page >= totalPages {
				return nil
			}
			continue
		}
		if n < c.perPage {
			return nil
		}
	}
}
