package feed

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"vikcal/internal/models"

	"github.com/emersion/go-ical"
	"github.com/gin-gonic/gin"
)

const contentType = "text/calendar; charset=utf-8"

var errUnknownProject = errors.New("unknown project")

// TaskSource is read on every request, the feed keeps no state.
type TaskSource interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	ListTasks(ctx context.Context) ([]models.Task, error)
}

// Server is the read-only iCal feed server.
type Server struct {
	source  TaskSource
	builder *Builder
	logger  *slog.Logger
	prefix  string
	token   string
	router  *gin.Engine
}

// NewServer creates the feed server. Requests must carry ?token= when token is set.
func NewServer(logger *slog.Logger, source TaskSource, builder *Builder, prefix, token string) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		source:  source,
		builder: builder,
		logger:  logger,
		prefix:  prefix,
		token:   token,
		router:  router,
	}

	router.GET("/healthz", s.handleHealth)

	feeds := router.Group("/", s.requireToken)
	{
		feeds.GET("/calendar.ics", s.handleAll)
		feeds.GET("/projects/:name/calendar.ics", s.handleProject)
	}
	return s
}

// Handler returns the feed routes as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("Serving iCal feed", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("Feed server stopped")
		return nil
	}
}

func (s *Server) requireToken(c *gin.Context) {
	if s.token == "" {
		return
	}
	if subtle.ConstantTimeCompare([]byte(c.Query("token")), []byte(s.token)) != 1 {
		c.AbortWithStatus(http.StatusUnauthorized)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleAll(c *gin.Context) {
	tasks, err := s.source.ListTasks(c.Request.Context())
	if err != nil {
		s.logger.Error("Could not fetch tasks for feed", "error", err)
		c.String(http.StatusBadGateway, "could not fetch tasks")
		return
	}
	s.render(c, s.builder.Build(s.prefix, tasks))
}

func (s *Server) handleProject(c *gin.Context) {
	name := c.Param("name")

	tasks, project, err := s.projectTasks(c.Request.Context(), name)
	if errors.Is(err, errUnknownProject) {
		c.String(http.StatusNotFound, "unknown project")
		return
	}
	if err != nil {
		s.logger.Error("Could not fetch project feed", "project", name, "error", err)
		c.String(http.StatusBadGateway, "could not fetch tasks")
		return
	}
	s.render(c, s.builder.Build(models.CalendarName(s.prefix, project), tasks))
}

// projectTasks returns the tasks of the project titled name, compared case-insensitively.
func (s *Server) projectTasks(ctx context.Context, name string) ([]models.Task, models.Project, error) {
	projects, err := s.source.ListProjects(ctx)
	if err != nil {
		return nil, models.Project{}, err
	}

	var (
		project models.Project
		found   bool
	)
	for _, p := range projects {
		if strings.EqualFold(p.Title, name) {
			project, found = p, true
			break
		}
	}
	if !found {
		return nil, models.Project{}, errUnknownProject
	}

	tasks, err := s.source.ListTasks(ctx)
	if err != nil {
		return nil, models.Project{}, err
	}

	var res []models.Task
	for _, t := range tasks {
		if t.ProjectID == project.ID {
			res = append(res, t)
		}
	}
	return res, project, nil
}

func (s *Server) render(c *gin.Context, cal *ical.Calendar) {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		s.logger.Error("Failed to encode feed", "error", err)
		c.String(http.StatusInternalServerError, "failed to encode calendar")
		return
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
