package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"
	"vikcal/internal/config"
	"vikcal/internal/feed"
	"vikcal/internal/google"
	"vikcal/internal/journal"
	"vikcal/internal/syncer"
	"vikcal/internal/vikunja"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
)

func main() {
	app := &cli.App{
		Name:  "vikcal",
		Usage: "Mirror Vikunja tasks with a due date into Google Calendar and an iCal feed.",
		Commands: []*cli.Command{
			authCommand(),
			syncCommand(),
			serveCommand(),
			historyCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account and store the OAuth token.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateAuth(); err != nil {
				return err
			}
			logger := setupLogger(cfg.LogLevel)
			logger.Info("Starting Google authentication flow.")

			oauthConfig, err := google.GetOAuthConfigForAuthFlow(cfg.GoogleClientID, cfg.GoogleClientSecret)
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(c.Context, oauthConfig, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			if err := google.SaveToken(cfg.GoogleTokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", cfg.GoogleTokenFile)
			return nil
		},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile the Google calendars with the Vikunja tasks.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "once", Usage: "Run the sync cycle once and exit."},
			&cli.BoolFlag{Name: "dry-run", Usage: "Log what would be synced without making changes."},
			&cli.IntFlag{Name: "watch", Value: 300, Usage: "Run sync every N seconds. Overrides --once."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateSync(); err != nil {
				return err
			}
			logger := setupLogger(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			dryRun := c.Bool("dry-run")
			if dryRun {
				logger.Info("Performing a dry run. No changes will be made.")
			}

			service, err := newCalendarService(ctx, cfg)
			if err != nil {
				return err
			}
			sink := google.NewCalendarClient(service, logger, google.NewLimiter(cfg.Pacing))
			source := vikunja.NewClient(ctx, logger, cfg.VikunjaURL, cfg.VikunjaToken)

			opts := syncer.Options{
				CalendarPrefix: cfg.CalendarPrefix,
				FrontendURL:    cfg.FrontendURL,
				ShareWith:      cfg.ShareWith,
				ShareRole:      cfg.ShareRole,
				DryRun:         dryRun,
			}
			if cfg.JournalPath != "" {
				store, err := journal.Open(ctx, cfg.JournalPath)
				if err != nil {
					return err
				}
				defer store.Close()
				opts.Recorder = store
			}

			runner := syncer.NewRunner(logger, syncer.NewSyncer(logger, source, sink, opts))

			// --watch flag takes precedence
			if c.IsSet("watch") {
				interval := time.Duration(c.Int("watch")) * time.Second
				if interval <= 0 {
					return fmt.Errorf("invalid --watch interval %d", c.Int("watch"))
				}
				logger.Info("Starting watcher.", "interval", interval)
				if err := runner.Watch(ctx, interval); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				logger.Info("Watcher stopped.")
				return nil
			}

			// --once is the default behavior if --watch is not set
			logger.Info("Running a single sync cycle.")
			if _, err := runner.Run(ctx); err != nil {
				return fmt.Errorf("single sync cycle failed: %w", err)
			}
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the uncompleted tasks as a read-only iCal feed.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address, defaults to FEED_ADDR."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateFeed(); err != nil {
				return err
			}
			logger := setupLogger(cfg.LogLevel)

			addr := cfg.FeedAddr
			if c.IsSet("addr") {
				addr = c.String("addr")
			}
			if cfg.FeedToken == "" {
				logger.Warn("FEED_TOKEN is not set, the feed is readable without a token")
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !strings.EqualFold(cfg.LogLevel, "debug") {
				gin.SetMode(gin.ReleaseMode)
			}
			source := vikunja.NewClient(ctx, logger, cfg.VikunjaURL, cfg.VikunjaToken)
			server := feed.NewServer(logger, source, feed.NewBuilder(cfg.FrontendURL), cfg.CalendarPrefix, cfg.FeedToken)
			return server.Run(ctx, addr)
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show the most recent sync runs from the journal.",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 10, Usage: "Number of runs to show."},
			&cli.BoolFlag{Name: "operations", Usage: "Also list the operations of each run."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JournalPath == "" {
				return fmt.Errorf("%w: JOURNAL_PATH", config.ErrMissing)
			}

			store, err := journal.Open(c.Context, cfg.JournalPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.RecentRuns(c.Context, c.Int("limit"))
			if err != nil {
				return fmt.Errorf("failed to read journal: %w", err)
			}
			return printRuns(runs, c.Bool("operations"))
		},
	}
}

func printRuns(runs []*syncer.Report, withOps bool) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tDURATION\tTASKS\tCREATED\tUPDATED\tMOVED\tDELETED\tSKIPPED\tFAILED\tCLEANUP\tRUN")
	for _, r := range runs {
		cleanup := "yes"
		if r.CleanupSkipped {
			cleanup = "skipped"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
			r.Tasks, r.Created, r.Updated, r.Moved, r.Deleted, r.Skipped, r.Failed,
			cleanup, r.RunID)

		if !withOps {
			continue
		}
		for _, op := range r.Operations {
			status := "ok"
			if op.Err != "" {
				status = op.Err
			}
			fmt.Fprintf(w, "\t%s\ttask=%s\tcalendar=%s\tevent=%s\t%s\n", op.Kind, op.TaskID, op.CalendarID, op.EventID, status)
		}
	}
	return w.Flush()
}

// newCalendarService prefers the service account and falls back to the stored OAuth token.
func newCalendarService(ctx context.Context, cfg *config.Config) (*calendar.Service, error) {
	if cfg.UsesServiceAccount() {
		service, err := google.NewServiceAccountService(ctx, cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create google service: %w", err)
		}
		return service, nil
	}

	service, err := google.NewOAuthService(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleTokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create google service, did you run the auth command? %w", err)
	}
	return service, nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
