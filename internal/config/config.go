package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultCalendarPrefix = "[Vikunja]"
	DefaultShareRole      = "owner"
	DefaultPacing         = 200 * time.Millisecond
	DefaultFeedAddr       = ":8080"
	DefaultTokenFile      = "token.json"
)

// ErrMissing is returned by the validators when required options are not set.
var ErrMissing = errors.New("missing required configuration")

// Config holds every option recognized by vikcal.
type Config struct {
	VikunjaURL   string
	VikunjaToken string
	FrontendURL  string

	GoogleCredentialsFile string // Service account JSON
	GoogleClientID        string
	GoogleClientSecret    string
	GoogleTokenFile       string

	CalendarPrefix string
	ShareWith      string
	ShareRole      string
	Pacing         time.Duration

	JournalPath string
	FeedAddr    string
	FeedToken   string
	LogLevel    string
}

// Load reads the optional .env file and then the environment.
func Load() (*Config, error) {
	// A missing .env file is fine, the variables may come from the environment.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		VikunjaURL:            strings.TrimSuffix(getenv("VIKUNJA_URL"), "/"),
		VikunjaToken:          getenv("VIKUNJA_TOKEN"),
		FrontendURL:           strings.TrimSuffix(getenv("FRONTEND_URL"), "/"),
		GoogleCredentialsFile: getenv("GOOGLE_CREDENTIALS_FILE"),
		GoogleClientID:        getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:    getenv("GOOGLE_CLIENT_SECRET"),
		GoogleTokenFile:       valueOr(getenv("GOOGLE_TOKEN_FILE"), DefaultTokenFile),
		CalendarPrefix:        valueOr(getenv("CALENDAR_PREFIX"), DefaultCalendarPrefix),
		ShareWith:             getenv("SHARE_WITH"),
		ShareRole:             valueOr(getenv("SHARE_ROLE"), DefaultShareRole),
		Pacing:                DefaultPacing,
		JournalPath:           getenv("JOURNAL_PATH"),
		FeedAddr:              valueOr(getenv("FEED_ADDR"), DefaultFeedAddr),
		FeedToken:             getenv("FEED_TOKEN"),
		LogLevel:              valueOr(getenv("LOG_LEVEL"), "info"),
	}

	if v := getenv("SYNC_PACING"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SYNC_PACING %q: %w", v, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("invalid SYNC_PACING %q: must not be negative", v)
		}
		cfg.Pacing = d
	}
	return cfg, nil
}

// UsesServiceAccount reports whether Google is accessed with a service account.
func (c *Config) UsesServiceAccount() bool {
	return c.GoogleCredentialsFile != ""
}

// ValidateSync checks the options required by the sync command.
func (c *Config) ValidateSync() error {
	missing := c.missingTaskSource()
	if !c.UsesServiceAccount() && (c.GoogleClientID == "" || c.GoogleClientSecret == "") {
		missing = append(missing, "GOOGLE_CREDENTIALS_FILE (or GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET)")
	}
	return missingErr(missing)
}

// ValidateFeed checks the options required by the serve command.
func (c *Config) ValidateFeed() error {
	return missingErr(c.missingTaskSource())
}

// ValidateAuth checks the options required by the auth command.
func (c *Config) ValidateAuth() error {
	var missing []string
	if c.GoogleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if c.GoogleClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}
	return missingErr(missing)
}

func (c *Config) missingTaskSource() []string {
	var missing []string
	if c.VikunjaURL == "" {
		missing = append(missing, "VIKUNJA_URL")
	}
	if c.VikunjaToken == "" {
		missing = append(missing, "VIKUNJA_TOKEN")
	}
	if c.FrontendURL == "" {
		missing = append(missing, "FRONTEND_URL")
	}
	return missing
}

func missingErr(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
