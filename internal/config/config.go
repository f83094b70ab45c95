// Package config holds the settings of one timetable run.
//
// Defaults come from the environment, optionally seeded from a .env file, and are then
// overridden by command-line flags. Nothing here is global: the CLI builds a Config and
// hands it to the fetcher and reporter.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pfrederiksen/spbu-timetable/internal/logger"
)

const (
	DefaultBaseURL  = "https://timetable.spbu.ru/AMCP/StudentGroupEvents/Primary"
	DefaultGroupID  = "303104"
	DefaultTimeZone = "Europe/Moscow"
	DefaultTimeout  = 30 * time.Second
	DefaultFormat   = "text"
	DefaultSort     = "page"
	DefaultLogLevel = "warn"

	// DateLayout is the --date format, also the URL suffix selecting a week.
	DateLayout = "2006-01-02"
)

// Environment variables read by FromEnv.
const (
	EnvGroupID   = "SPBU_GROUP_ID"
	EnvBaseURL   = "SPBU_BASE_URL"
	EnvTimeZone  = "SPBU_TZ"
	EnvTLSVerify = "SPBU_TLS_VERIFY"
	EnvTimeout   = "SPBU_TIMEOUT"
	EnvLogLevel  = "SPBU_LOG_LEVEL"
)

// ErrDateFormat is returned by Validate for a --date that is not YYYY-MM-DD.
var ErrDateFormat = errors.New("parsing date format, use YYYY-MM-DD")

var (
	formats    = []string{"text", "json", "ics"}
	sortOrders = []string{"page", "start", "title", "type"}
)

// Config is everything a run needs besides the page itself.
type Config struct {
	GroupID   string
	Date      string // YYYY-MM-DD, empty for the current week
	BaseURL   string
	TLSVerify bool
	Timeout   time.Duration
	TimeZone  string
	Format    string
	Sort      string
	LogLevel  string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		GroupID:   DefaultGroupID,
		BaseURL:   DefaultBaseURL,
		TLSVerify: true,
		Timeout:   DefaultTimeout,
		TimeZone:  DefaultTimeZone,
		Format:    DefaultFormat,
		Sort:      DefaultSort,
		LogLevel:  DefaultLogLevel,
	}
}

// LoadDotEnv loads variables from path into the environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// FromEnv returns Default overlaid with the SPBU_* environment variables.
func FromEnv() (Config, error) {
	cfg := Default()

	if v := os.Getenv(EnvGroupID); v != "" {
		cfg.GroupID = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv(EnvTimeZone); v != "" {
		cfg.TimeZone = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvTLSVerify); v != "" {
		verify, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvTLSVerify, err)
		}
		cfg.TLSVerify = verify
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		cfg.Timeout = timeout
	}

	return cfg, nil
}

// Validate checks user-supplied values.
func (c Config) Validate() error {
	if c.Date != "" {
		if _, err := time.Parse(DateLayout, c.Date); err != nil {
			return ErrDateFormat
		}
	}
	if strings.TrimSpace(c.GroupID) == "" {
		return fmt.Errorf("group id must not be empty")
	}
	if !contains(formats, c.Format) {
		return fmt.Errorf("invalid format: %s (must be one of %s)", c.Format, strings.Join(formats, ", "))
	}
	if !contains(sortOrders, c.Sort) {
		return fmt.Errorf("invalid sort: %s (must be one of %s)", c.Sort, strings.Join(sortOrders, ", "))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// URL returns the page address for the configured group and week.
func (c Config) URL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + c.GroupID + "/" + c.Date
}

// LoadLocation resolves TimeZone, falling back to a fixed UTC+3 zone when the
// system has no zone database.
func (c Config) LoadLocation() *time.Location {
	if loc, err := time.LoadLocation(c.TimeZone); err == nil {
		return loc
	}
	return time.FixedZone("MSK", 3*60*60)
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
