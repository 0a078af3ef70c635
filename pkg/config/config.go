package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/pthomas-44/nextbus/pkg/board"
	"github.com/pthomas-44/nextbus/pkg/schedule"
)

// Source kinds.
const (
	SourceJSON     = "json"
	SourceScript   = "script"
	SourcePostgres = "postgres"
)

// FeedConfig describes the static GTFS archive the fetch command downloads.
type FeedConfig struct {
	URL         string   `json:"url,omitempty" validate:"omitempty,url"`
	Username    string   `json:"username,omitempty"`
	Password    string   `json:"password,omitempty"`
	StopIDs     []string `json:"stop_ids"`
	AutoRefresh bool     `json:"auto_refresh"`
}

// AppConfig holds all user-defined persistent settings
type AppConfig struct {
	Trips                  []schedule.Trip  `json:"trips" validate:"required,min=1,dive"`
	Source                 string           `json:"source" validate:"oneof=json script postgres"`
	SchedulePath           string           `json:"schedule_path,omitempty" validate:"required_if=Source json"`
	ScriptCommand          string           `json:"script_command,omitempty" validate:"required_if=Source script"`
	ScriptTrip             string           `json:"script_trip,omitempty"`
	DatabaseURL            string           `json:"database_url,omitempty" validate:"required_if=Source postgres"`
	Feed                   FeedConfig       `json:"feed"`
	Thresholds             board.Thresholds `json:"thresholds"`
	RefreshIntervalSeconds int              `json:"refresh_interval_seconds" validate:"gte=1"`
	AccentColor            string           `json:"accent_color,omitempty"`
	ServeAddr              string           `json:"serve_addr,omitempty" validate:"omitempty,hostname_port"`
}

// DefaultTrips are the Lyon TCL lines the board was first built for.
func DefaultTrips() []schedule.Trip {
	return []schedule.Trip{
		{ID: "86A_18_2_040AM", Tag: "86", Name: "86 - Gorge de Loup", ArrivalsToShow: 3},
		{ID: "86A_18_1_040AM", Tag: "86", Name: "86 - La Tour de Salvagny Chambettes", ArrivalsToShow: 3},
		{ID: "5A_34_2_046AB", Tag: "5", Name: "5 - Pont Mouton", ArrivalsToShow: 3},
		{ID: "5A_34_1_046AB", Tag: "5", Name: "5 - Charbonnières Les Verrières", ArrivalsToShow: 3},
	}
}

// Default returns the configuration used when no file exists.
func Default() *AppConfig {
	return &AppConfig{
		Trips:        DefaultTrips(),
		Source:       SourceJSON,
		SchedulePath: "~/goinfre/stop_times.json",
		Feed: FeedConfig{
			URL:         "https://download.data.grandlyon.com/files/rdata/tcl_sytral.tcltheorique/GTFS_TCL.ZIP",
			Username:    "demo",
			Password:    "demo4dev",
			StopIDs:     []string{"2010", "2011"},
			AutoRefresh: true,
		},
		Thresholds:             board.DefaultThresholds(),
		RefreshIntervalSeconds: 5,
		ServeAddr:              "127.0.0.1:8089",
	}
}

// getConfigPath returns the absolute path to ~/.nextbus.json, or
// $NEXTBUS_CONFIG when set.
func getConfigPath() (string, error) {
	if p := os.Getenv("NEXTBUS_CONFIG"); p != "" {
		return p, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".nextbus.json"), nil
}

// Load reads the application configuration from disk, then applies .env and
// environment overrides. Returns the defaults if the file does not exist.
// The result may carry secrets from the environment; edit flows that Save
// must start from LoadFile instead.
func Load() (*AppConfig, error) {
	cfg, err := LoadFile()
	if err != nil {
		return nil, err
	}

	// .env is optional
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads the configuration file over the defaults, without .env or
// environment overrides. A trips list in the file replaces the default
// catalogue instead of being merged into it.
func LoadFile() (*AppConfig, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		cfg.Trips = nil
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
		if cfg.Trips == nil {
			cfg.Trips = DefaultTrips()
		}
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() error {
	setString := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	setString(&c.Source, "NEXTBUS_SOURCE")
	setString(&c.SchedulePath, "NEXTBUS_SCHEDULE_PATH")
	setString(&c.ScriptCommand, "NEXTBUS_SCRIPT")
	setString(&c.DatabaseURL, "NEXTBUS_DATABASE_URL", "DATABASE_URL")
	setString(&c.Feed.URL, "NEXTBUS_FEED_URL")
	setString(&c.Feed.Username, "NEXTBUS_FEED_USER")
	setString(&c.Feed.Password, "NEXTBUS_FEED_PASSWORD")
	setString(&c.ServeAddr, "NEXTBUS_SERVE_ADDR")

	if v := os.Getenv("NEXTBUS_STOP_IDS"); v != "" {
		c.Feed.StopIDs = splitList(v)
	}
	if v := os.Getenv("NEXTBUS_REFRESH_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid NEXTBUS_REFRESH_SECONDS: %q", v)
		}
		c.RefreshIntervalSeconds = n
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the struct tags and the trip catalogue.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	seen := make(map[schedule.TripID]bool, len(c.Trips))
	for _, t := range c.Trips {
		if seen[t.ID] {
			return fmt.Errorf("invalid config: duplicate trip id %q", t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

// RefreshInterval is the board refresh period.
func (c *AppConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

// Prefixes returns the trip ids, which double as GTFS trip_id prefixes.
func (c *AppConfig) Prefixes() []string {
	out := make([]string, len(c.Trips))
	for i, t := range c.Trips {
		out[i] = string(t.ID)
	}
	return out
}

// ResolvedSchedulePath expands a leading "~/" in SchedulePath.
func (c *AppConfig) ResolvedSchedulePath() (string, error) {
	return ExpandHome(c.SchedulePath)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find user home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(p, "~")), nil
}

// Save writes the application configuration back to disk.
func Save(cfg *AppConfig) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
