// Package app assembles the board from a loaded configuration.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pthomas-44/nextbus/pkg/config"
	"github.com/pthomas-44/nextbus/pkg/feed"
	"github.com/pthomas-44/nextbus/pkg/metrics"
	"github.com/pthomas-44/nextbus/pkg/refresh"
	"github.com/pthomas-44/nextbus/pkg/schedule"
	"github.com/pthomas-44/nextbus/pkg/source"
)

// App bundles the engine with the source it is fed from.
type App struct {
	Config    *config.AppConfig
	Manager   *schedule.Manager
	Source    source.Source
	Refresher *refresh.Refresher
	Feed      *feed.Client
	Metrics   *metrics.Collector

	db *sql.DB
}

// New validates cfg and wires the manager, source and refresher. Nothing is
// fetched until the refresher runs or Reload is called.
func New(cfg *config.AppConfig) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m, err := schedule.NewManager(cfg.Trips, schedule.WithLogger(log.Default()))
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Manager: m,
		Feed:    feed.NewClient(),
		Metrics: metrics.NewCollector(cfg.RefreshInterval()),
	}

	switch cfg.Source {
	case config.SourceJSON:
		path, err := cfg.ResolvedSchedulePath()
		if err != nil {
			return nil, err
		}
		a.Source = source.JSONFile{Path: path}
	case config.SourceScript:
		a.Source = source.Script{Command: cfg.ScriptCommand, TripID: cfg.ScriptTrip}
	case config.SourcePostgres:
		db, err := source.OpenDB(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.db = db
		a.Source = source.Postgres{DB: db, Prefixes: cfg.Prefixes(), StopIDs: cfg.Feed.StopIDs}
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}

	opts := []refresh.Option{refresh.WithMetrics(a.Metrics)}
	if cfg.Source == config.SourceJSON && cfg.Feed.AutoRefresh {
		opts = append(opts, refresh.WithDaily(func(ctx context.Context) error {
			_, err := a.FetchFeed(ctx, false)
			return err
		}))
	}
	a.Refresher = refresh.New(a.Source, m, cfg.RefreshInterval(), opts...)

	return a, nil
}

// Ping checks the database connection of a Postgres-backed app.
func (a *App) Ping(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	return source.PingDB(ctx, a.db)
}

// FeedOptions derives the feed download settings from the config.
func (a *App) FeedOptions(force bool) (feed.Options, error) {
	path, err := a.Config.ResolvedSchedulePath()
	if err != nil {
		return feed.Options{}, err
	}
	return feed.Options{
		URL:      a.Config.Feed.URL,
		Username: a.Config.Feed.Username,
		Password: a.Config.Feed.Password,
		Prefixes: a.Config.Prefixes(),
		StopIDs:  a.Config.Feed.StopIDs,
		Path:     path,
		Force:    force,
	}, nil
}

// FetchFeed refreshes the schedule file from the GTFS feed.
func (a *App) FetchFeed(ctx context.Context, force bool) (feed.Result, error) {
	opts, err := a.FeedOptions(force)
	if err != nil {
		return feed.Result{}, err
	}
	res, err := a.Feed.Refresh(ctx, opts, time.Now())
	switch {
	case err != nil:
		a.Metrics.ObserveFeed(metrics.ResultError, 0)
	case res.Skipped:
		a.Metrics.ObserveFeed(metrics.ResultSkipped, 0)
	default:
		a.Metrics.ObserveFeed(metrics.ResultOK, res.Bytes)
	}
	return res, err
}

// Reload fetches and applies the schedule once.
func (a *App) Reload(ctx context.Context) (source.Report, error) {
	return a.Refresher.Trigger(ctx)
}

func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
