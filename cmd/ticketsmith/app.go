package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/ticketsmith/internal/api"
	"github.com/ShayCichocki/ticketsmith/internal/cache"
	"github.com/ShayCichocki/ticketsmith/internal/config"
	"github.com/ShayCichocki/ticketsmith/internal/draft"
	"github.com/ShayCichocki/ticketsmith/internal/logging"
	"github.com/ShayCichocki/ticketsmith/internal/pipeline"
	"github.com/ShayCichocki/ticketsmith/internal/tracker"
)

// app holds what a command builds from configuration.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *api.Client
	closers []io.Closer
}

// newApp loads configuration and sets up logging. stderr additionally logs
// to stderr when --verbose is set.
func newApp(stderr bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Log.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	logger, closer, err := logging.New(logging.Options{
		Level:  level,
		File:   cfg.LogPath(),
		Stderr: stderr && flagVerbose,
	})
	if err != nil {
		return nil, fmt.Errorf("set up logging: %w", err)
	}

	return &app{cfg: cfg, logger: logger, closers: []io.Closer{closer}}, nil
}

// generator returns the Anthropic client, creating it on first use.
func (a *app) generator() (*api.Client, error) {
	if a.client != nil {
		return a.client, nil
	}

	cc := api.ClientConfig{
		Model:         anthropic.Model(a.cfg.Anthropic.Model),
		MaxTokens:     a.cfg.Anthropic.MaxTokens,
		Temperature:   a.cfg.Anthropic.Temperature,
		BaseURL:       a.cfg.Anthropic.BaseURL,
		UseAWSBedrock: a.cfg.Anthropic.UseBedrock,
		AWSRegion:     a.cfg.Anthropic.AWSRegion,
		AWSProfile:    a.cfg.Anthropic.AWSProfile,
	}
	if !cc.UseAWSBedrock {
		key, err := config.GetAPIKey(a.cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY or run `ticketsmith config anthropic.api_key <key>`", err)
		}
		cc.APIKey = key
	}

	client, err := api.NewClient(cc)
	if err != nil {
		return nil, fmt.Errorf("create API client: %w", err)
	}
	a.logger.Debug("generation client ready", "model", string(client.Model()), "bedrock", cc.UseAWSBedrock)
	a.client = client
	return client, nil
}

// pipeline builds a draft pipeline. onChunk may be nil. generator must have
// succeeded first.
func (a *app) pipeline(onChunk func(string)) *pipeline.Pipeline {
	opts := []draft.Option{draft.WithLogger(a.logger)}
	if onChunk != nil {
		opts = append(opts, draft.WithProgress(onChunk))
	}
	return pipeline.New(draft.New(a.client, opts...), a.logger)
}

// tracker builds the Jira client, fronted by the metadata cache when
// enabled and useCache is set. A cache that cannot be opened is skipped.
func (a *app) tracker(useCache bool) (tracker.Tracker, error) {
	if err := a.cfg.ValidateTracker(); err != nil {
		return nil, fmt.Errorf("%w: run `ticketsmith config jira.<key> <value>` or set JIRA_SERVER_URL, JIRA_EMAIL and JIRA_API_TOKEN", err)
	}

	jira, err := tracker.NewJira(tracker.JiraConfig{
		ServerURL: a.cfg.Jira.ServerURL,
		Email:     a.cfg.Jira.Email,
		APIToken:  a.cfg.Jira.APIToken,
	})
	if err != nil {
		return nil, err
	}
	if !useCache || !a.cfg.Cache.Enabled {
		return jira, nil
	}

	db, err := cache.Open(a.cfg.CachePath())
	if err != nil {
		a.logger.Warn("metadata cache unavailable", "path", a.cfg.CachePath(), "error", err)
		return jira, nil
	}
	a.closers = append(a.closers, db)
	return cache.Wrap(jira, db, a.cfg.Jira.ServerURL, a.cfg.Cache.TTL, a.logger), nil
}

func (a *app) commitOptions() tracker.CommitOptions {
	return tracker.CommitOptions{
		LinkType:          a.cfg.Jira.LinkType,
		MapExtendedFields: a.cfg.Jira.MapExtendedFields,
		Logger:            a.logger,
	}
}

// Close releases the cache and log file.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i].Close()
	}
}
