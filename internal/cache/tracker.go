package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/ShayCichocki/ticketsmith/internal/tracker"
)

var _ tracker.Tracker = (*Tracker)(nil)

// Tracker serves project and issue-type listings from the cache and passes
// every other call through. Cache errors are logged and never fail a call.
type Tracker struct {
	tracker.Tracker

	db     *DB
	server string
	ttl    time.Duration
	logger *slog.Logger
}

// Wrap decorates t with the cache. server scopes the entries so several
// Jira instances can share one database.
func Wrap(t tracker.Tracker, db *DB, server string, ttl time.Duration, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{Tracker: t, db: db, server: server, ttl: ttl, logger: logger}
}

// Projects implements tracker.Tracker.
func (c *Tracker) Projects(ctx context.Context) ([]tracker.Project, error) {
	cached, ok, err := c.db.Projects(c.server, c.ttl)
	if err != nil {
		c.logger.Warn("read project cache", "error", err)
	}
	if ok {
		c.logger.Debug("projects served from cache", "count", len(cached))
		return cached, nil
	}

	projects, err := c.Tracker.Projects(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.db.SaveProjects(c.server, projects); err != nil {
		c.logger.Warn("write project cache", "error", err)
	}
	return projects, nil
}

// IssueTypes implements tracker.Tracker.
func (c *Tracker) IssueTypes(ctx context.Context, projectKey string) ([]tracker.IssueType, error) {
	cached, ok, err := c.db.IssueTypes(c.server, projectKey, c.ttl)
	if err != nil {
		c.logger.Warn("read issue type cache", "project", projectKey, "error", err)
	}
	if ok {
		c.logger.Debug("issue types served from cache", "project", projectKey, "count", len(cached))
		return cached, nil
	}

	types, err := c.Tracker.IssueTypes(ctx, projectKey)
	if err != nil {
		return nil, err
	}
	if err := c.db.SaveIssueTypes(c.server, projectKey, types); err != nil {
		c.logger.Warn("write issue type cache", "project", projectKey, "error", err)
	}
	return types, nil
}
