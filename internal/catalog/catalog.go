// Package catalog is the read-only client for the remote anime catalog.
//
// Client speaks GraphQL to AniList and reports every failure. Catalog wraps
// any Source with the fail-soft policy the presentation layer relies on:
// failures are logged and turn into an empty list.
package catalog

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"animehub/pkg/models"
)

// Source is the remote catalog as seen by the fail-soft layer.
type Source interface {
	Trending(ctx context.Context) ([]models.Anime, error)
	Search(ctx context.Context, query string) ([]models.Anime, error)
	ByID(ctx context.Context, id int) (*models.Anime, error)
}

var _ Source = (*Client)(nil)

type Catalog struct {
	source Source
	logger *zap.Logger
}

func New(source Source, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{source: source, logger: logger.Named("catalog")}
}

// FetchTrending returns the trending page, or an empty list on any failure.
func (c *Catalog) FetchTrending(ctx context.Context) []models.Anime {
	items, err := c.source.Trending(ctx)
	if err != nil {
		c.logFailure("trending_failed", err)
		return []models.Anime{}
	}
	return nonNil(items)
}

// Search returns matches for query, or an empty list on any failure. A blank
// query means "no search" and is served by FetchTrending.
func (c *Catalog) Search(ctx context.Context, query string) []models.Anime {
	query = strings.TrimSpace(query)
	if query == "" {
		return c.FetchTrending(ctx)
	}

	items, err := c.source.Search(ctx, query)
	if err != nil {
		c.logFailure("search_failed", err, zap.String("query", query))
		return []models.Anime{}
	}
	return nonNil(items)
}

// Lookup fetches one entry by id. ok is false when it is missing or the
// request failed.
func (c *Catalog) Lookup(ctx context.Context, id int) (models.Anime, bool) {
	anime, err := c.source.ByID(ctx, id)
	if err != nil {
		c.logFailure("lookup_failed", err, zap.Int("id", id))
		return models.Anime{}, false
	}
	if anime == nil {
		return models.Anime{}, false
	}
	return *anime, true
}

func (c *Catalog) logFailure(event string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	// superseded requests are expected, not failures
	if errors.Is(err, context.Canceled) {
		c.logger.Debug(event, fields...)
		return
	}
	c.logger.Warn(event, fields...)
}

func nonNil(items []models.Anime) []models.Anime {
	if items == nil {
		return []models.Anime{}
	}
	return items
}
