package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"animehub/internal/apperr"
	"animehub/pkg/models"
)

const (
	DefaultURL      = "https://graphql.anilist.co"
	DefaultPageSize = 20

	// Retry configuration
	initialDelay = 1 * time.Second
	maxDelay     = 32 * time.Second

	maxResponseBytes = 4 << 20
)

// mediaFields is the field set every query selects.
const mediaFields = `
            id
            title {
                romaji
                english
                native
            }
            coverImage {
                large
                extraLarge
            }
            bannerImage
            description
            averageScore
            episodes
            genres
            seasonYear
            status
            format`

var (
	trendingQuery = `
    query ($page: Int, $perPage: Int) {
        Page(page: $page, perPage: $perPage) {
            media(type: ANIME, sort: TRENDING_DESC) {` + mediaFields + `
            }
        }
    }`

	searchQuery = `
    query ($page: Int, $perPage: Int, $search: String) {
        Page(page: $page, perPage: $perPage) {
            media(type: ANIME, search: $search, sort: SEARCH_MATCH) {` + mediaFields + `
            }
        }
    }`

	byIDQuery = `
    query ($id: Int) {
        Media(id: $id, type: ANIME) {` + mediaFields + `
        }
    }`
)

// ClientConfig configures the GraphQL transport. Zero values fall back to
// the AniList defaults.
type ClientConfig struct {
	URL        string
	Timeout    time.Duration
	RateLimit  float64 // requests per second
	RateBurst  int
	MaxRetries int
	PageSize   int
	HTTPClient *http.Client
}

// Client handles GraphQL API requests with rate limiting
type Client struct {
	apiURL      string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	maxRetries  int
	pageSize    int
	logger      *zap.Logger
}

// NewClient creates a new AniList API client
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1
	}
	if cfg.RateBurst < 1 {
		cfg.RateBurst = 5
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiURL:      cfg.URL,
		httpClient:  httpClient,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		maxRetries:  cfg.MaxRetries,
		pageSize:    cfg.PageSize,
		logger:      logger.Named("catalog"),
	}
}

// GraphQLRequest represents a GraphQL query request
type GraphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// GraphQLResponse represents a GraphQL response
type GraphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// GraphQLError represents a GraphQL error
type GraphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

// Trending fetches the first page of anime sorted by trending score
func (c *Client) Trending(ctx context.Context) ([]models.Anime, error) {
	variables := map[string]any{
		"page":    1,
		"perPage": c.pageSize,
	}

	var result PageResponse
	if err := c.doRequest(ctx, trendingQuery, variables, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch trending anime: %w", err)
	}
	return NormalizeAll(result.Page.Media), nil
}

// Search fetches the first page of anime matching query
func (c *Client) Search(ctx context.Context, query string) ([]models.Anime, error) {
	variables := map[string]any{
		"page":    1,
		"perPage": c.pageSize,
		"search":  query,
	}

	var result PageResponse
	if err := c.doRequest(ctx, searchQuery, variables, &result); err != nil {
		return nil, fmt.Errorf("failed to search anime: %w", err)
	}
	return NormalizeAll(result.Page.Media), nil
}

// ByID fetches a single anime. A missing entry is reported as (nil, nil).
func (c *Client) ByID(ctx context.Context, id int) (*models.Anime, error) {
	var result MediaResponse
	if err := c.doRequest(ctx, byIDQuery, map[string]any{"id": id}, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch anime %d: %w", id, err)
	}
	if result.Media == nil {
		return nil, nil
	}
	anime := Normalize(*result.Media)
	return &anime, nil
}

// doRequest performs a GraphQL request with rate limiting and retry logic.
// Every failure comes back as a TransportFailure.
func (c *Client) doRequest(ctx context.Context, query string, variables map[string]any, result any) error {
	bodyJSON, err := json.Marshal(GraphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return apperr.Wrap(apperr.CodeTransportFailure, "failed to marshal request", err)
	}

	var lastErr error
	delay := initialDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("request_retry",
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", c.maxRetries+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			if err := sleepCtx(ctx, delay); err != nil {
				return apperr.Wrap(apperr.CodeTransportFailure, "request cancelled", err)
			}
			delay = min(delay*2, maxDelay)
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return apperr.Wrap(apperr.CodeTransportFailure, "rate limiter error", err)
		}

		status, respBody, retryAfter, err := c.post(ctx, bodyJSON)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if status != http.StatusOK {
			lastErr = fmt.Errorf("HTTP %d: %s", status, truncate(respBody, 256))
			if shouldRetry(status) {
				if retryAfter >= 0 {
					delay = retryAfter
				}
				continue
			}
			return apperr.Wrap(apperr.CodeTransportFailure, "catalog request failed", lastErr)
		}

		var gqlResp GraphQLResponse
		if err := json.Unmarshal(respBody, &gqlResp); err != nil {
			return apperr.Wrap(apperr.CodeTransportFailure, "failed to parse GraphQL response", err)
		}

		if len(gqlResp.Errors) > 0 {
			errMsgs := make([]string, len(gqlResp.Errors))
			for i, e := range gqlResp.Errors {
				errMsgs[i] = e.Message
			}
			return apperr.Wrap(apperr.CodeTransportFailure, "catalog returned errors",
				fmt.Errorf("GraphQL errors: %s", strings.Join(errMsgs, "; ")))
		}

		if err := json.Unmarshal(gqlResp.Data, result); err != nil {
			return apperr.Wrap(apperr.CodeTransportFailure, "failed to parse data", err)
		}
		return nil
	}

	return apperr.Wrap(apperr.CodeTransportFailure,
		fmt.Sprintf("request failed after %d attempts", c.maxRetries+1), lastErr)
}

// post sends one request and reads the whole body. retryAfter is negative
// when the server sent no Retry-After header.
func (c *Client) post(ctx context.Context, body []byte) (int, []byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return 0, nil, -1, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, -1, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, -1, fmt.Errorf("failed to read response: %w", err)
	}

	retryAfter := time.Duration(-1)
	if v := resp.Header.Get("Retry-After"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			retryAfter = min(d, maxDelay)
		}
	}
	return resp.StatusCode, respBody, retryAfter, nil
}

// shouldRetry determines if an HTTP status code warrants a retry
func shouldRetry(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || // 429
		statusCode >= 500 // 500-504
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
