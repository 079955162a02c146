package service

import (
	"chessrush/internal/cache"
	"chessrush/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// StatsSource supplies raw opening statistics for a position
type StatsSource interface {
	Fetch(ctx context.Context, fen string, q model.ExplorerQuery) (*model.ExplorerResponse, error)
}

// CacheObserver is notified of cache hits and misses
type CacheObserver interface {
	CacheHit(cache string)
	CacheMiss(cache string)
}

// ExplorerClient wraps the Lichess opening explorer API
type ExplorerClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	log        zerolog.Logger
}

// NewExplorerClient creates a new opening explorer client
func NewExplorerClient(baseURL, token string, timeout time.Duration, log zerolog.Logger) *ExplorerClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ExplorerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: 1,
		backoff:    time.Second,
		log:        log,
	}
}

// SetRetry sets how many times a rate-limited request is tried and the
// initial backoff, which doubles after every 429
func (c *ExplorerClient) SetRetry(maxRetries int, backoff time.Duration) {
	if maxRetries < 1 {
		maxRetries = 1
	}
	c.maxRetries = maxRetries
	c.backoff = backoff
}

// Fetch calls GET /lichess for a position
func (c *ExplorerClient) Fetch(ctx context.Context, fen string, q model.ExplorerQuery) (*model.ExplorerResponse, error) {
	endpoint := c.baseURL + "/lichess?" + explorerParams(fen, q).Encode()

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff << (attempt - 1)
			c.log.Warn().Str("fen", fen).Int("attempt", attempt+1).Dur("backoff", wait).Msg("explorer rate limited, retrying")
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUpstream, ctx.Err())
			case <-time.After(wait):
			}
		}

		body, status, err := c.get(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		c.log.Debug().Str("fen", fen).Int("status", status).Int("bytes", len(body)).Msg("explorer response")

		if status == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited")
			continue
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("%w: status %d", ErrUpstream, status)
		}

		var result model.ExplorerResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
		}
		for i := range result.Moves {
			result.Moves[i].UCI = standardCastling(result.Moves[i].UCI, result.Moves[i].SAN)
		}
		return &result, nil
	}

	return nil, fmt.Errorf("%w: max retries exceeded: %v", ErrUpstream, lastErr)
}

func (c *ExplorerClient) get(ctx context.Context, endpoint string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func explorerParams(fen string, q model.ExplorerQuery) url.Values {
	params := url.Values{}
	params.Set("fen", fen)
	if q.Moves > 0 {
		params.Set("moves", strconv.Itoa(q.Moves))
	}
	if len(q.Speeds) > 0 {
		params.Set("speeds", strings.Join(q.Speeds, ","))
	}
	if len(q.Ratings) > 0 {
		ratings := make([]string, len(q.Ratings))
		for i, r := range q.Ratings {
			ratings[i] = strconv.Itoa(r)
		}
		params.Set("ratings", strings.Join(ratings, ","))
	}
	return params
}

// king-takes-rook castling, as the explorer reports it, to standard UCI
var castlingUCI = map[string]string{
	"e1h1": "e1g1",
	"e1a1": "e1c1",
	"e8h8": "e8g8",
	"e8a8": "e8c8",
}

func standardCastling(uci, san string) string {
	if !strings.HasPrefix(san, "O-O") {
		return uci
	}
	if std, ok := castlingUCI[uci]; ok {
		return std
	}
	return uci
}

// CachedSource serves explorer responses from Redis when possible
type CachedSource struct {
	source StatsSource
	cache  cache.ExplorerCache
	obs    CacheObserver
	log    zerolog.Logger
}

// NewCachedSource wraps source with a response cache. obs may be nil.
func NewCachedSource(source StatsSource, c cache.ExplorerCache, obs CacheObserver, log zerolog.Logger) *CachedSource {
	return &CachedSource{source: source, cache: c, obs: obs, log: log}
}

// Fetch returns the cached response or fetches and stores a fresh one.
// Cache failures are logged and bypassed.
func (s *CachedSource) Fetch(ctx context.Context, fen string, q model.ExplorerQuery) (*model.ExplorerResponse, error) {
	cached, err := s.cache.Get(ctx, fen, q)
	if err != nil {
		s.log.Warn().Err(err).Str("fen", fen).Msg("explorer cache read failed")
	}
	if cached != nil {
		if s.obs != nil {
			s.obs.CacheHit("explorer")
		}
		return cached, nil
	}
	if s.obs != nil {
		s.obs.CacheMiss("explorer")
	}

	resp, err := s.source.Fetch(ctx, fen, q)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, fen, q, resp); err != nil {
		s.log.Warn().Err(err).Str("fen", fen).Msg("explorer cache write failed")
	}
	return resp, nil
}
