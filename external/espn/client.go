package espn

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/scorethread/scorethread/internal/domain/game"
	"github.com/scorethread/scorethread/internal/platform/logging"
	"github.com/scorethread/scorethread/internal/platform/resilience"
	"github.com/scorethread/scorethread/internal/usecase"
)

const (
	defaultBaseURL   = "https://site.api.espn.com/apis/site/v2/sports/football/college-football"
	defaultGroup     = "80" // FBS; 81 is FCS
	scoreboardFormat = "20060102"
)

var errESPNTransient = crerr.New("espn transient failure")

// QueryRecorder audits every upstream call. Recording failures are the
// recorder's problem; they must not surface into the fetch path.
type QueryRecorder interface {
	RecordQuery(ctx context.Context, url string, statusCode int)
}

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	Recorder       QueryRecorder
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	logger         *logging.Logger
	recorder       QueryRecorder
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		recorder:       cfg.Recorder,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) FetchScoreboardGames(ctx context.Context, date time.Time, group string) ([]game.Game, error) {
	group = strings.TrimSpace(group)
	if group == "" {
		group = defaultGroup
	}

	query := url.Values{}
	query.Set("dates", date.UTC().Format(scoreboardFormat))
	query.Set("groups", group)

	var doc scoreboardDoc
	if err := c.doJSON(ctx, "/scoreboard", query, &doc); err != nil {
		return nil, fmt.Errorf("fetch scoreboard date=%s group=%s: %w", date.UTC().Format(scoreboardFormat), group, err)
	}

	return parseScoreboardGames(doc), nil
}

func (c *Client) FetchScoringEvents(ctx context.Context, gameID string) ([]usecase.ScoringEvent, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return nil, fmt.Errorf("game id is required")
	}

	query := url.Values{}
	query.Set("event", gameID)

	var doc summaryDoc
	if err := c.doJSON(ctx, "/summary", query, &doc); err != nil {
		return nil, fmt.Errorf("fetch game summary game_id=%s: %w", gameID, err)
	}

	return extractScoringEvents(doc), nil
}

func (c *Client) FetchTeamStreak(ctx context.Context, teamID string) (string, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return "", fmt.Errorf("team id is required")
	}

	var doc teamDoc
	if err := c.doJSON(ctx, "/teams/"+url.PathEscape(teamID), nil, &doc); err != nil {
		return "", fmt.Errorf("fetch team team_id=%s: %w", teamID, err)
	}

	return parseTeamStreak(doc), nil
}

func (c *Client) doJSON(ctx context.Context, path string, query url.Values, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "espn circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("score data provider is temporarily unavailable: %w", err)
		}
	}

	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errESPNTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode espn payload: %w", err)
	}

	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.record(ctx, fullURL, 0)
			lastErr = crerr.Wrapf(errESPNTransient, "send request: %v", err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
			_ = resp.Body.Close()
			c.record(ctx, fullURL, resp.StatusCode)
			if readErr != nil {
				lastErr = crerr.Wrapf(errESPNTransient, "read response body: %v", readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = crerr.Wrapf(errESPNTransient, "espn status=%d", resp.StatusCode)
			} else {
				return nil, fmt.Errorf("espn status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("espn request failed")
	}
	c.logger.WarnContext(ctx, "espn request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) record(ctx context.Context, url string, statusCode int) {
	if c.recorder == nil {
		return
	}
	c.recorder.RecordQuery(ctx, url, statusCode)
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func abbreviateBody(raw []byte) string {
	const max = 256
	text := strings.TrimSpace(string(raw))
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
