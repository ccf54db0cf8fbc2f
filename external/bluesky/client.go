package bluesky

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/scorethread/scorethread/internal/domain/post"
	"github.com/scorethread/scorethread/internal/platform/logging"
	"github.com/scorethread/scorethread/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const (
	defaultServiceURL = "https://bsky.social"
	postCollection    = "app.bsky.feed.post"

	createSessionPath  = "/xrpc/com.atproto.server.createSession"
	refreshSessionPath = "/xrpc/com.atproto.server.refreshSession"
	createRecordPath   = "/xrpc/com.atproto.repo.createRecord"
)

var errBlueskyAuth = crerr.New("bluesky auth failure")

type ClientConfig struct {
	HTTPClient *http.Client
	ServiceURL string
	Identifier string
	Password   string
	Timeout    time.Duration
	Logger     *logging.Logger
}

// Client publishes posts through the atproto XRPC surface. Sessions are
// created lazily and refreshed once on token expiry; credential storage
// beyond process lifetime is out of scope.
type Client struct {
	httpClient *http.Client
	serviceURL string
	identifier string
	password   string
	logger     *logging.Logger
	now        func() time.Time

	mu      sync.Mutex
	session *session
}

type session struct {
	DID        string `json:"did"`
	AccessJWT  string `json:"accessJwt"`
	RefreshJWT string `json:"refreshJwt"`
}

type createRecordResponse struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

type xrpcError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
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

	serviceURL := strings.TrimRight(strings.TrimSpace(cfg.ServiceURL), "/")
	if serviceURL == "" {
		serviceURL = defaultServiceURL
	}

	return &Client{
		httpClient: httpClient,
		serviceURL: serviceURL,
		identifier: strings.TrimSpace(cfg.Identifier),
		password:   cfg.Password,
		logger:     logger,
		now:        time.Now,
	}
}

// Publish creates a post, replying under reply when it is set. The returned
// ref is the stable external identity pair persisted alongside the post row.
func (c *Client) Publish(ctx context.Context, text string, reply *usecase.ReplyRefs) (post.Ref, error) {
	if strings.TrimSpace(text) == "" {
		return post.Ref{}, fmt.Errorf("post text is required")
	}

	current, err := c.ensureSession(ctx)
	if err != nil {
		return post.Ref{}, err
	}

	record := map[string]any{
		"$type":     postCollection,
		"text":      text,
		"createdAt": c.now().UTC().Format(time.RFC3339),
	}
	if reply != nil {
		record["reply"] = map[string]any{
			"root":   map[string]string{"uri": reply.Root.URI, "cid": reply.Root.CID},
			"parent": map[string]string{"uri": reply.Parent.URI, "cid": reply.Parent.CID},
		}
	}

	payload := map[string]any{
		"repo":       current.DID,
		"collection": postCollection,
		"record":     record,
	}

	var out createRecordResponse
	err = c.doJSON(ctx, createRecordPath, current.AccessJWT, payload, &out)
	if crerr.Is(err, errBlueskyAuth) {
		// One transparent refresh covers access-token expiry mid-run.
		current, err = c.refreshSession(ctx)
		if err != nil {
			return post.Ref{}, err
		}
		payload["repo"] = current.DID
		err = c.doJSON(ctx, createRecordPath, current.AccessJWT, payload, &out)
	}
	if err != nil {
		return post.Ref{}, fmt.Errorf("create record: %w", err)
	}
	if out.URI == "" || out.CID == "" {
		return post.Ref{}, fmt.Errorf("publisher returned incomplete record identity: uri=%q cid=%q", out.URI, out.CID)
	}

	return post.Ref{URI: out.URI, CID: out.CID}, nil
}

func (c *Client) ensureSession(ctx context.Context) (session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return *c.session, nil
	}

	if c.identifier == "" || c.password == "" {
		return session{}, crerr.Wrap(errBlueskyAuth, "identifier and password are required")
	}

	var created session
	err := c.doJSON(ctx, createSessionPath, "", map[string]string{
		"identifier": c.identifier,
		"password":   c.password,
	}, &created)
	if err != nil {
		return session{}, fmt.Errorf("create session: %w", err)
	}

	c.session = &created
	return created, nil
}

func (c *Client) refreshSession(ctx context.Context) (session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || c.session.RefreshJWT == "" {
		return session{}, crerr.Wrap(errBlueskyAuth, "no session to refresh")
	}

	var refreshed session
	if err := c.doJSON(ctx, refreshSessionPath, c.session.RefreshJWT, nil, &refreshed); err != nil {
		c.session = nil
		return session{}, fmt.Errorf("refresh session: %w", err)
	}

	c.session = &refreshed
	return refreshed, nil
}

func (c *Client) doJSON(ctx context.Context, path, bearer string, payload, target any) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if payload != nil {
		raw, err := sonic.Marshal(payload)
		if err != nil {
			return crerr.Wrap(err, "marshal request payload")
		}
		_, _ = buf.Write(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL+path, bytes.NewReader(buf.B))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		var xerr xrpcError
		if decodeErr := sonic.Unmarshal(raw, &xerr); decodeErr == nil && isAuthError(resp.StatusCode, xerr.Error) {
			c.logger.WarnContext(ctx, "bluesky auth rejected", "path", path, "code", xerr.Error)
			return crerr.Wrapf(errBlueskyAuth, "%s: %s", xerr.Error, xerr.Message)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("bluesky status=%d body=%s", resp.StatusCode, truncateForLog(raw, 256))
	}

	if target == nil {
		return nil
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode bluesky payload: %w", err)
	}
	return nil
}

func isAuthError(statusCode int, code string) bool {
	if statusCode == http.StatusUnauthorized {
		return true
	}
	switch code {
	case "ExpiredToken", "InvalidToken", "AuthenticationRequired":
		return true
	default:
		return false
	}
}

func truncateForLog(raw []byte, max int) string {
	text := strings.TrimSpace(string(raw))
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}
