package vend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pearcestephens/stocklink-backend/pkg/config"
	pkgerrors "github.com/pearcestephens/stocklink-backend/pkg/errors"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
)

const (
	defaultMaxRetries = 3
	defaultBaseWait   = 500 * time.Millisecond
	defaultPageSize   = 200
	jitterWindow      = 250 * time.Millisecond
)

var (
	errTokenRequired   = errors.New("vend api token is required")
	errBaseURLRequired = errors.New("vend base url is required")
	errLoggerRequired  = errors.New("vend logger is required")
)

// retryableStatuses are the responses worth another attempt with backoff.
var retryableStatuses = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// APIError carries the decoded remote error body alongside the HTTP status.
type APIError struct {
	StatusCode int
	Method     string
	Endpoint   string
	Remote     string
	Attempts   int
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("vend %s %s: status %d", e.Method, e.Endpoint, e.StatusCode)
	if e.Remote != "" {
		msg += ": " + e.Remote
	}
	return msg
}

// Client talks to the remote point-of-sale API with centralized auth,
// retry/backoff, logging and error mapping.
type Client struct {
	baseURL       string
	token         string
	webhookSecret string
	httpClient    *http.Client
	maxRetries    int
	baseWait      time.Duration
	pageSize      int
	logger        *logger.Logger

	// sleep is injectable so tests can skip real backoff waits.
	sleep  func(context.Context, time.Duration) error
	jitter *rand.Rand
}

// NewClient validates the credentials and builds the API wrapper.
func NewClient(ctx context.Context, cfg config.VendConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errTokenRequired
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	baseWait := cfg.RetryBaseWait
	if baseWait <= 0 {
		baseWait = defaultBaseWait
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL:       baseURL,
		token:         token,
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		httpClient:    &http.Client{Timeout: timeout},
		maxRetries:    maxRetries,
		baseWait:      baseWait,
		pageSize:      pageSize,
		logger:        logg,
		sleep:         sleepContext,
		jitter:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	logg.Info(ctx, "vend client initialized")
	return c, nil
}

// SigningSecret returns the webhook HMAC secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// PageSize reports the configured list page size.
func (c *Client) PageSize() int {
	if c == nil {
		return defaultPageSize
	}
	return c.pageSize
}

// Request performs one authenticated call with retry/backoff. Retries cover
// 429 and 5xx; other 4xx fail immediately with the decoded error body.
func (c *Client) Request(ctx context.Context, method, endpoint string, body any, params url.Values) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "encode request body")
		}
		payload = encoded
	}

	target := c.baseURL + endpoint
	if len(params) > 0 {
		target = target + "?" + params.Encode()
	}

	attempts := c.maxRetries + 1
	start := time.Now()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		raw, status, err := c.doOnce(ctx, method, target, payload)
		if err == nil && status < 400 {
			c.log(ctx, "response", method, endpoint, map[string]any{
				"status":      status,
				"attempt":     attempt,
				"duration_ms": time.Since(start).Milliseconds(),
			})
			return raw, nil
		}

		if err != nil {
			// Transport-level failure: retry unless the context is done.
			lastErr = err
			if ctx.Err() != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), fmt.Sprintf("vend %s %s canceled", method, endpoint))
			}
		} else {
			apiErr := &APIError{
				StatusCode: status,
				Method:     method,
				Endpoint:   endpoint,
				Remote:     decodeRemoteError(raw),
				Attempts:   attempt,
			}
			lastErr = apiErr
			if _, retryable := retryableStatuses[status]; !retryable {
				c.log(ctx, "error", method, endpoint, map[string]any{
					"status":  status,
					"attempt": attempt,
					"error":   apiErr.Error(),
				})
				return nil, c.mapError(apiErr)
			}
		}

		if attempt == attempts {
			break
		}

		wait := c.backoff(attempt)
		c.log(ctx, "retry", method, endpoint, map[string]any{
			"attempt":  attempt,
			"wait_ms":  wait.Milliseconds(),
			"error":    lastErr.Error(),
		})
		if err := c.sleep(ctx, wait); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("vend %s %s canceled", method, endpoint))
		}
	}

	c.log(ctx, "error", method, endpoint, map[string]any{
		"attempt":     attempts,
		"duration_ms": time.Since(start).Milliseconds(),
		"error":       lastErr.Error(),
	})
	return nil, c.mapError(lastErr)
}

// FetchPaginated streams list pages through pageFn until the server returns an
// empty page or the cursor stops advancing. Pages are never buffered whole.
func (c *Client) FetchPaginated(ctx context.Context, endpoint string, params url.Values, pageFn func(Page) error) error {
	if pageFn == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "page callback is required")
	}

	query := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	query.Set("page_size", strconv.Itoa(c.pageSize))

	after := query.Get("after")
	for pageNum := 1; ; pageNum++ {
		raw, err := c.Request(ctx, http.MethodGet, endpoint, nil, query)
		if err != nil {
			return err
		}

		var list ListResponse
		if err := json.Unmarshal(raw, &list); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s page %d", endpoint, pageNum))
		}
		if len(list.Data) == 0 {
			return nil
		}

		if err := pageFn(Page{Records: list.Data, MaxVersion: list.Version.Max, Number: pageNum}); err != nil {
			return err
		}

		next := strconv.FormatInt(list.Version.Max, 10)
		if list.Version.Max <= 0 || next == after {
			return nil
		}
		after = next
		query.Set("after", after)
	}
}

func (c *Client) doOnce(ctx context.Context, method, target string, payload []byte) (json.RawMessage, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return raw, resp.StatusCode, nil
}

func (c *Client) backoff(attempt int) time.Duration {
	wait := c.baseWait * time.Duration(1<<(attempt-1))
	return wait + time.Duration(c.jitter.Int63n(int64(jitterWindow)))
}

func (c *Client) mapError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return pkgerrors.Wrap(domainCodeForStatus(apiErr.StatusCode), apiErr, "vend request failed")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "vend request failed")
}

func (c *Client) log(ctx context.Context, phase, method, endpoint string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"phase":    phase,
		"method":   method,
		"endpoint": endpoint,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, "vend request failed", errors.New(fmt.Sprint(fields["error"])))
	case "retry":
		c.logger.Warn(ctx, "vend request retrying")
	default:
		c.logger.Info(ctx, "vend request ok")
	}
}

func decodeRemoteError(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(raw))
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
