package github

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/devscout/internal/apperr"
	"github.com/spigell/devscout/internal/utils"
)

const (
	apiVersion      = "2022-11-28"
	contentEncoding = "gzip"
	maxErrorBody    = 512
)

// StatusError is an unexpected HTTP status from GitHub.
type StatusError struct {
	Code    int
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("bad status: %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("bad status: %s", e.Status)
}

// getJSON performs a GET through the gate, retrying transient failures with exponential backoff.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, q url.Values, target any) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = c.getOnce(ctx, endpoint, path, q, target)
		if err == nil || !retryable(err) || attempt >= c.maxRetries {
			return err
		}

		delay := utils.Backoff(backoffBase, attempt, backoffLimit)
		c.logger.Debug("retrying github request",
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if werr := wait(ctx, delay); werr != nil {
			return werr
		}
	}
}

func (c *Client) getOnce(ctx context.Context, endpoint, path string, q url.Values, target any) error {
	if c.gate != nil {
		if err := c.gate.Acquire(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.APIURL, "/")+path, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	c.logger.Debug("make request", zap.String("url", req.URL.String()))

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.rec.UpstreamRequest(endpoint, 0, time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return apperr.Transient(endpoint, err)
	}
	defer resp.Body.Close()
	c.rec.UpstreamRequest(endpoint, resp.StatusCode, time.Since(start))

	if c.gate != nil {
		c.gate.Observe(resp.Header)
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == contentEncoding {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return apperr.Transient(endpoint, err)
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return apperr.Transient(endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		return c.statusError(endpoint, path, resp, data)
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	return nil
}

func (c *Client) statusError(endpoint, path string, resp *http.Response, body []byte) error {
	serr := &StatusError{Code: resp.StatusCode, Status: resp.Status, Message: errorMessage(body)}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperr.NotFound("github %s", strings.TrimPrefix(path, "/"))
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		if retryAfter, limited := rateLimited(resp, serr.Message); limited {
			return &apperr.RateLimitError{Source: "github", RetryAfter: retryAfter}
		}
		return fmt.Errorf("%s: %w", endpoint, serr)
	case resp.StatusCode >= http.StatusInternalServerError:
		return apperr.Transient(endpoint, serr)
	default:
		return fmt.Errorf("%s: %w", endpoint, serr)
	}
}

// rateLimited reports whether a 403/429 is a quota rejection and how long to wait.
func rateLimited(resp *http.Response, message string) (time.Duration, bool) {
	if raw := strings.TrimSpace(resp.Header.Get("Retry-After")); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil {
			return time.Duration(secs) * time.Second, true
		}
	}

	exhausted := strings.TrimSpace(resp.Header.Get("X-Ratelimit-Remaining")) == "0"
	if !exhausted && resp.StatusCode == http.StatusForbidden && !strings.Contains(strings.ToLower(message), "rate limit") {
		return 0, false
	}

	if raw := strings.TrimSpace(resp.Header.Get("X-Ratelimit-Reset")); raw != "" {
		if reset, err := strconv.ParseInt(raw, 10, 64); err == nil {
			if d := time.Until(time.Unix(reset, 0)); d > 0 {
				return d, true
			}
		}
	}
	return 0, true
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return msg
}

func retryable(err error) bool {
	if !errors.Is(err, apperr.ErrTransient) {
		return false
	}
	var serr *StatusError
	if errors.As(err, &serr) {
		return serr.Code >= http.StatusInternalServerError
	}
	return true
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
}
