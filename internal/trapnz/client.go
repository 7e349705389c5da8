package trapnz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/kahurangi/trapnz-mirror/internal/logging"
	"github.com/kahurangi/trapnz-mirror/internal/model"
	"go.uber.org/zap"
)

// ClientConfig holds live API client settings
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Client is the live Source implementation. Network failures and
// non-2xx responses are logged and surface as no-data; malformed
// items are skipped one by one so a single bad payload never sinks a
// whole fetch.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a live API client
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// GetLine fetches a single line by uuid
func (c *Client) GetLine(ctx context.Context, lineUUID string) (*model.Line, error) {
	reqLogger := logging.WithRequestID(c.logger, uuid.New().String())

	body, ok := c.get(ctx, reqLogger, fmt.Sprintf("%s/lines/%s", c.baseURL, url.PathEscape(lineUUID)))
	if !ok {
		return nil, nil
	}

	line, err := model.DecodeLine(body)
	if err != nil {
		reqLogger.Warn("discarding malformed line payload",
			zap.String("line_uuid", lineUUID),
			zap.Error(err),
		)
		return nil, nil
	}
	return line, nil
}

// GetTrapsByLine fetches all traps on a line
func (c *Client) GetTrapsByLine(ctx context.Context, lineUUID string) ([]model.Trap, error) {
	reqLogger := logging.WithRequestID(c.logger, uuid.New().String())

	query := url.Values{"line": {lineUUID}}
	body, ok := c.get(ctx, reqLogger, fmt.Sprintf("%s/traps?%s", c.baseURL, query.Encode()))
	if !ok {
		return nil, nil
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		reqLogger.Warn("discarding malformed traps response",
			zap.String("line_uuid", lineUUID),
			zap.Error(err),
		)
		return nil, nil
	}

	traps := make([]model.Trap, 0, len(resp.Items))
	for i, item := range resp.Items {
		trap, err := model.DecodeTrap(item)
		if err != nil {
			reqLogger.Warn("skipping malformed trap item",
				zap.String("line_uuid", lineUUID),
				zap.Int("item", i),
				zap.Error(err),
			)
			continue
		}
		traps = append(traps, *trap)
	}
	return traps, nil
}

// GetTrapRecords fetches records for a trap
func (c *Client) GetTrapRecords(ctx context.Context, trapUUID string, limit int, sortOrder, sortColumn string) ([]model.TrapRecord, error) {
	reqLogger := logging.WithRequestID(c.logger, uuid.New().String())

	query := url.Values{
		"limit":       {strconv.Itoa(limit)},
		"sort_order":  {sortOrder},
		"sort_column": {sortColumn},
	}
	body, ok := c.get(ctx, reqLogger, fmt.Sprintf("%s/traps/%s/records?%s", c.baseURL, url.PathEscape(trapUUID), query.Encode()))
	if !ok {
		return nil, nil
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		reqLogger.Warn("discarding malformed records response",
			zap.String("trap_uuid", trapUUID),
			zap.Error(err),
		)
		return nil, nil
	}

	records := make([]model.TrapRecord, 0, len(resp.Items))
	for i, item := range resp.Items {
		record, err := model.DecodeTrapRecord(item)
		if err != nil {
			reqLogger.Warn("skipping malformed trap record item",
				zap.String("trap_uuid", trapUUID),
				zap.Int("item", i),
				zap.Error(err),
			)
			continue
		}
		records = append(records, *record)
	}
	return records, nil
}

// get performs a GET and returns the body with ok=true on a 2xx
// response. Everything else is logged and reported as not-ok.
func (c *Client) get(ctx context.Context, logger *zap.Logger, rawURL string) ([]byte, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		logger.Error("failed to build request", zap.String("url", rawURL), zap.Error(err))
		return nil, false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("request cancelled", zap.String("url", rawURL))
		} else {
			logger.Warn("request failed", zap.String("url", rawURL), zap.Error(err))
		}
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("unexpected status from API",
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode),
		)
		return nil, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warn("failed to read response body", zap.String("url", rawURL), zap.Error(err))
		return nil, false
	}
	return body, true
}
