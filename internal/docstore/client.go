// Package docstore talks to the hosted JSON document store. Each document is
// addressed by id and supports two calls: read the latest version and
// overwrite it.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/sanshin-calendar/internal/logging"
)

// ErrUnreachable is matched by every failure to talk to the store.
var ErrUnreachable = errors.New("docstore: unreachable")

// DefaultKeyHeader is the header carrying the access key.
const DefaultKeyHeader = "X-Access-Key"

// StatusError reports a non-2xx response.
type StatusError struct {
	Op         string
	DocumentID string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("docstore: %s %s: unexpected status %d", e.Op, e.DocumentID, e.StatusCode)
}

// Is lets StatusError match ErrUnreachable.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnreachable
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL    string
	AccessKey  string
	KeyHeader  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client reads and overwrites documents over HTTPS.
type Client struct {
	baseURL   string
	accessKey string
	keyHeader string
	http      *http.Client
	logger    *slog.Logger
}

// NewClient constructs a client. A nil HTTPClient gets one with the configured timeout.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	header := cfg.KeyHeader
	if header == "" {
		header = DefaultKeyHeader
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		accessKey: cfg.AccessKey,
		keyHeader: header,
		http:      httpClient,
		logger:    logger,
	}
}

type latestEnvelope struct {
	Record json.RawMessage `json:"record"`
}

// ReadLatest fetches the latest version of the document and returns its record payload.
func (c *Client) ReadLatest(ctx context.Context, documentID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.documentURL(documentID)+"/latest", nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req, "read", documentID)
	if err != nil {
		return nil, err
	}

	var envelope latestEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrUnreachable, documentID, err)
	}
	return []byte(envelope.Record), nil
}

// Replace overwrites the document with payload.
func (c *Client) Replace(ctx context.Context, documentID string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.documentURL(documentID), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = c.do(req, "replace", documentID)
	return err
}

func (c *Client) documentURL(documentID string) string {
	return c.baseURL + "/b/" + documentID
}

func (c *Client) do(req *http.Request, op, documentID string) ([]byte, error) {
	logger := logging.FromContextOr(req.Context(), c.logger).With("component", "docstore", "operation", op, "document_id", documentID)
	req.Header.Set(c.keyHeader, c.accessKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("document store request failed", "error", err)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnreachable, op, documentID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: read body: %v", ErrUnreachable, op, documentID, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("document store rejected request", "status", resp.StatusCode)
		return nil, &StatusError{Op: op, DocumentID: documentID, StatusCode: resp.StatusCode}
	}

	logger.Debug("document store request completed", "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())
	return body, nil
}
