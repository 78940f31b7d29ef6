// Package backend talks to the remote table API that owns every entity.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/portafolio/internal/domain"
	"go.uber.org/zap"
)

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error (%d) %s %s: %s", e.Status, e.Method, e.Path, e.Body)
}

func (e *StatusError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return nil
}

func (e *StatusError) HTTPStatus() int { return e.Status }

type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

var _ domain.Backend = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger.Named("backend"),
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// envelope is the shape of every API answer; rows live under "datos".
type envelope struct {
	Datos   json.RawMessage `json:"datos"`
	Mensaje string          `json:"mensaje"`
}

func (c *Client) List(ctx context.Context, endpoint string) ([]domain.Record, error) {
	var out envelope
	if err := c.request(ctx, http.MethodGet, "/"+endpoint, nil, &out); err != nil {
		return nil, err
	}
	return decodeRecords(out.Datos)
}

func (c *Client) Find(ctx context.Context, endpoint string, key domain.Key) ([]domain.Record, error) {
	var out envelope
	if err := c.request(ctx, http.MethodGet, "/"+endpoint+"/"+key.Path(), nil, &out); err != nil {
		return nil, err
	}
	return decodeRecords(out.Datos)
}

func (c *Client) Create(ctx context.Context, endpoint string, rec domain.Record) error {
	return c.request(ctx, http.MethodPost, "/"+endpoint, rec, nil)
}

func (c *Client) Update(ctx context.Context, endpoint string, key domain.Key, rec domain.Record) error {
	return c.request(ctx, http.MethodPut, "/"+endpoint+"/"+key.Path(), rec, nil)
}

func (c *Client) Delete(ctx context.Context, endpoint string, key domain.Key) error {
	return c.request(ctx, http.MethodDelete, "/"+endpoint+"/"+key.Path(), nil, nil)
}

func (c *Client) request(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// decodeRecords accepts the list under "datos", a single object, or null.
func decodeRecords(raw json.RawMessage) ([]domain.Record, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []domain.Record{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if raw[0] == '{' {
		var rec domain.Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode datos: %w", err)
		}
		return []domain.Record{rec}, nil
	}
	var recs []domain.Record
	if err := dec.Decode(&recs); err != nil {
		return nil, fmt.Errorf("decode datos: %w", err)
	}
	if recs == nil {
		recs = []domain.Record{}
	}
	return recs, nil
}
