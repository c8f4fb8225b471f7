// Package rest reads and writes holdings through the upstream assets API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"holdings/internal/core"
	"holdings/internal/log"
	"holdings/internal/source"
)

const (
	assetsPath = "/api/assets"

	// maxBodyBytes bounds what is read from one upstream response.
	maxBodyBytes = 8 << 20

	bulkConcurrency = 4
)

type Client struct {
	baseURL  string
	envelope string
	http     *http.Client
	logger   *log.Logger
	list     singleflight.Group
}

type Option func(*Client)

// WithHTTPClient replaces the default client, e.g. to add auth transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithEnvelopePath sets the JSONPath selecting the payload inside every
// response body, "$.data" by default. An empty path uses the body as is;
// bodies the path does not match (bare arrays and objects) are used as is too.
func WithEnvelopePath(path string) Option {
	return func(c *Client) { c.envelope = path }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		envelope: "$.data",
		http:     &http.Client{Timeout: timeout},
		logger:   log.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	c.logger = c.logger.WithComponent(log.ComponentSource)
	return c
}

// ListHoldings fetches the whole collection. Concurrent callers share one
// request. The shared request is not bound to any caller's context, only to
// the client timeout; each caller stops waiting when its own ctx is done.
func (c *Client) ListHoldings(ctx context.Context) ([]core.RawRecord, error) {
	ch := c.list.DoChan("list", func() (any, error) {
		var records []core.RawRecord
		if err := c.do(context.WithoutCancel(ctx), http.MethodGet, assetsPath, nil, &records); err != nil {
			return nil, err
		}
		return records, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: GET %s: %w", source.ErrFetchFailed, assetsPath, ctx.Err())
	}
	if res.Err != nil {
		return nil, res.Err
	}
	records := res.Val.([]core.RawRecord)
	if res.Shared {
		records = append([]core.RawRecord(nil), records...)
	}
	c.logger.DebugContext(ctx, "Holdings fetched", log.FieldRecords, len(records), "shared", res.Shared)
	return records, nil
}

func (c *Client) GetHolding(ctx context.Context, id string) (core.RawRecord, error) {
	var rec core.RawRecord
	err := c.do(ctx, http.MethodGet, assetsPath+"/"+url.PathEscape(id), nil, &rec)
	return rec, err
}

// GetHoldings fetches records by id concurrently. Results keep the order of
// ids; the first failure cancels the rest.
func (c *Client) GetHoldings(ctx context.Context, ids []string) ([]core.RawRecord, error) {
	out := make([]core.RawRecord, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			rec, err := c.GetHolding(ctx, id)
			if err != nil {
				return fmt.Errorf("holding %q: %w", id, err)
			}
			out[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateHolding posts the record and returns the id the upstream stored it
// under, falling back to the record's own id.
func (c *Client) CreateHolding(ctx context.Context, r core.RawRecord) (string, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode holding: %w", err)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, assetsPath, body, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return r.ID, nil
	}
	return created.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", source.ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", source.ErrFetchFailed, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", source.ErrFetchFailed, err)
	}
	if resp.StatusCode == http.StatusNotFound && method == http.MethodGet && path != assetsPath {
		return source.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		uerr := &source.UpstreamError{Status: resp.StatusCode, Message: errorMessage(raw)}
		c.logger.WarnContext(ctx, "Upstream request failed",
			log.FieldMethod, method, log.FieldPath, path, log.FieldStatusCode, resp.StatusCode, log.FieldError, uerr.Message)
		return uerr
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		// 204 and friends: nothing to decode, out keeps its zero value.
		return nil
	}
	payload, err := c.unwrap(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", source.ErrFetchFailed, err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", source.ErrFetchFailed, path, err)
	}
	return nil
}

// unwrap applies the envelope path. Numbers are kept as json.Number so
// amounts survive the round trip without float rounding. A bare array, or an
// object the envelope path does not match, is used as is: the assets API
// returns single records and create results unwrapped.
func (c *Client) unwrap(raw []byte) ([]byte, error) {
	if c.envelope == "" || c.envelope == "$" {
		return raw, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if _, isList := doc.([]any); isList {
		return raw, nil
	}
	node, err := jsonpath.Get(c.envelope, doc)
	if err != nil {
		if _, isObject := doc.(map[string]any); isObject {
			return raw, nil
		}
		return nil, fmt.Errorf("envelope %q: %w", c.envelope, err)
	}
	return json.Marshal(node)
}

// errorMessage extracts the "error" (or "message") field the upstream puts
// in failure bodies, falling back to the trimmed body text.
func errorMessage(raw []byte) string {
	var body struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		var s string
		if len(body.Error) > 0 && json.Unmarshal(body.Error, &s) == nil && s != "" {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if len(body.Error) > 0 && json.Unmarshal(body.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		if body.Message != "" {
			return body.Message
		}
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

var _ source.Source = (*Client)(nil)
