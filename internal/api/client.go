// Package api is the HTTP client for the sites / spaces / streams backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"spacenav/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const DefaultBaseURL = "http://127.0.0.1:8000"

// RequestIDHeader is set on every request so server logs can be correlated.
const RequestIDHeader = "X-Request-Id"

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Log     logrus.FieldLogger
}

func New(baseURL string, log logrus.FieldLogger) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Log:     log,
	}
}

func (c *Client) ListSites(ctx context.Context) ([]model.Site, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/sites/", nil, &raw); err != nil {
		return nil, err
	}
	return decodeSites(raw)
}

// decodeSites accepts either a bare list or {"sites": [...]}.
func decodeSites(raw json.RawMessage) ([]model.Site, error) {
	var list []model.Site
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Sites []model.Site `json:"sites"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, &MalformedResponseError{What: "sites", Err: err}
	}
	return wrapped.Sites, nil
}

func (c *Client) ListSpaces(ctx context.Context, siteID string) (model.SpacesResponse, error) {
	var resp model.SpacesResponse
	path := "/spaces/?siteId=" + url.QueryEscape(siteID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return model.SpacesResponse{}, err
	}
	return resp, nil
}

// AddStream creates a stream. A response without id or name is a
// MalformedResponseError.
func (c *Client) AddStream(ctx context.Context, spaceID int, name string) (model.Stream, error) {
	var resp model.AddStreamResponse
	path := "/spaces/" + strconv.Itoa(spaceID) + "/streams"
	if err := c.do(ctx, http.MethodPost, path, model.AddStreamRequest{Name: name}, &resp); err != nil {
		return model.Stream{}, err
	}
	if resp.ID == nil || resp.Name == nil {
		return model.Stream{}, &MalformedResponseError{What: "add stream", Err: fmt.Errorf("missing id or name")}
	}
	return model.Stream{ID: *resp.ID, Name: *resp.Name}, nil
}

func (c *Client) DeleteStream(ctx context.Context, streamID int) error {
	return c.do(ctx, http.MethodDelete, "/streams/"+strconv.Itoa(streamID), nil, nil)
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	start := time.Now()
	res, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if c.Log != nil {
		c.Log.WithFields(logrus.Fields{
			"method":     method,
			"path":       path,
			"status":     res.StatusCode,
			"request_id": reqID,
			"elapsed":    time.Since(start).String(),
		}).Debug("api request")
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return newError(res.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &MalformedResponseError{What: path, Err: err}
	}
	return nil
}
