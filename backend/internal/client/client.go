// Package client talks to the board API. Client satisfies graph.Store, so a
// board can run against a remote server exactly as it runs against a local
// store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"themtwo/backend/internal/graph"
	"themtwo/backend/internal/relation"
	"themtwo/backend/internal/state"
	apperrors "themtwo/backend/pkg/errors"
)

const defaultTimeout = 15 * time.Second

var _ graph.Store = (*Client)(nil)

// Client is an HTTP client for the board API
type Client struct {
	baseURL    string
	httpClient *http.Client
	dialer     *websocket.Dialer
	logger     *zap.Logger
}

// New creates a client for the server at baseURL, e.g. http://localhost:8080
func New(baseURL string, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		dialer:     &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		logger:     logger,
	}, nil
}

// errorBody mirrors the server's error response
type errorBody struct {
	Error      string `json:"error"`
	Type       string `json:"type"`
	Field      string `json:"field"`
	ExistingID string `json:"existing_id"`
}

type idBody struct {
	ID string `json:"id"`
}

// do sends in as JSON and decodes the response into out. Non-2xx responses
// become categorised errors.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return apperrors.NewRequestFailed(method, path, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(method, path, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewRequestFailed(method, path, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func (c *Client) decodeError(method, path string, resp *http.Response) error {
	var body errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
	}
	cause := apperrors.NewRequestFailed(method, path, resp.StatusCode, errors.New(body.Error))

	switch resp.StatusCode {
	case http.StatusBadRequest:
		field := body.Field
		if field == "" {
			field = "request"
		}
		err := apperrors.NewValidationFailed(field, body.Error)
		err.Err = cause
		return err
	case http.StatusNotFound:
		return apperrors.NewBaseError(apperrors.ErrorTypeStale, body.Error, cause)
	case http.StatusConflict:
		err := apperrors.NewDuplicateConnection("", "", body.ExistingID)
		err.Message = body.Error
		err.Err = cause
		return err
	}

	c.logger.Warn("API request failed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("error", body.Error),
	)
	return cause
}

func escape(id string) string {
	return url.PathEscape(id)
}

// Reads

func (c *Client) ListPeople(ctx context.Context) ([]state.Person, error) {
	var people []state.Person
	if err := c.do(ctx, http.MethodGet, "/api/people", nil, &people); err != nil {
		return nil, err
	}
	return people, nil
}

func (c *Client) ListConnections(ctx context.Context) ([]state.Connection, error) {
	var connections []state.Connection
	if err := c.do(ctx, http.MethodGet, "/api/connections", nil, &connections); err != nil {
		return nil, err
	}
	return connections, nil
}

func (c *Client) Snapshot(ctx context.Context) (*state.Snapshot, error) {
	var snap state.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/snapshot", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) GetPerson(ctx context.Context, id string) (*state.Person, error) {
	var person state.Person
	if err := c.do(ctx, http.MethodGet, "/api/people/"+escape(id), nil, &person); err != nil {
		return nil, err
	}
	return &person, nil
}

func (c *Client) ConnectionsForPerson(ctx context.Context, personID string) ([]state.Connection, error) {
	var connections []state.Connection
	if err := c.do(ctx, http.MethodGet, "/api/people/"+escape(personID)+"/connections", nil, &connections); err != nil {
		return nil, err
	}
	return connections, nil
}

// Writes

type positionBody struct {
	PositionX float64 `json:"position_x"`
	PositionY float64 `json:"position_y"`
}

func (c *Client) CreatePerson(ctx context.Context, name string, x, y float64) (string, error) {
	in := struct {
		Name string `json:"name"`
		positionBody
	}{Name: name, positionBody: positionBody{PositionX: x, PositionY: y}}

	var out idBody
	if err := c.do(ctx, http.MethodPost, "/api/people", in, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) UpdatePersonPosition(ctx context.Context, id string, x, y float64) error {
	return c.do(ctx, http.MethodPut, "/api/people/"+escape(id)+"/position", positionBody{PositionX: x, PositionY: y}, nil)
}

func (c *Client) RenamePerson(ctx context.Context, id, name string) error {
	return c.do(ctx, http.MethodPut, "/api/people/"+escape(id)+"/name", map[string]string{"name": name}, nil)
}

func (c *Client) DeletePerson(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/people/"+escape(id), nil, nil)
}

func (c *Client) CreateConnection(ctx context.Context, personA, personB string, connectionType relation.Type) (string, error) {
	in := map[string]string{
		"person_a_id":     personA,
		"person_b_id":     personB,
		"connection_type": string(connectionType),
	}
	var out idBody
	if err := c.do(ctx, http.MethodPost, "/api/connections", in, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) UpdateConnectionType(ctx context.Context, id string, connectionType relation.Type) error {
	return c.do(ctx, http.MethodPut, "/api/connections/"+escape(id)+"/type",
		map[string]string{"connection_type": string(connectionType)}, nil)
}

func (c *Client) DeleteConnection(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/connections/"+escape(id), nil, nil)
}
