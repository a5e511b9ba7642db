package rowstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"telemed-booking-core/internal/infra/config"
	"telemed-booking-core/internal/infra/logger"
	apperrors "telemed-booking-core/pkg/errors"
)

// Client is the typed HTTP REST client for the row store gateway. It
// replaces the teacher's *sql.DB connection wrapper (connection.go) with
// an *http.Client wrapped in a circuit breaker, following the same
// constructor-returns-wrapped-handle shape.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logger.Logger
}

// NewClient builds a row-store client from configuration, following the
// teacher's NewConnection(cfg) idiom.
func NewClient(cfg config.RowStoreConfig, log *logger.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "rowstore",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		baseURL: cfg.BaseURL,
		anonKey: cfg.AnonKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker: breaker,
		logger:  log,
	}
}

// Ready reports whether the breaker currently allows calls through,
// for the ops surface's /ready endpoint.
func (c *Client) Ready() error {
	if state := c.breaker.State(); state == gobreaker.StateOpen {
		return fmt.Errorf("rowstore circuit breaker is open")
	}
	return nil
}

// Get decodes a filtered list of table into a slice of T.
func Get[T any](ctx context.Context, c *Client, table string, q *QueryBuilder) ([]T, error) {
	path := fmt.Sprintf("/rows/%s", table)
	if query := q.Encode(); query != "" {
		path += "?" + query
	}
	body, err := c.do(ctx, http.MethodGet, path, nil, false)
	if err != nil {
		return nil, err
	}
	var records []T
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, apperrors.NewDecodeError(fmt.Sprintf("decoding %s list", table), err)
	}
	return records, nil
}

// Insert POSTs a single record to table with return=representation and
// decodes the inserted row back.
func Insert[T any](ctx context.Context, c *Client, table string, record T) (T, error) {
	var zero T
	payload, err := json.Marshal(record)
	if err != nil {
		return zero, apperrors.NewDecodeError(fmt.Sprintf("encoding %s insert", table), err)
	}
	path := fmt.Sprintf("/rows/%s", table)
	body, err := c.do(ctx, http.MethodPost, path, payload, true)
	if err != nil {
		return zero, err
	}
	var records []T
	if err := json.Unmarshal(body, &records); err != nil {
		return zero, apperrors.NewDecodeError(fmt.Sprintf("decoding %s insert response", table), err)
	}
	if len(records) == 0 {
		return zero, apperrors.NewDatabaseError(fmt.Sprintf("%s insert returned no rows", table), nil)
	}
	return records[0], nil
}

// Patch applies a partial update to rows matching the filter and decodes
// the first updated row back.
func Patch[T any](ctx context.Context, c *Client, table string, q *QueryBuilder, patch map[string]any) (T, error) {
	var zero T
	payload, err := json.Marshal(patch)
	if err != nil {
		return zero, apperrors.NewDecodeError(fmt.Sprintf("encoding %s patch", table), err)
	}
	path := fmt.Sprintf("/rows/%s", table)
	if query := q.Encode(); query != "" {
		path += "?" + query
	}
	body, err := c.do(ctx, http.MethodPatch, path, payload, true)
	if err != nil {
		return zero, err
	}
	var records []T
	if err := json.Unmarshal(body, &records); err != nil {
		return zero, apperrors.NewDecodeError(fmt.Sprintf("decoding %s patch response", table), err)
	}
	if len(records) == 0 {
		return zero, apperrors.NewNotFound(table, "")
	}
	return records[0], nil
}

// Delete removes rows matching the filter.
func (c *Client) Delete(ctx context.Context, table string, q *QueryBuilder) error {
	path := fmt.Sprintf("/rows/%s", table)
	if query := q.Encode(); query != "" {
		path += "?" + query
	}
	_, err := c.do(ctx, http.MethodDelete, path, nil, false)
	return err
}

// do issues one HTTP call through the circuit breaker and returns the
// response body, or a taxonomized DatabaseError / ExternalServiceError.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, representation bool) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.anonKey != "" {
			req.Header.Set("apikey", c.anonKey)
		}
		if representation {
			req.Header.Set("Prefer", "return=representation")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("row store returned %d: %s", resp.StatusCode, truncate(body))
		}
		if resp.StatusCode >= 400 {
			return body, &clientError{status: resp.StatusCode, body: truncate(body)}
		}
		return body, nil
	})

	if err != nil {
		var ce *clientError
		if ok := asClientError(err, &ce); ok {
			return nil, apperrors.NewDatabaseError(fmt.Sprintf("row store client error %d", ce.status), err)
		}
		c.logger.WithFields(map[string]interface{}{"path": path}).Warn("row store call failed")
		return nil, apperrors.NewExternalServiceError("row store unreachable", err)
	}

	body, _ := result.([]byte)
	return body, nil
}

type clientError struct {
	status int
	body   string
}

func (e *clientError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}

func asClientError(err error, target **clientError) bool {
	if ce, ok := err.(*clientError); ok {
		*target = ce
		return true
	}
	return false
}

func truncate(b []byte) string {
	const max = 500
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
