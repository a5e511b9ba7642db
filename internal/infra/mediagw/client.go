// Package mediagw implements ports.MediaGateway against the external
// video/media plane described in spec.md §6. It deliberately never
// implements a media relay itself (§1 Non-goals) — it only provisions
// rooms and join URLs on the remote service.
package mediagw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"telemed-booking-core/internal/domain/ports"
	"telemed-booking-core/internal/infra/config"
	"telemed-booking-core/internal/infra/logger"
	apperrors "telemed-booking-core/pkg/errors"
)

// Client talks to the media gateway over HTTP, guarded by its own
// circuit breaker instance so a degraded media plane never trips the
// row-store breaker.
type Client struct {
	baseURL    string
	appID      string
	appToken   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logger.Logger
}

func NewClient(cfg config.MediaGatewayConfig, log *logger.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "mediagw",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     20 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
	})

	return &Client{
		baseURL:  cfg.BaseURL,
		appID:    cfg.AppID,
		appToken: cfg.AppToken,
		httpClient: &http.Client{
			Timeout: 8 * time.Second,
		},
		breaker: breaker,
		logger:  log,
	}
}

// Ready reports whether the breaker currently allows calls through,
// for the ops surface's /ready endpoint.
func (c *Client) Ready() error {
	if state := c.breaker.State(); state == gobreaker.StateOpen {
		return fmt.Errorf("media gateway circuit breaker is open")
	}
	return nil
}

type createRoomRequest struct {
	AppointmentID string `json:"appointment_id"`
	RoomID        string `json:"room_id"`
}

type createRoomResponse struct {
	MediaPlaneSessionID string `json:"media_plane_session_id"`
	PatientJoinURL      string `json:"patient_join_url"`
	DoctorJoinURL       string `json:"doctor_join_url"`
}

func (c *Client) CreateRoom(ctx context.Context, req ports.MediaRoomRequest) (*ports.MediaRoomHandle, error) {
	payload, err := json.Marshal(createRoomRequest{AppointmentID: req.AppointmentID, RoomID: req.RoomID})
	if err != nil {
		return nil, apperrors.NewExternalServiceError("encoding media room request", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/rooms", payload)
	if err != nil {
		return nil, err
	}

	var resp createRoomResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.NewExternalServiceError("decoding media room response", err)
	}

	return &ports.MediaRoomHandle{
		MediaPlaneSessionID: resp.MediaPlaneSessionID,
		PatientJoinURL:      resp.PatientJoinURL,
		DoctorJoinURL:       resp.DoctorJoinURL,
	}, nil
}

func (c *Client) EndRoom(ctx context.Context, mediaPlaneSessionID string) error {
	_, err := c.do(ctx, http.MethodPost, "/rooms/"+mediaPlaneSessionID+"/end", nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
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
		req.Header.Set("X-App-ID", c.appID)
		req.Header.Set("Authorization", "Bearer "+c.appToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("media gateway returned %d: %s", resp.StatusCode, string(body))
		}
		return body, nil
	})

	if err != nil {
		c.logger.WithFields(map[string]interface{}{"path": path}).Warn("media gateway call failed")
		return nil, apperrors.NewExternalServiceError("media gateway unreachable", err)
	}

	body, _ := result.([]byte)
	return body, nil
}
