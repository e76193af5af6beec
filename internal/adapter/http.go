package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/MKhiriev/go-groupware-sync/internal/config"
	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/internal/utils"
	"github.com/MKhiriev/go-groupware-sync/models"
)

type httpServerAdapter struct {
	client *utils.HTTPClient

	token string

	logger *logger.Logger
}

// NewHTTPServerAdapter constructs an HTTP/REST implementation of
// [ServerAdapter]. It normalises and validates the base URL from
// adapterCfg.HTTPAddress and configures the underlying HTTP client with
// the resolved base URL and request timeout.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be
// parsed as a valid URL.
func NewHTTPServerAdapter(adapterCfg config.ClientAdapter, logger *logger.Logger) (ServerAdapter, error) {
	client := utils.NewHTTPClient()
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	client.
		SetBaseURL(baseURL).
		SetTimeout(adapterCfg.RequestTimeout)

	return &httpServerAdapter{client: client, logger: logger}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [ServerAdapter]. It stores token (whitespace-trimmed)
// for use in the Authorization header of all subsequent authenticated
// requests.
func (h *httpServerAdapter) SetToken(token string) {
	h.token = strings.TrimSpace(token)
}

// Token implements [ServerAdapter]. It returns the bearer token currently
// held by the adapter, or an empty string if none has been set.
func (h *httpServerAdapter) Token() string {
	return h.token
}

// CreateSession implements [ServerAdapter]. It POSTs the client identity to
// POST /api/session. On success the bearer token from the response body is
// stored via SetToken. Returns an error if the request fails, the server
// returns a non-2xx status, or the response cannot be decoded.
func (h *httpServerAdapter) CreateSession(ctx context.Context, req models.SessionRequest) (models.SessionResponse, error) {
	var session models.SessionResponse

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&session).
		Post("/api/session")
	if err != nil {
		return models.SessionResponse{}, fmt.Errorf("create session request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.SessionResponse{}, err
	}

	h.SetToken(session.Token)
	return session, nil
}

// RemoveSession implements [ServerAdapter]. It sends
// DELETE /api/session/{sessionID} with the stored bearer token.
func (h *httpServerAdapter) RemoveSession(ctx context.Context, sessionID uint64) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetAuthToken(h.token).
		Delete(fmt.Sprintf("/api/session/%d", sessionID))
	if err != nil {
		return fmt.Errorf("remove session request: %w", err)
	}

	return mapHTTPError(resp)
}

// SubscribeFolder implements [ServerAdapter]. It POSTs the folder sourcekey
// to POST /api/session/{sessionID}/subscribe/folder.
func (h *httpServerAdapter) SubscribeFolder(ctx context.Context, sessionID uint64, folder models.SourceKey) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetAuthToken(h.token).
		SetHeader("Content-Type", "application/json").
		SetBody(models.SubscribeRequest{SourceKey: folder}).
		Post(fmt.Sprintf("/api/session/%d/subscribe/folder", sessionID))
	if err != nil {
		return fmt.Errorf("subscribe folder request: %w", err)
	}

	return mapHTTPError(resp)
}

// SyncChanges implements [ServerAdapter]. It POSTs the sync request to
// POST /api/sync/changes and decodes the resulting event list. Returns an
// error if the request fails, the server returns a non-2xx status, or the
// response cannot be decoded.
func (h *httpServerAdapter) SyncChanges(ctx context.Context, req models.SyncRequest) (models.SyncResponse, error) {
	var syncResp models.SyncResponse

	resp, err := h.client.R().
		SetContext(ctx).
		SetAuthToken(h.token).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&syncResp).
		Post("/api/sync/changes")
	if err != nil {
		return models.SyncResponse{}, fmt.Errorf("sync changes request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.SyncResponse{}, err
	}

	return syncResp, nil
}
