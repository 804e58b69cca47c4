package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/airsyncd/airsyncd/models"
	"github.com/go-resty/resty/v2"
)

// HTTPClientConfig configures the HTTP server adapter.
type HTTPClientConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type httpServerAdapter struct {
	client *resty.Client

	mu    sync.RWMutex
	token string
}

// NewHTTPServerAdapter constructs a ServerAdapter over a resty client.
func NewHTTPServerAdapter(cfg HTTPClientConfig) ServerAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)

	return &httpServerAdapter{client: cli, token: strings.TrimSpace(cfg.Token)}
}

func (h *httpServerAdapter) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

func (h *httpServerAdapter) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

func (h *httpServerAdapter) Register(ctx context.Context, credentials models.Credentials) (string, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(credentials).
		Post("/api/device/register")
	if err != nil {
		return "", fmt.Errorf("register request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	token, err := parseBearerToken(resp.Header().Get("Authorization"))
	if err != nil {
		return "", fmt.Errorf("register parse bearer token: %w", err)
	}

	h.SetToken(token)
	return token, nil
}

func (h *httpServerAdapter) Login(ctx context.Context, credentials models.Credentials) (string, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(credentials).
		Post("/api/device/login")
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	token, err := parseBearerToken(resp.Header().Get("Authorization"))
	if err != nil {
		return "", fmt.Errorf("login parse bearer token: %w", err)
	}

	h.SetToken(token)
	return token, nil
}

func (h *httpServerAdapter) Sync(ctx context.Context, request models.SyncRequest) (models.SyncResponse, bool, error) {
	// Long-poll requests outlive the default client timeout on purpose.
	req := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(request)

	resp, err := req.Post("/api/sync")
	if err != nil {
		return models.SyncResponse{}, false, fmt.Errorf("sync request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.SyncResponse{}, false, err
	}

	body := resp.Body()
	if len(body) == 0 {
		return models.SyncResponse{Status: models.StatusSuccess, Empty: true}, true, nil
	}

	var response models.SyncResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return models.SyncResponse{}, false, fmt.Errorf("sync decode response: %w", err)
	}

	return response, false, nil
}

func (h *httpServerAdapter) Estimate(ctx context.Context, collectionID, syncKey string) (models.EstimateResponse, error) {
	var response models.EstimateResponse

	resp, err := h.authedRequest(ctx).
		SetQueryParam("collection_id", collectionID).
		SetQueryParam("sync_key", syncKey).
		SetResult(&response).
		Get("/api/sync/estimate")
	if err != nil {
		return models.EstimateResponse{}, fmt.Errorf("estimate request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.EstimateResponse{}, err
	}

	return response, nil
}

func (h *httpServerAdapter) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

func parseBearerToken(header string) (string, error) {
	parts := strings.Split(strings.TrimSpace(header), " ")
	if len(parts) != 2 || parts[1] == "" {
		return "", fmt.Errorf("invalid Authorization header %q", header)
	}
	return parts[1], nil
}
