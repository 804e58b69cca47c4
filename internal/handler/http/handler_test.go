package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/airsyncd/airsyncd/internal/config"
	"github.com/airsyncd/airsyncd/internal/logger"
	"github.com/airsyncd/airsyncd/internal/service"
	"github.com/airsyncd/airsyncd/internal/store"
	"github.com/airsyncd/airsyncd/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

type handlerTestStack struct {
	server *httptest.Server
	items  *store.MemoryStore
}

func newHandlerTestStack(t *testing.T) *handlerTestStack {
	t.Helper()

	log := logger.Nop()
	items := store.NewDefaultMemoryStore()
	coordinator := service.NewChangeCoordinator(log)

	services := &service.Services{
		AuthService: service.NewAuthService(store.NewMemoryDeviceRepository(), config.App{
			TokenSignKey:  "test-sign-key",
			TokenIssuer:   "airsyncd-test",
			TokenDuration: time.Hour,
		}, log),
		SyncService:   service.NewSyncService(items, store.NewMemorySyncStateRepository(), coordinator, nil, log),
		SearchService: service.NewSearchService(items, log),
		Coordinator:   coordinator,
	}

	server := httptest.NewServer(NewHandler(services, log).Init())
	t.Cleanup(server.Close)

	return &handlerTestStack{server: server, items: items}
}

func (s *handlerTestStack) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func (s *handlerTestStack) registerDevice(t *testing.T, deviceID, login string) string {
	t.Helper()

	resp := s.do(t, http.MethodPost, "/api/device/register", "", models.Credentials{
		DeviceID: deviceID,
		Login:    login,
		Password: "pw",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	header := resp.Header.Get("Authorization")
	require.NotEmpty(t, header)
	return header[len("Bearer "):]
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Registration and login
// ─────────────────────────────────────────────────────────────────────────────

func TestRegister(t *testing.T) {
	stack := newHandlerTestStack(t)

	token := stack.registerDevice(t, "phone-1", "ada")
	assert.NotEmpty(t, token)

	// Duplicate login is a conflict.
	resp := stack.do(t, http.MethodPost, "/api/device/register", "", models.Credentials{
		DeviceID: "phone-2", Login: "ada", Password: "pw",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Missing fields are a bad request.
	resp = stack.do(t, http.MethodPost, "/api/device/register", "", models.Credentials{Login: "bob"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegister_InvalidJSON(t *testing.T) {
	stack := newHandlerTestStack(t)

	req, err := http.NewRequest(http.MethodPost, stack.server.URL+"/api/device/register", bytes.NewBufferString("{"))
	require.NoError(t, err)

	resp, err := stack.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	stack := newHandlerTestStack(t)
	stack.registerDevice(t, "phone-1", "ada")

	resp := stack.do(t, http.MethodPost, "/api/device/login", "", models.Credentials{Login: "ada", Password: "pw"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Authorization"), "Bearer ")

	resp = stack.do(t, http.MethodPost, "/api/device/login", "", models.Credentials{Login: "ada", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = stack.do(t, http.MethodPost, "/api/device/login", "", models.Credentials{Login: "ghost", Password: "pw"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ─────────────────────────────────────────────────────────────────────────────
// Authentication middleware
// ─────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware(t *testing.T) {
	stack := newHandlerTestStack(t)

	tests := []struct {
		name   string
		header string
	}{
		{name: "NoHeader", header: ""},
		{name: "SchemeOnly", header: "Bearer"},
		{name: "EmptyToken", header: "Bearer "},
		{name: "GarbageToken", header: "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, stack.server.URL+"/api/sync", bytes.NewBufferString("{}"))
			require.NoError(t, err)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := stack.server.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestAuthMiddleware_ValidTokenPasses(t *testing.T) {
	stack := newHandlerTestStack(t)
	token := stack.registerDevice(t, "phone-1", "ada")

	resp := stack.do(t, http.MethodPost, "/api/sync", token, models.SyncRequest{
		Collections: []models.SyncCollectionRequest{
			{CollectionID: models.CollectionInbox, SyncKey: models.ZeroSyncKey},
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// ─────────────────────────────────────────────────────────────────────────────
// Sync endpoint
// ─────────────────────────────────────────────────────────────────────────────

func TestSyncEndpoint_FullRoundtrip(t *testing.T) {
	stack := newHandlerTestStack(t)
	token := stack.registerDevice(t, "phone-1", "ada")

	// Handshake.
	resp := stack.do(t, http.MethodPost, "/api/sync", token, models.SyncRequest{
		Collections: []models.SyncCollectionRequest{
			{CollectionID: models.CollectionInbox, SyncKey: models.ZeroSyncKey},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	handshake := decodeJSON[models.SyncResponse](t, resp)
	require.Len(t, handshake.Collections, 1)
	key := handshake.Collections[0].SyncKey
	require.NotEmpty(t, key)

	// The device uploads a message.
	resp = stack.do(t, http.MethodPost, "/api/sync", token, models.SyncRequest{
		Collections: []models.SyncCollectionRequest{
			{
				CollectionID: models.CollectionInbox,
				SyncKey:      key,
				Commands: models.CommandList{
					models.CommandAdd{ClientID: "tmp1", Props: map[string]string{models.PropSubject: "hello"}},
				},
			},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	uploaded := decodeJSON[models.SyncResponse](t, resp)
	require.Len(t, uploaded.Collections, 1)
	require.Len(t, uploaded.Collections[0].Responses, 1)
	assert.Equal(t, "tmp1", uploaded.Collections[0].Responses[0].ClientID)
	assert.NotEmpty(t, uploaded.Collections[0].Responses[0].ServerID)
}

func TestSyncEndpoint_QuietResponseHasNoBody(t *testing.T) {
	stack := newHandlerTestStack(t)
	token := stack.registerDevice(t, "phone-1", "ada")

	resp := stack.do(t, http.MethodPost, "/api/sync", token, models.SyncRequest{
		Collections: []models.SyncCollectionRequest{
			{CollectionID: models.CollectionInbox, SyncKey: models.ZeroSyncKey},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	handshake := decodeJSON[models.SyncResponse](t, resp)
	key := handshake.Collections[0].SyncKey

	resp = stack.do(t, http.MethodPost, "/api/sync", token, models.SyncRequest{
		Collections: []models.SyncCollectionRequest{
			{CollectionID: models.CollectionInbox, SyncKey: key},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Empty(t, body, "quiet synchronization must produce a zero-length body")
}

// ─────────────────────────────────────────────────────────────────────────────
// Estimate and search endpoints
// ─────────────────────────────────────────────────────────────────────────────

func TestEstimateEndpoint(t *testing.T) {
	stack := newHandlerTestStack(t)
	token := stack.registerDevice(t, "phone-1", "ada")

	resp := stack.do(t, http.MethodGet, "/api/sync/estimate", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing query params")

	resp = stack.do(t, http.MethodGet,
		"/api/sync/estimate?collection_id="+models.CollectionInbox+"&sync_key=0", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	estimate := decodeJSON[models.EstimateResponse](t, resp)
	assert.Equal(t, models.StatusSuccess, estimate.Status)
	assert.Zero(t, estimate.Estimate)
}

func TestSearchEndpoint(t *testing.T) {
	stack := newHandlerTestStack(t)
	token := stack.registerDevice(t, "phone-1", "ada")

	_, err := stack.items.ApplyAdd(context.Background(), models.Item{
		CollectionID: models.CollectionContacts,
		Props:        map[string]string{"FirstName": "Grace", "LastName": "Hopper"},
	})
	require.NoError(t, err)

	resp := stack.do(t, http.MethodGet, "/api/search?q=grace", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items := decodeJSON[[]models.Item](t, resp)
	require.Len(t, items, 1)
	assert.Equal(t, "Hopper", items[0].Props["LastName"])

	resp = stack.do(t, http.MethodGet, "/api/search", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "query is required")
}
