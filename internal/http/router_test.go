package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	memcache "github.com/physioquantum/auth-relay/internal/cache/memory"
	"github.com/physioquantum/auth-relay/internal/directory"
	healthctrl "github.com/physioquantum/auth-relay/internal/http/controllers/health"
	relayctrl "github.com/physioquantum/auth-relay/internal/http/controllers/relay"
	relaysvc "github.com/physioquantum/auth-relay/internal/relay"
)

type noopProvider struct{}

func (noopProvider) AuthURL(ctx context.Context, state, redirectURI string) (string, error) {
	return "https://accounts.example/authorize?state=" + state, nil
}

func (noopProvider) Exchange(ctx context.Context, code, redirectURI string) (*relaysvc.TokenSet, error) {
	return &relaysvc.TokenSet{AccessToken: "at", IDToken: "idt"}, nil
}

func (noopProvider) UserInfo(ctx context.Context, accessToken string) (*relaysvc.Profile, error) {
	return &relaysvc.Profile{Email: "ana@example.com"}, nil
}

func newTestHandler(t *testing.T, gate *directory.Gate) http.Handler {
	t.Helper()

	svc := relaysvc.NewService(relaysvc.Deps{
		Provider:     noopProvider{},
		ProviderName: "google",
		Signer:       relaysvc.NewStateSigner("secret", time.Minute, memcache.New(time.Minute)),
		Issuer:       relaysvc.NewIssuer(gate, nil, "google"),
		Links:        relaysvc.DeepLink{Scheme: "physioquantum"},
		RequireState: false,
	})

	h, err := NewRouter(RouterDeps{
		Relay:           relayctrl.NewControllers(svc, "google", RecordCallbackOutcome),
		Health:          healthctrl.NewController(gate, "test"),
		MetricsRegistry: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	return h
}

func TestRouter_HealthReportsDirectoryState(t *testing.T) {
	h := newTestHandler(t, directory.NewGate(false, "no service account configured"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Status    string `json:"status"`
		Directory struct {
			Initialized bool   `json:"initialized"`
			Detail      string `json:"detail"`
		} `json:"directory"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.Equal(t, "ok", out.Status)
	require.False(t, out.Directory.Initialized)
	require.NotEmpty(t, out.Directory.Detail)
}

func TestRouter_APITest(t *testing.T) {
	h := newTestHandler(t, directory.NewGate(true, "ok"))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Message     string `json:"message"`
		Timestamp   string `json:"timestamp"`
		Environment string `json:"environment"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.NotEmpty(t, out.Message)
	require.Equal(t, "test", out.Environment)
	_, err := time.Parse(time.RFC3339, out.Timestamp)
	require.NoError(t, err)
}

func TestRouter_RequestIDHeader(t *testing.T) {
	h := newTestHandler(t, directory.NewGate(true, "ok"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	// Un request id del cliente se propaga tal cual.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestRouter_UnknownRouteIsJSON404(t *testing.T) {
	h := newTestHandler(t, directory.NewGate(true, "ok"))

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestNormalizePath(t *testing.T) {
	long := "/callback/" + strings.Repeat("x", 64)
	cases := map[string]string{
		"":                      "/",
		"/health":               "/health",
		"/__/auth/handler":      "/__/auth/*",
		"/__/auth/iframe":       "/__/auth/*",
		"/auth/google/callback": "/auth/google/callback",
		long:                    "/callback/:param",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
