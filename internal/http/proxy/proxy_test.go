package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProxy_MirrorsUpstreamResponse(t *testing.T) {
	var seenHost, seenPath, seenHeader string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenHost = r.Host
		seenPath = r.URL.Path
		seenHeader = r.Header.Get("X-Custom")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>auth handler page</html>"))
	}))
	defer upstream.Close()

	h, err := New(upstream.URL, 5*time.Second, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/__/auth/handler?apiKey=k", nil)
	req.Header.Set("X-Custom", "v1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "<html>auth handler page</html>", rec.Body.String())
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Equal(t, "yes", rec.Header().Get("X-Upstream"))

	// El Host debe ser el del upstream (virtual hosting), el path intacto.
	require.Equal(t, strings.TrimPrefix(upstream.URL, "http://"), seenHost)
	require.Equal(t, "/__/auth/handler", seenPath)
	require.Equal(t, "v1", seenHeader)
}

func TestProxy_ForwardsMethodAndBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(r.Method + ":" + string(body)))
	}))
	defer upstream.Close()

	h, err := New(upstream.URL, 5*time.Second, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/__/auth/iframe", strings.NewReader("payload"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "POST:payload", rec.Body.String())
}

func TestProxy_DeadUpstreamReturns502(t *testing.T) {
	// Puerto cerrado: la conexión falla de inmediato.
	var upstreamErrors int
	h, err := New("http://127.0.0.1:1", time.Second, func() { upstreamErrors++ })
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/__/auth/handler", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, 1, upstreamErrors)
	require.Contains(t, rec.Body.String(), "BAD_GATEWAY")
}

func TestProxy_InvalidUpstream(t *testing.T) {
	_, err := New("://not-a-url", time.Second, nil)
	require.Error(t, err)
}
