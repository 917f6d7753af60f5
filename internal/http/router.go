// Package http arma el router del relay: middlewares globales, rutas del
// flujo OAuth, diagnóstico, métricas y el proxy del auth-handler.
package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	healthctrl "github.com/physioquantum/auth-relay/internal/http/controllers/health"
	relayctrl "github.com/physioquantum/auth-relay/internal/http/controllers/relay"
	httperrors "github.com/physioquantum/auth-relay/internal/http/errors"
	mw "github.com/physioquantum/auth-relay/internal/http/middlewares"
	"github.com/physioquantum/auth-relay/internal/http/proxy"
)

// RouterDeps contiene las dependencias del router principal.
type RouterDeps struct {
	Relay  *relayctrl.Controllers
	Health *healthctrl.Controller
	Proxy  *proxy.Handler // opcional: sólo si hay upstream configurado

	// MetricsRegistry permite inyectar un registry propio en tests.
	// nil usa el registry global de prometheus.
	MetricsRegistry prometheus.Registerer
}

// NewRouter construye el handler raíz del servicio.
func NewRouter(deps RouterDeps) (stdhttp.Handler, error) {
	metricsHandler, err := RegisterMetrics(deps.MetricsRegistry)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(mw.WithRequestID())
	r.Use(mw.WithLogging())
	r.Use(WithMetrics)

	// Flujo OAuth del relay.
	r.Get("/auth/{provider}/init", deps.Relay.Init.Init)
	r.Get("/auth/{provider}/callback", deps.Relay.Callback.Callback)

	// Páginas de auth del proveedor, detrás del reverse proxy.
	if deps.Proxy != nil {
		r.Handle("/__/auth/*", deps.Proxy)
	}

	// Diagnóstico.
	r.Get("/health", deps.Health.Health)
	r.Get("/api/test", deps.Health.APITest)
	r.Handle("/metrics", metricsHandler)

	r.NotFound(func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	return r, nil
}
