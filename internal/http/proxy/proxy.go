// Package proxy reenvía los requests del navegador a las páginas de auth
// alojadas por el proveedor (/__/auth/*). Es stateless y no toca el resto
// del pipeline.
package proxy

import (
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	httperrors "github.com/physioquantum/auth-relay/internal/http/errors"
	"github.com/physioquantum/auth-relay/internal/observability/logger"
)

// Handler es el reverse proxy del auth-handler.
type Handler struct {
	rp *httputil.ReverseProxy
}

// New construye el proxy hacia upstream. onUpstreamError (opcional) se invoca
// en cada falla de transporte, antes de responder 502.
func New(upstream string, timeout time.Duration, onUpstreamError func()) (*Handler, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	rp := httputil.NewSingleHostReverseProxy(target)

	// El upstream sirve por virtual host: el Host del request debe ser el suyo.
	director := rp.Director
	rp.Director = func(req *http.Request) {
		director(req)
		req.Host = target.Host
	}

	rp.Transport = &http.Transport{
		DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
	}

	// Upstream caído o timeout ⇒ 502, nunca una excepción de transporte cruda.
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.From(r.Context()).Warn("proxy upstream error",
			logger.Path(r.URL.Path),
			logger.Err(err),
		)
		if onUpstreamError != nil {
			onUpstreamError()
		}
		httperrors.WriteError(w, httperrors.ErrBadGateway.WithCause(err))
	}

	return &Handler{rp: rp}, nil
}

// ServeHTTP reenvía método, headers y body sin modificar, y espeja el status,
// headers y body del upstream.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.rp.ServeHTTP(w, r)
}
