package relay

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	httperrors "github.com/physioquantum/auth-relay/internal/http/errors"
	"github.com/physioquantum/auth-relay/internal/observability/logger"
	relaysvc "github.com/physioquantum/auth-relay/internal/relay"
)

// CallbackController maneja el callback del proveedor OAuth.
type CallbackController struct {
	service       *relaysvc.Service
	provider      string
	recordOutcome func(string)
}

func NewCallbackController(service *relaysvc.Service, provider string, recordOutcome func(string)) *CallbackController {
	return &CallbackController{service: service, provider: provider, recordOutcome: recordOutcome}
}

// Callback maneja GET /auth/{provider}/callback
//
// Esta superficie sirve al cliente móvil, que sólo entiende el contrato del
// deep link: el resultado SIEMPRE sale como 302, nunca como error HTTP crudo.
func (c *CallbackController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CallbackController.Callback"))

	provider := chi.URLParam(r, "provider")
	if !strings.EqualFold(provider, c.provider) {
		// Un provider desconocido es un request de navegador mal armado,
		// no un callback del flujo: acá sí respondemos JSON.
		log.Warn("unknown provider", logger.Provider(provider))
		httperrors.WriteError(w, httperrors.ErrNotFound.WithDetail("provider not enabled"))
		return
	}

	q := r.URL.Query()
	code := strings.TrimSpace(q.Get("code"))
	state := strings.TrimSpace(q.Get("state"))

	result := c.service.Callback(ctx, code, state)
	if c.recordOutcome != nil {
		c.recordOutcome(string(result.Outcome))
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}
