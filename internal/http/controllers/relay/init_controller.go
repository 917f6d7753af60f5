package relay

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	httperrors "github.com/physioquantum/auth-relay/internal/http/errors"
	"github.com/physioquantum/auth-relay/internal/observability/logger"
	relaysvc "github.com/physioquantum/auth-relay/internal/relay"
)

// InitController inicia el flujo de autorización.
type InitController struct {
	service  *relaysvc.Service
	provider string
}

func NewInitController(service *relaysvc.Service, provider string) *InitController {
	return &InitController{service: service, provider: provider}
}

type initResponse struct {
	AuthURL string `json:"authUrl"`
}

// Init maneja GET /auth/{provider}/init
func (c *InitController) Init(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("InitController.Init"))

	provider := chi.URLParam(r, "provider")
	if !strings.EqualFold(provider, c.provider) {
		log.Warn("unknown provider", logger.Provider(provider))
		httperrors.WriteError(w, httperrors.ErrNotFound.WithDetail("provider not enabled"))
		return
	}

	redirectURI := strings.TrimSpace(r.URL.Query().Get("redirect_uri"))

	authURL, err := c.service.Start(ctx, redirectURI)
	if err != nil {
		log.Error("init failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(initResponse{AuthURL: authURL})
}
