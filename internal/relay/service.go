package relay

import (
	"context"
	"fmt"

	"github.com/physioquantum/auth-relay/internal/audit"
	"github.com/physioquantum/auth-relay/internal/observability/logger"
	"github.com/physioquantum/auth-relay/internal/util"
)

// Outcome etiqueta el resultado terminal de un callback, para métricas.
type Outcome string

const (
	OutcomeDirectoryToken Outcome = "directory_token"
	OutcomeProviderToken  Outcome = "provider_token"
	OutcomeMissingCode    Outcome = "missing_code"
	OutcomeInvalidState   Outcome = "invalid_state"
	OutcomeExchangeFailed Outcome = "exchange_failed"
	OutcomeProfileFailed  Outcome = "profile_failed"
)

// CallbackResult siempre trae una URL de deep link: el camino del callback
// nunca devuelve un error HTTP crudo al cliente móvil.
type CallbackResult struct {
	RedirectURL string
	Outcome     Outcome
}

// Deps agrupa las dependencias del servicio.
type Deps struct {
	Provider     Provider
	ProviderName string
	Signer       *StateSigner
	Issuer       *Issuer
	Links        DeepLink
	RequireState bool
}

// Service implementa el pipeline init/callback del relay.
type Service struct {
	provider     Provider
	providerName string
	signer       *StateSigner
	issuer       *Issuer
	links        DeepLink
	requireState bool
}

func NewService(d Deps) *Service {
	return &Service{
		provider:     d.Provider,
		providerName: d.ProviderName,
		signer:       d.Signer,
		issuer:       d.Issuer,
		links:        d.Links,
		requireState: d.RequireState,
	}
}

// Start genera el state firmado y la URL de autorización del proveedor.
// redirectURI vacío usa el callback configurado.
func (s *Service) Start(ctx context.Context, redirectURI string) (string, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("relay.start"))

	state, err := s.signer.Sign(s.providerName, redirectURI)
	if err != nil {
		log.Error("failed to sign state", logger.Err(err))
		return "", fmt.Errorf("sign state: %w", err)
	}

	authURL, err := s.provider.AuthURL(ctx, state, redirectURI)
	if err != nil {
		log.Error("failed to build auth url", logger.Err(err))
		return "", fmt.Errorf("auth url: %w", err)
	}

	log.Info("authorization flow started", logger.Provider(s.providerName))
	return authURL, nil
}

// Callback corre el pipeline completo del callback OAuth. Nunca devuelve
// error: toda falla termina en un deep link con parámetro error.
//
// Orden canónico: guard de code, validación de state, canje incondicional,
// perfil, y recién en la reconciliación de identidad interviene el gate.
func (s *Service) Callback(ctx context.Context, code, state string) *CallbackResult {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("relay.callback"))

	// Guard: sin code no hay ninguna llamada de red.
	if code == "" {
		log.Warn("callback without authorization code")
		audit.Log(ctx, "auth.callback.failed", map[string]any{"reason": "missing_code"})
		return &CallbackResult{
			RedirectURL: s.links.Error(ErrMissingAuthorizationCode.Error(), nil),
			Outcome:     OutcomeMissingCode,
		}
	}

	// El callback se liga al request de autorización que responde: state
	// firmado y nonce single-use, fallando cerrado.
	var redirectOverride string
	if s.requireState {
		claims, err := s.signer.Consume(state)
		if err != nil {
			log.Warn("state validation failed", logger.Err(err))
			audit.Log(ctx, "auth.callback.failed", map[string]any{"reason": "invalid_state"})
			return &CallbackResult{
				RedirectURL: s.links.Error(ErrInvalidState.Error(), nil),
				Outcome:     OutcomeInvalidState,
			}
		}
		redirectOverride = claims.RedirectURI
	}

	tokens, err := s.provider.Exchange(ctx, code, redirectOverride)
	if err != nil {
		// Los codes son single-use: no hay retry.
		log.Error("code exchange failed",
			logger.Provider(s.providerName),
			logger.Credential(util.MaskToken(code)),
			logger.Err(err),
		)
		audit.Log(ctx, "auth.callback.failed", map[string]any{"reason": "exchange_failed"})
		return &CallbackResult{
			RedirectURL: s.links.Error("Authentication failed", nil),
			Outcome:     OutcomeExchangeFailed,
		}
	}

	profile, err := s.provider.UserInfo(ctx, tokens.AccessToken)
	if err != nil {
		log.Error("profile fetch failed", logger.Provider(s.providerName), logger.Err(err))
		audit.Log(ctx, "auth.callback.failed", map[string]any{"reason": "profile_failed"})
		return &CallbackResult{
			RedirectURL: s.links.Error("Authentication failed", nil),
			Outcome:     OutcomeProfileFailed,
		}
	}

	cred := s.issuer.Issue(ctx, tokens, profile)

	outcome := OutcomeDirectoryToken
	event := "auth.callback.issued"
	if cred.Kind == ProviderToken {
		outcome = OutcomeProviderToken
		event = "auth.callback.fallback"
	}
	audit.Log(ctx, event, map[string]any{
		"provider": s.providerName,
		"email":    util.MaskEmail(cred.Email),
		"kind":     string(cred.Kind),
	})

	return &CallbackResult{
		RedirectURL: s.links.Success(cred),
		Outcome:     outcome,
	}
}
