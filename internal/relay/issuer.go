package relay

import (
	"context"

	"github.com/physioquantum/auth-relay/internal/directory"
	"github.com/physioquantum/auth-relay/internal/observability/logger"
	"github.com/physioquantum/auth-relay/internal/util"
)

// CredentialKind distingue la credencial de sesión emitida.
type CredentialKind string

const (
	// DirectoryToken: custom token minteado por el directorio (camino feliz).
	DirectoryToken CredentialKind = "directory"
	// ProviderToken: id_token del proveedor, entregado cuando el directorio
	// no está disponible. Lleva marcador de provider para que el cliente
	// elija el sign-in correcto.
	ProviderToken CredentialKind = "provider"
)

// SessionCredential siempre carga identidad suficiente (email, nombre) para
// que el cliente complete el sign-in incluso en modo ProviderToken.
type SessionCredential struct {
	Kind        CredentialKind
	Value       string
	Email       string
	DisplayName string
	// Provider se setea sólo en modo fallback.
	Provider string
}

// Issuer decide qué credencial emitir según el estado del directorio.
//
// Propiedad definitoria: una caída del directorio degrada el tipo de
// credencial, nunca bloquea la autenticación. Issue no tiene camino de error.
type Issuer struct {
	gate     *directory.Gate
	dir      directory.Service
	provider string
}

func NewIssuer(gate *directory.Gate, dir directory.Service, provider string) *Issuer {
	return &Issuer{gate: gate, dir: dir, provider: provider}
}

// Issue corre la máquina de estados del callback:
//
//	gate cerrado            ⇒ ProviderToken (short-circuit)
//	getOrCreate falla       ⇒ ProviderToken (fallback)
//	mint falla              ⇒ ProviderToken (fallback)
//	mint ok                 ⇒ DirectoryToken
func (i *Issuer) Issue(ctx context.Context, tokens *TokenSet, profile *Profile) *SessionCredential {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("relay.issuer"))

	fallback := &SessionCredential{
		Kind:        ProviderToken,
		Value:       tokens.IDToken,
		Email:       profile.Email,
		DisplayName: profile.Name,
		Provider:    i.provider,
	}

	if !i.gate.Ready() {
		log.Info("directory gate closed, issuing provider credential",
			logger.MaskedEmail(util.MaskEmail(profile.Email)),
		)
		return fallback
	}

	user, err := i.dir.GetOrCreate(ctx, directory.Profile{
		Email:   profile.Email,
		Name:    profile.Name,
		Picture: profile.Picture,
	})
	if err != nil {
		log.Warn("directory reconciliation failed, falling back to provider credential",
			logger.MaskedEmail(util.MaskEmail(profile.Email)),
			logger.Err(err),
		)
		return fallback
	}

	token, err := i.dir.MintToken(ctx, user.UID)
	if err != nil {
		log.Warn("custom token mint failed, falling back to provider credential",
			logger.UID(user.UID),
			logger.Err(err),
		)
		return fallback
	}

	log.Info("directory credential issued", logger.UID(user.UID))
	return &SessionCredential{
		Kind:        DirectoryToken,
		Value:       token,
		Email:       user.Email,
		DisplayName: displayName(user, profile),
	}
}

func displayName(u *directory.User, p *Profile) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return p.Name
}
