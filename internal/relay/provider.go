package relay

import (
	"context"

	"github.com/physioquantum/auth-relay/internal/oauth/google"
)

// TokenSet son los tokens del proveedor, propiedad exclusiva del request que
// atiende el callback. No se persisten.
type TokenSet struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	ExpiresIn    int
}

// Profile es el perfil retornado por el userinfo endpoint del proveedor.
type Profile struct {
	Email   string
	Name    string
	Picture string
}

// Provider abstrae el proveedor OAuth para el pipeline y los tests.
type Provider interface {
	AuthURL(ctx context.Context, state, redirectURI string) (string, error)
	Exchange(ctx context.Context, code, redirectURI string) (*TokenSet, error)
	UserInfo(ctx context.Context, accessToken string) (*Profile, error)
}

// googleProvider adapta el cliente de internal/oauth/google a Provider.
type googleProvider struct {
	oauth *google.OAuth
}

// NewGoogleProvider envuelve el cliente OAuth de Google.
func NewGoogleProvider(o *google.OAuth) Provider {
	return &googleProvider{oauth: o}
}

func (p *googleProvider) AuthURL(ctx context.Context, state, redirectURI string) (string, error) {
	return p.oauth.AuthURL(ctx, state, redirectURI)
}

func (p *googleProvider) Exchange(ctx context.Context, code, redirectURI string) (*TokenSet, error) {
	tr, err := p.oauth.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return nil, err
	}
	return &TokenSet{
		AccessToken:  tr.AccessToken,
		IDToken:      tr.IDToken,
		RefreshToken: tr.RefreshTok,
		ExpiresIn:    tr.ExpiresIn,
	}, nil
}

func (p *googleProvider) UserInfo(ctx context.Context, accessToken string) (*Profile, error) {
	ui, err := p.oauth.FetchUserInfo(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return &Profile{
		Email:   ui.Email,
		Name:    ui.Name,
		Picture: ui.Picture,
	}, nil
}
