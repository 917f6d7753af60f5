// Package google implementa el cliente OAuth2/OIDC contra Google:
// discovery, URL de autorización, canje de code y userinfo.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultDiscoveryURL = "https://accounts.google.com/.well-known/openid-configuration"

type discoveryDoc struct {
	Issuer           string `json:"issuer"`
	AuthEndpoint     string `json:"authorization_endpoint"`
	TokenEndpoint    string `json:"token_endpoint"`
	UserinfoEndpoint string `json:"userinfo_endpoint"`
}

type OAuth struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// DiscoveryURL permite apuntar a un fixture en tests. Vacío usa Google.
	DiscoveryURL string

	http  *http.Client
	mu    sync.RWMutex
	disc  *discoveryDoc
	discU time.Time
}

func New(clientID, clientSecret, redirectURL string, scopes []string, timeout time.Duration) *OAuth {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OAuth{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       scopes,
		http:         &http.Client{Timeout: timeout},
	}
}

func (g *OAuth) discovery(ctx context.Context) (*discoveryDoc, error) {
	g.mu.RLock()
	disc := g.disc
	stale := time.Since(g.discU) > 24*time.Hour
	g.mu.RUnlock()
	if disc != nil && !stale {
		return disc, nil
	}
	durl := g.DiscoveryURL
	if durl == "" {
		durl = defaultDiscoveryURL
	}
	req, _ := http.NewRequestWithContext(ctx, "GET", durl, nil)
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("discovery http %d", resp.StatusCode)
	}
	var dd discoveryDoc
	if err := json.NewDecoder(resp.Body).Decode(&dd); err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.disc = &dd
	g.discU = time.Now()
	g.mu.Unlock()
	return &dd, nil
}

// AuthURL construye la URL de autorización. redirectURI vacío usa el default.
// Pide acceso offline y consentimiento forzado para garantizar refresh_token.
func (g *OAuth) AuthURL(ctx context.Context, state, redirectURI string) (string, error) {
	disc, err := g.discovery(ctx)
	if err != nil {
		return "", err
	}
	if redirectURI == "" {
		redirectURI = g.RedirectURL
	}
	u, err := url.Parse(disc.AuthEndpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", g.ClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("scope", strings.Join(g.Scopes, " "))
	q.Set("state", state)
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	RefreshTok  string `json:"refresh_token,omitempty"`
}

// ExchangeCode canjea el authorization code por tokens.
// redirectURI debe coincidir con el usado en AuthURL; vacío usa el default.
func (g *OAuth) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenResponse, error) {
	disc, err := g.discovery(ctx)
	if err != nil {
		return nil, err
	}
	if redirectURI == "" {
		redirectURI = g.RedirectURL
	}
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", g.ClientID)
	form.Set("client_secret", g.ClientSecret)
	form.Set("redirect_uri", redirectURI)

	req, _ := http.NewRequestWithContext(ctx, "POST", disc.TokenEndpoint, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		var b struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&b)
		return nil, fmt.Errorf("token http %d: %s %s", resp.StatusCode, b.Error, b.ErrorDescription)
	}
	var tr TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		return nil, errors.New("token response sin access_token")
	}
	return &tr, nil
}

// UserInfo contiene el perfil retornado por el userinfo endpoint (v2 shape).
type UserInfo struct {
	Sub           string `json:"sub"`
	ID            string `json:"id"` // alias legacy de sub en oauth2/v2
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale"`
}

// FetchUserInfo obtiene el perfil con el access token del canje.
func (g *OAuth) FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	disc, err := g.discovery(ctx)
	if err != nil {
		return nil, err
	}
	req, _ := http.NewRequestWithContext(ctx, "GET", disc.UserinfoEndpoint, nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("userinfo http %d", resp.StatusCode)
	}
	var ui UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&ui); err != nil {
		return nil, err
	}
	if ui.Sub == "" && ui.ID != "" {
		ui.Sub = ui.ID
	}
	if ui.Email == "" {
		return nil, errors.New("userinfo sin email")
	}
	return &ui, nil
}
