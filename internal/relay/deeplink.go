package relay

import "net/url"

// DeepLink arma las URIs de retorno al cliente nativo. Es la única forma en
// que un resultado (credencial o error) sale del callback hacia el móvil.
type DeepLink struct {
	// Scheme del cliente, ej. "physioquantum".
	Scheme string
}

const deepLinkPath = "://auth/callback"

// Success codifica la credencial. En modo fallback agrega el marcador provider.
// Todos los valores van percent-encoded; nunca se interpola texto sin escapar.
func (d DeepLink) Success(c *SessionCredential) string {
	q := url.Values{}
	q.Set("token", c.Value)
	if c.Email != "" {
		q.Set("email", c.Email)
	}
	if c.DisplayName != "" {
		q.Set("name", c.DisplayName)
	}
	if c.Kind == ProviderToken && c.Provider != "" {
		q.Set("provider", c.Provider)
	}
	return d.Scheme + deepLinkPath + "?" + q.Encode()
}

// Error codifica un mensaje terminal de error, con perfil parcial si lo hay.
func (d DeepLink) Error(msg string, partial *Profile) string {
	q := url.Values{}
	q.Set("error", msg)
	if partial != nil {
		if partial.Email != "" {
			q.Set("email", partial.Email)
		}
		if partial.Name != "" {
			q.Set("name", partial.Name)
		}
	}
	return d.Scheme + deepLinkPath + "?" + q.Encode()
}
