package relay

import "errors"

// Taxonomía de fallas del pipeline del callback. DirectoryUnavailable no está
// acá: se recupera con el fallback de credencial y nunca llega al cliente.
var (
	ErrMissingAuthorizationCode = errors.New("missing authorization code")
	ErrInvalidState             = errors.New("invalid or expired state")
	ErrProviderExchangeFailed   = errors.New("authorization code exchange failed")
	ErrProviderProfileFailed    = errors.New("profile fetch failed")
)
