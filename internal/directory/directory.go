// Package directory adapta el backend de identidad (Firebase Auth):
// reconciliación get-or-create por email y minteo de custom tokens.
package directory

import (
	"context"
	"errors"
)

// Profile es la identidad verificada que llega del proveedor OAuth.
// El email ya viene verificado por el proveedor; no se re-verifica.
type Profile struct {
	Email   string
	Name    string
	Picture string
}

// User es el registro estable del directorio. Para un email dado, UID es
// estable entre llamadas repetidas (creación idempotente).
type User struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// Service expone las operaciones del directorio que usa el relay.
type Service interface {
	// GetOrCreate busca el usuario por email y lo crea si no existe,
	// con emailVerified=true. Idempotente: mismo email ⇒ mismo UID.
	GetOrCreate(ctx context.Context, p Profile) (*User, error)

	// MintToken emite un custom token de sesión para el UID dado.
	MintToken(ctx context.Context, uid string) (string, error)
}

// ErrUnavailable señala un error transitorio del backend. "No encontrado" es
// una rama esperada de GetOrCreate, nunca ErrUnavailable. El callback lo
// recupera con el fallback de credencial, no aborta el request.
var ErrUnavailable = errors.New("directory: backend unavailable")
