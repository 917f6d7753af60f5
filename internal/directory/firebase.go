package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Credentials describe de dónde sale el service account.
// Exactamente uno de File o JSON debe estar presente; nunca hardcodeado.
type Credentials struct {
	File      string
	JSON      string
	ProjectID string
}

// Firebase implementa Service contra Firebase Auth.
type Firebase struct {
	client *fbauth.Client
}

// NewFirebase valida el material de la credencial y construye el cliente admin.
// Un error acá cierra el readiness gate pero no impide arrancar el proceso.
func NewFirebase(ctx context.Context, creds Credentials) (*Firebase, error) {
	raw, err := loadCredentialMaterial(creds)
	if err != nil {
		return nil, err
	}
	if err := validateServiceAccount(raw); err != nil {
		return nil, err
	}

	cfg := &firebase.Config{ProjectID: creds.ProjectID}
	app, err := firebase.NewApp(ctx, cfg, option.WithCredentialsJSON(raw))
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &Firebase{client: client}, nil
}

func loadCredentialMaterial(creds Credentials) ([]byte, error) {
	switch {
	case strings.TrimSpace(creds.JSON) != "":
		return []byte(creds.JSON), nil
	case strings.TrimSpace(creds.File) != "":
		b, err := os.ReadFile(creds.File)
		if err != nil {
			return nil, fmt.Errorf("service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("no service account configured")
	}
}

// validateServiceAccount chequea los campos mínimos del key material antes de
// entregárselo al SDK, para que el diagnóstico del gate sea útil.
func validateServiceAccount(raw []byte) error {
	var sa struct {
		Type        string `json:"type"`
		ProjectID   string `json:"project_id"`
		PrivateKey  string `json:"private_key"`
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(raw, &sa); err != nil {
		return fmt.Errorf("service account parse: %w", err)
	}
	var missing []string
	if sa.ProjectID == "" {
		missing = append(missing, "project_id")
	}
	if sa.PrivateKey == "" {
		missing = append(missing, "private_key")
	}
	if sa.ClientEmail == "" {
		missing = append(missing, "client_email")
	}
	if len(missing) > 0 {
		return fmt.Errorf("service account missing fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (f *Firebase) GetOrCreate(ctx context.Context, p Profile) (*User, error) {
	u, err := f.client.GetUserByEmail(ctx, p.Email)
	if err == nil {
		return fromRecord(u), nil
	}
	if !fbauth.IsUserNotFound(err) {
		return nil, fmt.Errorf("%w: lookup: %v", ErrUnavailable, err)
	}

	params := (&fbauth.UserToCreate{}).
		Email(p.Email).
		EmailVerified(true)
	if p.Name != "" {
		params = params.DisplayName(p.Name)
	}
	if p.Picture != "" {
		params = params.PhotoURL(p.Picture)
	}

	created, err := f.client.CreateUser(ctx, params)
	if err != nil {
		// Carrera con otro callback del mismo email: la creación es
		// idempotente a nivel de contrato, releemos por email.
		if u, lerr := f.client.GetUserByEmail(ctx, p.Email); lerr == nil {
			return fromRecord(u), nil
		}
		return nil, fmt.Errorf("%w: create: %v", ErrUnavailable, err)
	}
	return fromRecord(created), nil
}

func (f *Firebase) MintToken(ctx context.Context, uid string) (string, error) {
	tok, err := f.client.CustomToken(ctx, uid)
	if err != nil {
		return "", fmt.Errorf("%w: mint: %v", ErrUnavailable, err)
	}
	return tok, nil
}

func fromRecord(u *fbauth.UserRecord) *User {
	return &User{
		UID:         u.UID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
	}
}
