package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_DefaultsAndValidation(t *testing.T) {
	path := writeTempConfig(t, `
google:
  client_id: cid
  client_secret: csec
  redirect_url: https://relay.example/auth/google/callback
relay:
  state_secret: s3cret
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Addr != ":3000" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Cache.Kind != "memory" {
		t.Fatalf("cache kind = %q", cfg.Cache.Kind)
	}
	if cfg.Relay.AppScheme != "physioquantum" {
		t.Fatalf("app scheme = %q", cfg.Relay.AppScheme)
	}
	if cfg.Relay.StateTTL != 10*time.Minute {
		t.Fatalf("state ttl = %v", cfg.Relay.StateTTL)
	}
	if !cfg.RequireState() {
		t.Fatal("require_state debe defaultear a true")
	}
	if len(cfg.Google.Scopes) != 2 {
		t.Fatalf("scopes = %v", cfg.Google.Scopes)
	}
}

func TestLoad_MissingGoogleCredentialsFails(t *testing.T) {
	path := writeTempConfig(t, `
relay:
  state_secret: s3cret
`)
	if _, err := Load(path); err == nil {
		t.Fatal("sin client_id la carga debe fallar")
	}
}

func TestLoad_RequireStateNeedsSecret(t *testing.T) {
	path := writeTempConfig(t, `
google:
  client_id: cid
  client_secret: csec
  redirect_url: https://relay.example/cb
`)
	if _, err := Load(path); err == nil {
		t.Fatal("require_state sin state_secret debe fallar")
	}
}

func TestLoad_RequireStateDisabledSkipsSecret(t *testing.T) {
	path := writeTempConfig(t, `
google:
  client_id: cid
  client_secret: csec
  redirect_url: https://relay.example/cb
relay:
  require_state: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RequireState() {
		t.Fatal("require_state explícito en false debe respetarse")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "env-cid")
	t.Setenv("GOOGLE_CLIENT_SECRET", "env-secret")
	t.Setenv("GOOGLE_REDIRECT_URL", "https://env.example/cb")
	t.Setenv("RELAY_STATE_SECRET", "env-state-secret")
	t.Setenv("PORT", "8080")
	t.Setenv("CACHE_KIND", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("ANDROID_CLIENT_ID", "android-cid")
	t.Setenv("WEB_CLIENT_ID", "web-cid")
	t.Setenv("RELAY_STATE_TTL", "5m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Google.ClientID != "env-cid" {
		t.Fatalf("client_id = %q", cfg.Google.ClientID)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("PORT debe mapear al addr: %q", cfg.Server.Addr)
	}
	if cfg.Cache.Kind != "redis" || cfg.Cache.Redis.Addr != "redis:6379" {
		t.Fatalf("cache = %+v", cfg.Cache)
	}
	if len(cfg.Google.ExtraClientIDs) != 2 {
		t.Fatalf("extra client ids = %v", cfg.Google.ExtraClientIDs)
	}
	if cfg.Relay.StateTTL != 5*time.Minute {
		t.Fatalf("state ttl = %v", cfg.Relay.StateTTL)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "cid")
	t.Setenv("GOOGLE_CLIENT_SECRET", "csec")
	t.Setenv("GOOGLE_REDIRECT_URL", "https://relay.example/cb")
	t.Setenv("RELAY_STATE_SECRET", "s3cret")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("un path inexistente no es fatal: %v", err)
	}
	if cfg.Server.Addr != ":3000" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
}
