package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL time.Duration `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Google struct {
		ClientID     string   `yaml:"client_id"`
		ClientSecret string   `yaml:"client_secret"`
		RedirectURL  string   `yaml:"redirect_url"`
		Scopes       []string `yaml:"scopes"`
		// Client IDs adicionales (android/web) aceptados como audiencia.
		// Sólo el ClientID principal participa en el code flow.
		ExtraClientIDs []string `yaml:"extra_client_ids"`
	} `yaml:"google"`

	Relay struct {
		// Esquema del deep link de retorno al cliente nativo.
		AppScheme string `yaml:"app_scheme"`
		// Secreto HMAC para firmar el state JWT.
		StateSecret string `yaml:"state_secret"`
		StateTTL    time.Duration `yaml:"state_ttl"`
		// Si true, el callback exige un state firmado y con nonce vigente.
		RequireState *bool `yaml:"require_state"`
		// Timeout por llamada externa (exchange, userinfo, directorio).
		UpstreamTimeout time.Duration `yaml:"upstream_timeout"`
	} `yaml:"relay"`

	Directory struct {
		// Ruta al service-account JSON. Alternativa: DIRECTORY_CREDENTIALS_JSON inline.
		CredentialsFile string `yaml:"credentials_file"`
		CredentialsJSON string `yaml:"-"`
		ProjectID       string `yaml:"project_id"`
	} `yaml:"directory"`

	Proxy struct {
		// Base URL del auth-handler alojado por el proveedor (páginas /__/auth/*).
		Upstream string        `yaml:"upstream"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"proxy"`
}

// Load lee el YAML (opcional), aplica defaults y pisa con variables de entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == 0 {
		c.Cache.Memory.DefaultTTL = 2 * time.Minute
	}
	if len(c.Google.Scopes) == 0 {
		c.Google.Scopes = []string{
			"https://www.googleapis.com/auth/userinfo.profile",
			"https://www.googleapis.com/auth/userinfo.email",
		}
	}
	if c.Relay.AppScheme == "" {
		c.Relay.AppScheme = "physioquantum"
	}
	if c.Relay.StateTTL == 0 {
		c.Relay.StateTTL = 10 * time.Minute
	}
	if c.Relay.UpstreamTimeout == 0 {
		c.Relay.UpstreamTimeout = 10 * time.Second
	}
	if c.Proxy.Timeout == 0 {
		c.Proxy.Timeout = 10 * time.Second
	}

	c.applyEnvOverrides()

	if c.Relay.RequireState == nil {
		v := true
		c.Relay.RequireState = &v
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate chequea lo mínimo para arrancar. La credencial del directorio NO se
// valida acá: eso es trabajo del readiness gate y su falla no impide arrancar.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Google.ClientID) == "" {
		return errors.New("config: google.client_id requerido")
	}
	if strings.TrimSpace(c.Google.ClientSecret) == "" {
		return errors.New("config: google.client_secret requerido")
	}
	if strings.TrimSpace(c.Google.RedirectURL) == "" {
		return errors.New("config: google.redirect_url requerido")
	}
	if *c.Relay.RequireState && strings.TrimSpace(c.Relay.StateSecret) == "" {
		return errors.New("config: relay.state_secret requerido cuando relay.require_state")
	}
	return nil
}

// RequireState resuelve el puntero con su default.
func (c *Config) RequireState() bool {
	return c.Relay.RequireState == nil || *c.Relay.RequireState
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	// Compat con el despliegue original: PORT=3000
	if v, ok := getEnvStr("PORT"); ok && !strings.Contains(v, ":") {
		c.Server.Addr = ":" + v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}
	if v, ok := getEnvDur("CACHE_MEMORY_DEFAULT_TTL"); ok {
		c.Cache.Memory.DefaultTTL = v
	}

	if v, ok := getEnvStr("GOOGLE_CLIENT_ID"); ok {
		c.Google.ClientID = v
	}
	if v, ok := getEnvStr("GOOGLE_CLIENT_SECRET"); ok {
		c.Google.ClientSecret = v
	}
	if v, ok := getEnvStr("GOOGLE_REDIRECT_URL"); ok {
		c.Google.RedirectURL = v
	}
	if v, ok := getEnvCSV("GOOGLE_SCOPES"); ok && len(v) > 0 {
		c.Google.Scopes = v
	}
	if v, ok := getEnvCSV("GOOGLE_EXTRA_CLIENT_IDS"); ok {
		c.Google.ExtraClientIDs = v
	}
	// Aliases del despliegue original
	if v, ok := getEnvStr("ANDROID_CLIENT_ID"); ok {
		c.Google.ExtraClientIDs = append(c.Google.ExtraClientIDs, v)
	}
	if v, ok := getEnvStr("WEB_CLIENT_ID"); ok {
		c.Google.ExtraClientIDs = append(c.Google.ExtraClientIDs, v)
	}

	if v, ok := getEnvStr("RELAY_APP_SCHEME"); ok {
		c.Relay.AppScheme = v
	}
	if v, ok := getEnvStr("RELAY_STATE_SECRET"); ok {
		c.Relay.StateSecret = v
	}
	if v, ok := getEnvDur("RELAY_STATE_TTL"); ok {
		c.Relay.StateTTL = v
	}
	if v, ok := getEnvBool("RELAY_REQUIRE_STATE"); ok {
		c.Relay.RequireState = &v
	}
	if v, ok := getEnvDur("RELAY_UPSTREAM_TIMEOUT"); ok {
		c.Relay.UpstreamTimeout = v
	}

	if v, ok := getEnvStr("DIRECTORY_CREDENTIALS_FILE"); ok {
		c.Directory.CredentialsFile = v
	}
	if v, ok := getEnvStr("DIRECTORY_CREDENTIALS_JSON"); ok {
		c.Directory.CredentialsJSON = v
	}
	if v, ok := getEnvStr("DIRECTORY_PROJECT_ID"); ok {
		c.Directory.ProjectID = v
	}

	if v, ok := getEnvStr("PROXY_UPSTREAM"); ok {
		c.Proxy.Upstream = v
	}
	if v, ok := getEnvDur("PROXY_TIMEOUT"); ok {
		c.Proxy.Timeout = v
	}
}
