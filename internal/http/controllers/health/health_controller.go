// Package health contiene los endpoints de diagnóstico.
package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/physioquantum/auth-relay/internal/directory"
)

// Controller sirve /health y /api/test.
type Controller struct {
	gate *directory.Gate
	env  string
}

func NewController(gate *directory.Gate, env string) *Controller {
	return &Controller{gate: gate, env: env}
}

type healthResponse struct {
	Status    string          `json:"status"`
	Directory directoryHealth `json:"directory"`
}

type directoryHealth struct {
	Initialized bool   `json:"initialized"`
	Detail      string `json:"detail,omitempty"`
}

// Health maneja GET /health. El servicio está "ok" aun con el directorio
// caído: eso es modo degradado, no indisponibilidad.
func (c *Controller) Health(w http.ResponseWriter, r *http.Request) {
	detail := ""
	if !c.gate.Ready() {
		detail = c.gate.Detail()
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status: "ok",
		Directory: directoryHealth{
			Initialized: c.gate.Ready(),
			Detail:      detail,
		},
	})
}

type testResponse struct {
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
}

// APITest maneja GET /api/test, un smoke check para el cliente móvil.
func (c *Controller) APITest(w http.ResponseWriter, r *http.Request) {
	env := c.env
	if env == "" {
		env = "development"
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(testResponse{
		Message:     "Server is working properly!",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Environment: env,
	})
}
