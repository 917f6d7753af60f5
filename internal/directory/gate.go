package directory

import (
	"context"

	"github.com/physioquantum/auth-relay/internal/observability/logger"
)

// Gate captura el resultado de la inicialización del directorio.
// Se evalúa UNA vez al arrancar y después es de sólo lectura; recuperarse de
// una inicialización fallida requiere reiniciar el proceso.
type Gate struct {
	ready  bool
	detail string
}

// NewGate arma un gate ya resuelto. Útil para wiring manual y tests.
func NewGate(ready bool, detail string) *Gate {
	return &Gate{ready: ready, detail: detail}
}

func (g *Gate) Ready() bool { return g != nil && g.ready }

// Detail es el diagnóstico de la evaluación. Nunca contiene key material.
func (g *Gate) Detail() string {
	if g == nil {
		return "not evaluated"
	}
	return g.detail
}

// Evaluate construye el cliente del directorio y fija el gate según el
// resultado. Una falla deja el servicio en modo degradado (sólo fallback),
// no impide arrancar.
func Evaluate(ctx context.Context, creds Credentials) (Service, *Gate) {
	log := logger.From(ctx).With(logger.Component("directory.gate"))

	svc, err := NewFirebase(ctx, creds)
	if err != nil {
		log.Warn("directory initialization failed, serving in degraded mode", logger.Err(err))
		return nil, &Gate{ready: false, detail: err.Error()}
	}
	log.Info("directory initialized")
	return svc, &Gate{ready: true, detail: "ok"}
}
