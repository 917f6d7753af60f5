// Package relay contiene los controllers del flujo OAuth del relay.
package relay

import relaysvc "github.com/physioquantum/auth-relay/internal/relay"

// Controllers agrupa los controllers del dominio relay.
type Controllers struct {
	Init     *InitController
	Callback *CallbackController
}

// NewControllers crea el agregador de controllers del relay.
// recordOutcome recibe el resultado terminal de cada callback (métricas).
func NewControllers(svc *relaysvc.Service, providerName string, recordOutcome func(string)) *Controllers {
	return &Controllers{
		Init:     NewInitController(svc, providerName),
		Callback: NewCallbackController(svc, providerName, recordOutcome),
	}
}
