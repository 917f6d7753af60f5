// Package audit emite eventos de auditoría estructurados.
//
// Regla dura: tokens, authorization codes y emails en claro NUNCA entran acá;
// el caller enmascara con util.MaskEmail / util.MaskToken antes de loguear.
package audit

import (
	"context"
	"time"

	"github.com/physioquantum/auth-relay/internal/observability/logger"
	"go.uber.org/zap"
)

// Log escribe un evento de auditoría. A futuro puede colgarse un sink externo.
func Log(ctx context.Context, event string, fields map[string]any) {
	zf := make([]zap.Field, 0, len(fields)+2)
	zf = append(zf,
		zap.String("event", event),
		zap.Time("ts", time.Now().UTC()),
	)
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	logger.From(ctx).With(zap.String("channel", "audit")).Info(event, zf...)
}
