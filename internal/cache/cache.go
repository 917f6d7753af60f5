// Package cache provee el store efímero para los nonces de state.
//
// Soporta:
//   - Memory (in-process, para desarrollo y single-instance)
//   - Redis (distribuido, para despliegues con más de una réplica)
package cache

import "time"

// Cache define las operaciones mínimas que necesita el relay.
type Cache interface {
	// Get obtiene un valor; el bool indica si la key existe.
	Get(key string) ([]byte, bool)

	// Set guarda un valor con TTL. TTL 0 usa el default del backend.
	Set(key string, value []byte, ttl time.Duration)

	// Delete elimina una key. Borrar una key inexistente no es error.
	Delete(key string)
}
