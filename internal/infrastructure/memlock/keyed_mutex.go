package memlock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/invorya/ledger-api/internal/domain"
	"github.com/invorya/ledger-api/internal/domain/entity"
)

// KeyedMutex guard de concurrencia en proceso: un mutex por clave de saldo.
// Suficiente para despliegues de una sola instancia; con varias instancias
// usar el guard de advisory locks de PostgreSQL (misma interfaz).
//
// Las claves se adquieren siempre en el orden definido por
// entity.BalanceKey.String(), el mismo para todos los callers: dos traslados
// en direcciones opuestas piden los mismos mutexes en el mismo orden y no
// pueden bloquearse mutuamente.
type KeyedMutex struct {
	mu      sync.Mutex
	locks   map[string]chan struct{}
	timeout time.Duration
}

// New construye el guard con el timeout de adquisición por clave.
func New(timeout time.Duration) *KeyedMutex {
	return &KeyedMutex{
		locks:   make(map[string]chan struct{}),
		timeout: timeout,
	}
}

// chanFor devuelve el canal-mutex de la clave, creándolo si no existe.
// Las entradas no se purgan: el universo de claves (producto × bodega × lote)
// es acotado.
func (k *KeyedMutex) chanFor(key string) chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()
	ch, ok := k.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		k.locks[key] = ch
	}
	return ch
}

// Acquire bloquea todas las claves (ordenadas, sin duplicados) o ninguna. Al
// exceder el timeout en cualquiera, libera las ya adquiridas y devuelve
// *domain.LockTimeoutError. La release devuelta es idempotente respecto al
// orden: libera en orden inverso.
func (k *KeyedMutex) Acquire(ctx context.Context, keys ...entity.BalanceKey) (func(), error) {
	names := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		s := key.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		names = append(names, s)
	}
	sort.Strings(names)

	acquired := make([]chan struct{}, 0, len(names))
	releaseAcquired := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			<-acquired[i]
		}
	}

	timer := time.NewTimer(k.timeout)
	defer timer.Stop()

	for _, name := range names {
		ch := k.chanFor(name)
		select {
		case ch <- struct{}{}:
			acquired = append(acquired, ch)
		case <-timer.C:
			releaseAcquired()
			return nil, &domain.LockTimeoutError{Key: name, Timeout: k.timeout}
		case <-ctx.Done():
			releaseAcquired()
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() { once.Do(releaseAcquired) }, nil
}
