package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/invorya/ledger-api/internal/application/ledger"
	"github.com/invorya/ledger-api/internal/domain/entity"
	"github.com/invorya/ledger-api/pkg/config"
)

var _ ledger.BalanceCache = (*BalanceCache)(nil)

// BalanceCache caché Redis del camino externo de consulta de saldos. Las
// cantidades viajan como string decimal, nunca como float. Un miss o un Redis
// caído degradan a leer la tabla materializada; jamás inventan un saldo.
type BalanceCache struct {
	client *redis.Client
}

// NewClient crea el cliente Redis desde la configuración y verifica
// conectividad.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// New construye la caché sobre un cliente ya conectado.
func New(client *redis.Client) *BalanceCache {
	return &BalanceCache{client: client}
}

func cacheKey(key entity.BalanceKey) string {
	return "balance:" + key.String()
}

// Get devuelve (cantidad, true) en hit; (cero, false) en miss.
func (c *BalanceCache) Get(ctx context.Context, key entity.BalanceKey) (decimal.Decimal, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("cache get: %w", err)
	}
	qty, err := decimal.NewFromString(raw)
	if err != nil {
		// Valor corrupto: tratarlo como miss y dejar que el Set lo reescriba.
		return decimal.Zero, false, nil
	}
	return qty, true, nil
}

// Set escribe la cantidad con TTL.
func (c *BalanceCache) Set(ctx context.Context, key entity.BalanceKey, qty decimal.Decimal, ttl time.Duration) error {
	if err := c.client.Set(ctx, cacheKey(key), qty.String(), ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate borra las claves tras confirmar un workflow que las tocó.
func (c *BalanceCache) Invalidate(ctx context.Context, keys ...entity.BalanceKey) error {
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = cacheKey(k)
	}
	if err := c.client.Del(ctx, names...).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
