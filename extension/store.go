package extension

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/xraph/courseprice/store"
	"github.com/xraph/courseprice/store/memory"
	mongostore "github.com/xraph/courseprice/store/mongo"
	redisstore "github.com/xraph/courseprice/store/redis"
	"github.com/xraph/courseprice/store/sqlite"
)

// openStore builds the configured backend, wrapped in the Redis cache
// when RedisAddr is set.
func openStore(ctx context.Context, cfg Config) (store.Store, error) {
	var backend store.Store
	switch cfg.Store {
	case "", StoreMemory:
		backend = memory.New()
	case StoreSQLite:
		st, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		backend = st
	case StoreMongo:
		st, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		backend = st
	default:
		return nil, fmt.Errorf("courseprice: unknown store %q", cfg.Store)
	}

	if cfg.RedisAddr == "" {
		return backend, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	return redisstore.New(client, backend, redisstore.WithTTL(cfg.RedisTTL)), nil
}
