package bootstrap

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/friendpin/friendpin-backend/config"
	"github.com/friendpin/friendpin-backend/internal/auth"
	"github.com/friendpin/friendpin-backend/internal/storage"
	firestorestore "github.com/friendpin/friendpin-backend/internal/storage/firestore"
	mongostore "github.com/friendpin/friendpin-backend/internal/storage/mongo"
	"github.com/friendpin/friendpin-backend/internal/storage/postgres"
	redisstore "github.com/friendpin/friendpin-backend/internal/storage/redis"
)

// NeedsFirebase reports whether the configuration uses any Firebase service
func NeedsFirebase(cfg *config.Config) bool {
	return cfg.Store.Backend == config.BackendFirestore || cfg.Auth.Enabled
}

// OpenStore connects the backend selected by STORE_BACKEND. fb is only used
// by the firestore backend and may be nil otherwise.
func OpenStore(ctx context.Context, cfg *config.Config, fb *auth.App, log zerolog.Logger) (storage.Store, error) {
	log = log.With().Str("backend", cfg.Store.Backend).Str("collection", cfg.Store.Collection).Logger()

	var (
		st  storage.Store
		err error
	)
	switch cfg.Store.Backend {
	case config.BackendFirestore:
		st, err = openFirestore(ctx, fb, cfg.Store.Collection)
	case config.BackendMongo:
		st, err = mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Store.Collection)
	case config.BackendRedis:
		st, err = openRedis(ctx, &cfg.Redis, cfg.Store.Collection)
	case config.BackendPostgres:
		st, err = openPostgres(ctx, &cfg.Database, cfg.Store.Collection)
	default:
		err = fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		log.Error().Err(err).Msg("store unavailable")
		return nil, err
	}

	log.Info().Msg("store connected")
	return st, nil
}

func openFirestore(ctx context.Context, fb *auth.App, collection string) (storage.Store, error) {
	if fb == nil {
		return nil, fmt.Errorf("firestore backend requires an initialized Firebase app")
	}
	client, err := fb.Firestore(ctx)
	if err != nil {
		return nil, err
	}
	return firestorestore.New(client, collection), nil
}

func openRedis(ctx context.Context, cfg *config.RedisConfig, collection string) (storage.Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return redisstore.New(client, collection), nil
}

func openPostgres(ctx context.Context, cfg *config.DatabaseConfig, collection string) (storage.Store, error) {
	db, err := postgres.NewConnection(ctx, cfg)
	if err != nil {
		return nil, err
	}

	st := postgres.New(db, collection)
	if err := st.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return st, nil
}
