package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/pribylovaa/dental-clinic/internal/config"
)

// Opened: результат однократной проверки хранилища на старте.
type Opened struct {
	Profiles ProfileStore
	// Durable: хранилище доступно, профиль переживёт перезапуск.
	Durable bool

	closer io.Closer
}

// Close освобождает ресурсы хранилища (клиент Redis).
func (o Opened) Close() error {
	if o.closer == nil {
		return nil
	}

	return o.closer.Close()
}

// OpenProfileStore выбирает хранилище профиля по конфигурации и проверяет его.
// Недоступное хранилище не фатально: процесс работает только в памяти.
func OpenProfileStore(ctx context.Context, cfg config.SessionConfig, log *slog.Logger) (Opened, error) {
	if log == nil {
		log = slog.Default()
	}

	var (
		store  ProfileStore
		closer io.Closer
	)

	switch cfg.ProfileStore {
	case config.ProfileStoreMemory:
		log.Info("profile_store_memory")
		return Opened{Profiles: NewMemoryProfileStore()}, nil
	case config.ProfileStoreFile:
		store = NewFileProfileStore(cfg.ProfilePath)
	case config.ProfileStoreRedis:
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return Opened{}, fmt.Errorf("session.OpenProfileStore: parse redis url: %w", err)
		}

		rs := NewRedisProfileStore(redis.NewClient(opt), cfg.RedisPrefix+workstationID())
		store, closer = rs, rs
	default:
		return Opened{}, fmt.Errorf("session.OpenProfileStore: unknown profile store %q", cfg.ProfileStore)
	}

	if err := store.Probe(ctx); err != nil {
		log.Warn("profile_store_unavailable",
			slog.String("store", cfg.ProfileStore),
			slog.String("err", err.Error()),
		)

		if closer != nil {
			_ = closer.Close()
		}

		return Opened{Profiles: NewMemoryProfileStore()}, nil
	}

	log.Info("profile_store_ready", slog.String("store", cfg.ProfileStore))

	return Opened{Profiles: store, Durable: true, closer: closer}, nil
}

func workstationID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "default"
	}

	return host
}
