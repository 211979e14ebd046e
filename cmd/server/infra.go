package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"vitrine/internal/address/lookup"
	"vitrine/internal/document/gate"
	"vitrine/internal/document/storage"
	docstore "vitrine/internal/document/store"
	"vitrine/internal/events"
	"vitrine/internal/platform/config"
	"vitrine/internal/platform/database"
	"vitrine/internal/platform/kafka"
	"vitrine/internal/platform/kafka/producer"
	"vitrine/internal/platform/redis"
	profileservice "vitrine/internal/profile/service"
	profilestore "vitrine/internal/profile/store"
	"vitrine/migrations"
)

const (
	topicPartitions  = 3
	topicReplication = 1
)

// infra holds the backends selected from configuration. Every external
// dependency is optional: an unset URL falls back to the in-memory variant.
type infra struct {
	db       *database.Pool
	redis    *redis.Client
	producer *producer.Producer

	profiles  profileservice.ProfileStore
	documents gate.Store
	files     gate.FileStorage
	publisher events.Publisher
}

func openInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	in := &infra{publisher: events.Nop{}}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, err
	}
	if db != nil {
		if err := migrations.Apply(ctx, db.DB()); err != nil {
			db.Close() //nolint:errcheck // best-effort cleanup on init failure
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		in.db = db
		in.profiles = profilestore.NewPostgres(db.DB())
		in.documents = docstore.NewPostgres(db.DB())
		log.Info("using postgres stores")
	} else {
		in.profiles = profilestore.NewInMemoryStore()
		in.documents = docstore.NewInMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	if cfg.Storage.Dir != "" {
		disk, err := storage.NewLocalDisk(cfg.Storage.Dir, cfg.Storage.BaseURL)
		if err != nil {
			in.Close(log)
			return nil, fmt.Errorf("open document storage: %w", err)
		}
		in.files = disk
	} else {
		in.files = storage.NewMemory(cfg.Storage.BaseURL)
		log.Warn("STORAGE_DIR not set, keeping document files in memory")
	}

	rc, err := redis.New(cfg.Redis)
	if err != nil {
		in.Close(log)
		return nil, err
	}
	in.redis = rc

	if cfg.Kafka.Brokers != "" {
		p, err := producer.New(cfg.Kafka, log)
		if err != nil {
			in.Close(log)
			return nil, fmt.Errorf("create kafka producer: %w", err)
		}
		in.producer = p
		if err := kafka.EnsureTopic(ctx, p.Client(), cfg.Kafka.Topic, topicPartitions, topicReplication); err != nil {
			log.Warn("could not ensure events topic", "topic", cfg.Kafka.Topic, "error", err)
		}
		in.publisher = events.NewKafkaPublisher(p, cfg.Kafka.Topic, log)
	} else {
		log.Warn("KAFKA_BROKERS not set, profile events are discarded")
	}

	return in, nil
}

func (in *infra) postalCache(ttl time.Duration) lookup.Cache {
	if in.redis != nil {
		return lookup.NewRedisCache(in.redis.Client, ttl)
	}
	return lookup.NewMemoryCache(ttl)
}

// Health reports each configured backend. Unconfigured backends are omitted.
func (in *infra) Health(ctx context.Context) (int, map[string]string) {
	status := http.StatusOK
	checks := map[string]string{}
	record := func(name string, err error) {
		if err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			return
		}
		checks[name] = "ok"
	}

	if in.db != nil {
		record("postgres", in.db.Health(ctx))
	}
	if in.redis != nil {
		record("redis", in.redis.Health(ctx))
	}
	if in.producer != nil {
		var err error
		if !in.producer.Healthy(ctx) {
			err = fmt.Errorf("kafka unreachable")
		}
		record("kafka", err)
	}
	return status, checks
}

func (in *infra) Close(log *slog.Logger) {
	if in.producer != nil {
		if err := in.producer.Close(); err != nil {
			log.Warn("close kafka producer", "error", err)
		}
	}
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			log.Warn("close redis", "error", err)
		}
	}
	if err := in.db.Close(); err != nil {
		log.Warn("close database", "error", err)
	}
}
