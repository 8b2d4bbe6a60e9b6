package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"decodex/internal/app"
	"decodex/internal/config"
	"decodex/internal/domain"
	"decodex/internal/infra/memory"
	"decodex/internal/infra/postgres"
	infraredis "decodex/internal/infra/redis"
)

// stores is the storage wiring selected from config: Postgres when a URL is set,
// Redis for team state when an address is set, memory otherwise.
type stores struct {
	teams         app.TeamRepository
	questions     app.QuestionRepository
	catalog       app.CatalogCache
	settings      app.SettingsRepository
	announcements app.AnnouncementRepository

	closers []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (*stores, error) {
	s := &stores{}
	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, time.Minute)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, func() { _ = redisClient.Close() })
		if err := redisClient.Ping(ctx).Err(); err != nil {
			s.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
	}

	var loader memory.CatalogLoader
	if cfg.Postgres.URL != "" {
		db := postgres.Open(cfg.Postgres.URL)
		s.closers = append(s.closers, func() { _ = db.Close() })
		if err := migrateDB(ctx, db, logger); err != nil {
			s.Close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)

		loader = postgres.NewCatalogLoader(pool)
		s.questions = postgres.NewQuestionStore(db)
		s.teams = postgres.NewTeamStore(db)
		s.settings = postgres.NewSettingsStore(db)
		s.announcements = postgres.NewAnnouncementStore(db)
		logger.Info("using postgres storage")
	} else {
		qs := memory.NewQuestionStore(nil, nil)
		loader = qs
		s.questions = qs
		if redisClient != nil {
			s.teams = infraredis.NewTeamStore(redisClient)
			s.settings = infraredis.NewSettingsStore(redisClient)
			s.announcements = infraredis.NewAnnouncementStore(redisClient)
			logger.Info("using redis storage for teams and settings; questions are in memory")
		} else {
			s.teams = memory.NewTeamStore()
			s.settings = memory.NewSettingsStore(domain.GameSettings{})
			s.announcements = memory.NewAnnouncementStore()
			logger.Info("using in-memory storage")
		}
	}

	if redisClient != nil {
		s.catalog = infraredis.NewCatalogCache(redisClient, loader, catalogTTL)
	} else {
		s.catalog = memory.NewCatalogCache(loader, catalogTTL)
	}
	return s, nil
}

func migrateDB(ctx context.Context, db *bun.DB, logger *slog.Logger) error {
	applied, err := postgres.Migrate(ctx, db)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		logger.Info("database is up to date")
		return nil
	}
	logger.Info("migrations applied", "migrations", applied)
	return nil
}
