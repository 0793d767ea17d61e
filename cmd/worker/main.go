// Package main - точка входа для фоновых процессов (Worker) QuestBoard.
//
// Worker отвечает за периодические задачи:
// - Полный проход подсчёта очков по всем подходящим профилям
// - Ранжирование и атомарную замену хранилища записей
// - Обновление кеша скорборда и публикацию событий смены рангов
// - Retention-очистку записей устаревших проходов
//
// Читающие пути (кеш → хранилище → пересчёт) живут в application слое;
// Worker — единственный плановый производитель свежих проходов.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/questboard/questboard-hub/config"
	"github.com/questboard/questboard-hub/internal/application/command"
	"github.com/questboard/questboard-hub/internal/application/eventhandler"
	"github.com/questboard/questboard-hub/internal/domain/scoreboard"
	"github.com/questboard/questboard-hub/internal/domain/shared"
	"github.com/questboard/questboard-hub/internal/infrastructure/messaging"
	"github.com/questboard/questboard-hub/internal/infrastructure/persistence/postgres"
	"github.com/questboard/questboard-hub/internal/infrastructure/persistence/redis"
	"github.com/questboard/questboard-hub/internal/infrastructure/scheduler"
	"github.com/questboard/questboard-hub/internal/infrastructure/scheduler/jobs"
	"github.com/questboard/questboard-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	// .env опционален: в production конфигурация приходит из окружения.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.Setup(logger.Options{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	})
	log.Info("starting QuestBoard Worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	// Без Redis пайплайн работает: запись в кеш нефатальна, чтение уходит
	// в хранилище записей.
	var (
		scoreCache scoreboard.Cache
		redisCache *redis.Cache
	)

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		cache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, score caching disabled", "error", err)
		} else {
			defer cache.Close()
			redisCache = cache
			scoreCache = redis.NewScoreCache(cache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ EVENT BUS И ОБРАБОТЧИКОВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	localBusConfig := messaging.DefaultInMemoryEventBusConfig()
	localBusConfig.Logger = log

	// Redis-шина нужна только при нескольких инстансах: события одного
	// Worker должны доходить до обработчиков остальных. Без флага или без
	// Redis события остаются внутри процесса.
	var eventBus shared.EventBus
	if redisCache != nil && cfg.Features.IsEnabled(config.FeatureOpsRedisEventBus, nil) {
		redisBus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         messaging.NewGoRedisClient(redisCache.Client()),
			LocalBusConfig: localBusConfig,
			Logger:         log,
		})
		if err != nil {
			return fmt.Errorf("failed to start redis event bus: %w", err)
		}
		eventBus = redisBus
		log.Info("redis event bus enabled")
	} else {
		eventBus = messaging.NewInMemoryEventBus(localBusConfig)
	}
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	if cfg.Features.IsEnabled(config.FeatureScoringRankDiffEvents, nil) {
		rankHandler := eventhandler.NewOnRankChangedHandler(log, eventhandler.DefaultRankChangedConfig())
		if err := eventBus.Register(rankHandler); err != nil {
			return fmt.Errorf("failed to register rank change handler: %w", err)
		}
	}

	if scoreCache != nil {
		goalHandler := eventhandler.NewOnGoalCompletedHandler(scoreCache, log)
		if err := eventBus.Register(goalHandler); err != nil {
			return fmt.Errorf("failed to register goal completion handler: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	profileRepo := postgres.NewProfileRepository(dbConn)
	goalRepo := postgres.NewGoalRepository(dbConn)
	metricRepo := postgres.NewMetricRepository(dbConn)
	postRepo := postgres.NewPostRepository(dbConn)
	engagementRepo := postgres.NewEngagementRepository(dbConn)
	recordStore := postgres.NewScoreRecordStore(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ ОБРАБОТЧИКА ПРОХОДА
	// ─────────────────────────────────────────────────────────────────────────
	recomputeHandler := command.NewRecomputeScoresHandler(
		profileRepo,
		goalRepo,
		metricRepo,
		postRepo,
		engagementRepo,
		recordStore,
		scoreCache,
		eventBus,
		log,
		buildRecomputeConfig(cfg),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ПЛАНИРОВЩИК И ЗАДАЧИ
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger: log,
	})

	recomputeJob := jobs.NewRecomputeScoresJob(recomputeHandler, log)
	if err := sched.Register(recomputeJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RecomputeInterval)); err != nil {
		return fmt.Errorf("failed to register recompute job: %w", err)
	}

	if cfg.Features.IsEnabled(config.FeatureOpsRetentionCleanup, nil) {
		cleanupSchedule, err := scheduler.ParseCronExpression(cfg.Scheduler.CleanupCron)
		if err != nil {
			return fmt.Errorf("invalid cleanup cron expression: %w", err)
		}

		cleanupJob := jobs.NewCleanupPassesJob(recordStore, log, jobs.CleanupPassesConfig{
			Retention: cfg.Scheduler.Retention,
			Timeout:   cfg.Scheduler.JobTimeout,
		})
		if err := sched.Register(cleanupJob, cleanupSchedule); err != nil {
			return fmt.Errorf("failed to register cleanup job: %w", err)
		}
	}

	if cfg.Scheduler.Enabled {
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			_ = sched.Stop()
		}()

		// Первый проход сразу: хранилище не должно пустовать до первого тика.
		if _, err := sched.RunNow(ctx, recomputeJob.Name()); err != nil {
			log.Warn("initial scoring pass failed", "error", err)
		}
	} else {
		log.Warn("scheduler is disabled, no passes will be produced")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("QuestBoard Worker is running",
		"recompute_interval", cfg.Scheduler.RecomputeInterval.String(),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// buildRecomputeConfig собирает настройки прохода из конфигурации,
// накладывая ненулевые переопределения весов на значения по умолчанию.
func buildRecomputeConfig(cfg *config.Config) command.RecomputeScoresConfig {
	rc := command.DefaultRecomputeScoresConfig()
	rc.Concurrency = cfg.Scoring.Concurrency
	rc.PassTimeout = cfg.Scoring.PassTimeout
	rc.CacheTTL = cfg.Scoring.CacheTTL

	if w := cfg.Scoring.GoalCompletedWeight; w > 0 {
		rc.Weights.GoalCompleted = w
	}
	if w := cfg.Scoring.GoalActiveWeight; w > 0 {
		rc.Weights.GoalActive = w
	}
	if w := cfg.Scoring.GoalPausedWeight; w > 0 {
		rc.Weights.GoalPaused = w
	}
	if w := cfg.Scoring.PostPublishedWeight; w > 0 {
		rc.Weights.PostPublished = w
	}
	if w := cfg.Scoring.PostLikeWeight; w > 0 {
		rc.Weights.PostLike = w
	}
	if w := cfg.Scoring.ProfileLikeWeight; w > 0 {
		rc.Weights.ProfileLike = w
	}
	if w := cfg.Scoring.FollowerWeight; w > 0 {
		rc.Weights.Follower = w
	}

	return rc
}
