package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"sudooom.kifu/internal/analysis"
	"sudooom.kifu/internal/config"
	"sudooom.kifu/internal/game"
	"sudooom.kifu/internal/game/mahjong/riichi"
	"sudooom.kifu/internal/game/mahjong/scoring"
	"sudooom.kifu/internal/handler"
	"sudooom.kifu/internal/health"
	natsclient "sudooom.kifu/internal/nats"
	"sudooom.kifu/internal/repository"
	"sudooom.kifu/internal/router"
	"sudooom.kifu/internal/workerpool"
)

func main() {
	// 加载配置
	cfgPath := config.GetEnv("KIFU_CONFIG", "configs/config.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "path", cfgPath, "error", err)
		os.Exit(1)
	}

	// 初始化日志
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var presets map[string]riichi.Rules
	if cfg.Game.RulesFile != "" {
		presets, err = config.LoadRulePresets(cfg.Game.RulesFile)
		if err != nil {
			logger.Error("Failed to load rule presets", "path", cfg.Game.RulesFile, "error", err)
			os.Exit(1)
		}
		logger.Info("Loaded rule presets", "count", len(presets))
	}

	// 创建上下文
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := game.Deps{Config: cfg.Game, Presets: presets}

	// 连接数据库
	var db *pgxpool.Pool
	var archive handler.KifuArchive
	if cfg.Database.Enabled {
		db, err = connectDatabase(ctx, cfg.Database)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		kifuRepo := repository.NewKifuRepository(db)
		if err := kifuRepo.Migrate(ctx); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			os.Exit(1)
		}
		deps.Store = kifuRepo
		archive = kifuRepo
		logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)
	}

	// 连接 Redis
	var redisClient *redis.Client
	var remoteCache analysis.Cache
	if cfg.Redis.Enabled {
		redisClient = connectRedis(cfg.Redis)
		defer redisClient.Close()
		remoteCache = analysis.NewRedisCache(redisClient, cfg.Analysis.CacheTTL)
		logger.Info("Connected to Redis", "addr", cfg.Redis.Addr())
	}

	// 连接 NATS
	var natsClient *natsclient.Client
	if cfg.NATS.Enabled {
		natsClient, err = natsclient.NewClient(cfg.NATS)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()
		deps.Events = natsclient.NewEventPublisher(natsClient.Conn(), cfg.NATS.SubjectPrefix)
		logger.Info("Connected to NATS", "url", cfg.NATS.URL)
	}

	// 分析服务
	analysisClient := analysis.NewClient(analysis.Options{
		BaseURL:      cfg.Analysis.BaseURL,
		Timeout:      cfg.Analysis.Timeout,
		ImageTimeout: cfg.Analysis.ImageTimeout,
	})
	deps.Engine = scoring.NewEngine(analysisClient)
	deps.Tenpai = analysis.NewTenpaiService(analysisClient, analysis.NewMemoryCache(cfg.Analysis.CacheSize), remoteCache)
	deps.Recognizer = analysisClient

	// 持久化与事件发布在 worker pool 中执行
	pool := workerpool.New(cfg.Worker.Workers, cfg.Worker.QueueSize, logger)
	deps.Pool = pool

	gameService := game.NewService(deps)

	var checker *health.Checker
	if natsClient != nil {
		checker = health.NewChecker(natsClient.Conn(), redisClient, db)
	} else {
		checker = health.NewChecker(nil, redisClient, db)
	}

	r := router.SetupRouter(cfg, handler.NewGameHandler(gameService), handler.NewArchiveHandler(archive), checker)

	// 启动服务器
	addr := fmt.Sprintf(":%d", cfg.App.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Kifu server started", "addr", addr, "mode", cfg.App.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	// 先保存未落盘的牌局，再排空 worker pool
	if err := gameService.Shutdown(shutdownCtx); err != nil {
		logger.Error("Game service shutdown failed", "error", err)
	}
	if err := pool.Shutdown(shutdownCtx); err != nil {
		logger.Error("Worker pool shutdown failed", "error", err)
	}
	cancel()
	logger.Info("Server stopped")
}

// connectDatabase 连接 PostgreSQL
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// connectRedis 连接 Redis
func connectRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}
