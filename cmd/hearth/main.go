package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/hearthlabs/hearth/internal/ai"
	"github.com/hearthlabs/hearth/internal/chunker"
	"github.com/hearthlabs/hearth/internal/config"
	"github.com/hearthlabs/hearth/internal/db"
	"github.com/hearthlabs/hearth/internal/embedcache"
	"github.com/hearthlabs/hearth/internal/extract"
	"github.com/hearthlabs/hearth/internal/filestore"
	"github.com/hearthlabs/hearth/internal/handler"
	"github.com/hearthlabs/hearth/internal/job"
	"github.com/hearthlabs/hearth/internal/middleware"
	"github.com/hearthlabs/hearth/internal/repo"
	"github.com/hearthlabs/hearth/internal/schedule"
	"github.com/hearthlabs/hearth/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "hearth",
		Short: "hearth chat assistant backend",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run hearth server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn, cfg.Retrieval.EmbeddingDim); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.Int("embedding_dim", cfg.Retrieval.EmbeddingDim),
		zap.String("metric", cfg.Retrieval.Metric),
	)

	embeddingRepo, err := repo.NewEmbeddingRepo(conn, cfg.Retrieval.EmbeddingDim, cfg.Retrieval.Metric)
	if err != nil {
		return fmt.Errorf("init embedding store: %w", err)
	}
	fileRepo := repo.NewFileRepo(conn)
	cacheRepo := repo.NewEmbeddingCacheRepo(conn)

	blobs, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	entries := make([]ai.EmbedderEntry, 0, len(cfg.AI.Fallbacks)+1)
	providers := append(
		[]config.AIProviderConfig{{Provider: cfg.AI.Provider, EmbedModel: cfg.AI.EmbedModel, Data: cfg.AI.Data}},
		cfg.AI.Fallbacks...,
	)
	for _, pc := range providers {
		provider, err := ai.NewProvider(pc.Provider, pc.Data)
		if err != nil {
			return fmt.Errorf("init ai provider %s: %w", pc.Provider, err)
		}
		entries = append(entries, ai.EmbedderEntry{
			Name:     pc.Provider + "/" + pc.EmbedModel,
			Embedder: ai.NewEmbedder(provider, pc.EmbedModel),
		})
	}
	embedder := ai.NewManager(
		ai.NewGroupEmbedder(entries),
		ai.ManagerConfig{Timeout: cfg.AI.TimeoutSeconds},
	)
	cached := embedcache.WithLRU(
		embedcache.WithDB(embedder, cacheRepo),
		cfg.Retrieval.CacheSize,
		time.Duration(cfg.Retrieval.CacheTTLHours)*time.Hour,
	)

	ingestService := service.NewIngestService(
		extract.NewRegistry(),
		chunker.New(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap),
		cached,
		embeddingRepo,
		fileRepo,
		blobs,
		service.IngestConfig{
			EmbedWorkers:   cfg.Retrieval.EmbedWorkers,
			EmbedTimeout:   time.Duration(cfg.Retrieval.EmbedTimeoutSeconds) * time.Second,
			ExtractTimeout: time.Duration(cfg.Retrieval.ExtractTimeoutSeconds) * time.Second,
			TopK:           cfg.Retrieval.TopK,
		},
	)

	deps := handler.RouterDeps{
		Ingest:    handler.NewIngestHandler(ingestService),
		Search:    handler.NewSearchHandler(ingestService),
		JWTSecret: []byte(cfg.JWTSecret),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler(10 * time.Minute)
	redriveAge := time.Duration(cfg.Schedule.PendingRedriveAgeSec) * time.Second
	if err := scheduler.AddJob(job.NewPendingRedriveJob(ingestService, redriveAge), cfg.Schedule.PendingRedriveSpec); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.Schedule.CacheKeepDays), cfg.Schedule.CacheCleanupSpec); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
