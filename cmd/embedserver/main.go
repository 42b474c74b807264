package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/embedserver/internal/ai"
	"github.com/xxxsen/embedserver/internal/artifact"
	"github.com/xxxsen/embedserver/internal/config"
	"github.com/xxxsen/embedserver/internal/db"
	"github.com/xxxsen/embedserver/internal/embedcache"
	"github.com/xxxsen/embedserver/internal/embedding"
	"github.com/xxxsen/embedserver/internal/handler"
	"github.com/xxxsen/embedserver/internal/job"
	"github.com/xxxsen/embedserver/internal/metrics"
	"github.com/xxxsen/embedserver/internal/middleware"
	"github.com/xxxsen/embedserver/internal/pkg/jwt"
	"github.com/xxxsen/embedserver/internal/pkg/keyhash"
	"github.com/xxxsen/embedserver/internal/registry"
	"github.com/xxxsen/embedserver/internal/repo"
	"github.com/xxxsen/embedserver/internal/schedule"
	"github.com/xxxsen/embedserver/internal/service"
	"github.com/xxxsen/embedserver/internal/state"
)

var version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "embedserver",
		Short: "text embedding server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run embedding server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
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
			return runServer(cfg)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "print the built-in model catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(registry.Default().List())
		},
	}

	hashKeyCmd := &cobra.Command{
		Use:   "hash-key <api-key>",
		Short: "hash an api key for auth.api_key_hashes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := keyhash.Hash(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	var (
		subject  string
		tokenTTL time.Duration
	)
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "issue an admin token for model switching",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.AdminJWTSecret == "" {
				return fmt.Errorf("auth.admin_jwt_secret is not configured")
			}
			token, err := jwt.GenerateToken(subject, jwt.RoleAdmin, []byte(cfg.Auth.AdminJWTSecret), tokenTTL)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	tokenCmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(runCmd, modelsCmd, hashKeyCmd, tokenCmd)
	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	return config.Load(path)
}

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logutil.GetLogger(ctx)

	var (
		observer embedding.Observer
		mt       *metrics.Metrics
	)
	if cfg.Metrics.Enabled {
		mp, shutdown, err := metrics.InitProvider(ctx, cfg.Metrics.ServiceName, version)
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		defer func() {
			_ = shutdown(context.Background())
		}()
		mt, err = metrics.NewMetrics(mp)
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		observer = mt
	}

	var (
		conn      *sql.DB
		cacheRepo *repo.EmbeddingCacheRepo
	)
	if cfg.Database.Enabled() {
		var err error
		conn, err = db.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer conn.Close()
		if err := db.ApplyMigrations(ctx, conn); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		cacheRepo = repo.NewEmbeddingCacheRepo(conn)
	}

	if cfg.ArtifactS3.Endpoint != "" || cfg.ArtifactS3.Region != "" {
		if err := artifact.RegisterS3(ctx, artifact.S3Config{
			Endpoint:  cfg.ArtifactS3.Endpoint,
			SecretID:  cfg.ArtifactS3.SecretID,
			SecretKey: cfg.ArtifactS3.SecretKey,
			Region:    cfg.ArtifactS3.Region,
		}); err != nil {
			return fmt.Errorf("init s3 artifacts: %w", err)
		}
	}

	reg := registry.Default()
	loaderOpts := []registry.LoaderOption{
		registry.WithBackends(cfg.Inference.Backends),
		registry.WithArtifactStore(artifact.NewStore(cfg.ModelCacheDir)),
		registry.WithVerify(cfg.Inference.ShouldVerify()),
		registry.WithWrapper(func(e ai.IEmbedder) ai.IEmbedder {
			return ai.WrapPool(e, cfg.Inference.Workers, time.Duration(cfg.Inference.Timeout)*time.Second)
		}),
	}
	if cfg.Cache.DBEnabled && cacheRepo != nil {
		loaderOpts = append(loaderOpts, registry.WithWrapper(func(e ai.IEmbedder) ai.IEmbedder {
			return embedcache.WrapDBCacheToEmbedder(e, cacheRepo)
		}))
	}
	if cfg.Cache.LRUSize > 0 {
		loaderOpts = append(loaderOpts, registry.WithWrapper(func(e ai.IEmbedder) ai.IEmbedder {
			return embedcache.WrapLruCacheToEmbedder(e, cfg.Cache.LRUSize, time.Duration(cfg.Cache.LRUTTLSeconds)*time.Second)
		}))
	}
	loader := registry.NewLoader(reg, loaderOpts...)

	slot := state.NewSlot(reg, loader, state.WithReloadHook(func(ctx context.Context, prev, next state.Active) {
		if mt != nil {
			mt.RecordReload(ctx, prev.Descriptor.Name, next.Descriptor.Name)
		}
	}))
	desc, err := slot.Reload(ctx, registry.SourceFromConfig(cfg.Model))
	if err != nil {
		return fmt.Errorf("load initial model: %w", err)
	}
	log.Info("model ready", zap.String("model", desc.Name), zap.Int("dimension", desc.Dimension))

	var pipelineOpts []embedding.PipelineOption
	if observer != nil {
		pipelineOpts = append(pipelineOpts, embedding.WithObserver(observer))
	}
	embedService := service.NewEmbedService(reg, slot, embedding.NewPipeline(pipelineOpts...), embedding.ChunkOptions{
		Size:          cfg.Chunk.Size,
		Overlap:       cfg.Chunk.Overlap,
		StripMarkdown: cfg.Chunk.StripMarkdown,
	})

	checkers := []handler.Checker{{
		Name:  "model",
		Check: func(ctx context.Context) error { return embedService.Ready() },
	}}
	if conn != nil {
		checkers = append(checkers, handler.Checker{Name: "database", Check: conn.PingContext})
	}
	deps := handler.RouterDeps{
		Embed:          handler.NewEmbedHandler(embedService),
		Health:         handler.NewHealthHandler(checkers...),
		APIKeyHashes:   cfg.Auth.APIKeyHashes,
		AdminJWTSecret: []byte(cfg.Auth.AdminJWTSecret),
		SetModelWindow: time.Duration(cfg.Auth.SetModelIntervalSeconds) * time.Second,
	}
	middlewares := []gin.HandlerFunc{
		middleware.RequestID(),
		middleware.CORS(cfg.CORSAllowlist),
	}
	if mt != nil {
		deps.Metrics = promhttp.Handler()
		deps.MetricsPath = cfg.Metrics.Path
		middlewares = append(middlewares, mt.Middleware())
	}
	middlewares = append(middlewares, gzip.Gzip(gzip.DefaultCompression))

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		cfg.BasePath,
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(middlewares...),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	scheduler := schedule.NewCronScheduler()
	if cfg.Cache.DBEnabled && cacheRepo != nil {
		cleanup := job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.Cache.MaxAgeDays)
		if err := scheduler.AddJob(cleanup, cfg.Cache.CleanupCron); err != nil {
			return err
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	log.Info("http server listening", zap.String("addr", addr), zap.String("base_path", cfg.BasePath))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("server stopping...")
	return nil
}
