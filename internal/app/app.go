package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"skillforge_backend/internal/config"
	"skillforge_backend/internal/controller"
	"skillforge_backend/internal/github"
	"skillforge_backend/internal/llm"
	"skillforge_backend/internal/middleware"
	"skillforge_backend/internal/repository"
	"skillforge_backend/internal/service"
	"skillforge_backend/internal/util"
	"skillforge_backend/pkg/configwatcher"
	"skillforge_backend/pkg/database"
	"skillforge_backend/pkg/logger"
	"skillforge_backend/pkg/monitoring"
	"skillforge_backend/pkg/security"
	"skillforge_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 作品集视图缓存时长
const viewCacheTTL = 10 * time.Minute

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	learner     *repository.LearnerRepository
	project     *repository.ProjectRepository
	challenge   *repository.ChallengeRepository
	skill       *repository.SkillRepository
	identity    *repository.IdentityRepository
	accumulator *repository.ScoreAccumulator
}

type services struct {
	storage   *service.StorageService
	identity  *service.IdentityService
	evidence  *service.EvidenceService
	scoring   *service.ScoringService
	ai        *service.AIService
	progress  *service.ProgressService
	project   *service.ProjectService
	challenge *service.ChallengeService
	profile   *service.ProfileService
}

type controllers struct {
	project   *controller.ProjectController
	challenge *controller.ChallengeController
	progress  *controller.ProgressController
	profile   *controller.ProfileController
	identity  *controller.IdentityController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		learner:     repository.NewLearnerRepository(db),
		project:     repository.NewProjectRepository(db),
		challenge:   repository.NewChallengeRepository(db),
		skill:       repository.NewSkillRepository(db),
		identity:    repository.NewIdentityRepository(db),
		accumulator: repository.NewScoreAccumulator(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*services, error) {
	cipher, err := service.NewTokenCipher(cfg.Identity.TokenKey)
	if err != nil {
		return nil, err
	}

	provider, err := llm.NewProvider(context.Background(), cfg.AI)
	if err != nil {
		return nil, err
	}

	var views interface {
		service.ViewInvalidator
		service.ViewCache
	} = service.NoopViews{}
	if rdb != nil {
		views = service.NewRedisViewStore(rdb, viewCacheTTL)
	}

	s := &services{
		storage:  service.NewStorageService(&cfg.Storage),
		identity: service.NewIdentityService(repos.identity, cipher),
		scoring:  service.NewScoringService(repos.accumulator, cfg.Scoring),
		ai:       service.NewAIService(provider),
	}

	ghClient, err := github.NewClient(cfg.GitHub.APIBaseURL, &http.Client{Timeout: cfg.GitHub.Timeout()})
	if err != nil {
		return nil, err
	}
	s.evidence = service.NewEvidenceService(ghClient, s.identity, cfg.GitHub, cfg.Evidence)
	a.RegisterConfigCallback(func(c *config.Config) {
		s.evidence.Reload(c.Evidence)
	})

	normalizer := service.NewSkillNormalizer(repos.skill)
	s.progress = service.NewProgressService(repos.learner, repos.project, repos.challenge, repos.skill, views)
	s.project = service.NewProjectService(db, repos.project, repos.learner, repos.skill, normalizer, s.scoring, s.evidence, s.ai, views)
	s.challenge = service.NewChallengeService(db, repos.challenge, repos.skill, normalizer, s.scoring, s.evidence, s.progress, s.ai, views)
	s.profile = service.NewProfileService(repos.learner, s.storage, views)
	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		project:   controller.NewProjectController(s.project),
		challenge: controller.NewChallengeController(s.challenge),
		progress:  controller.NewProgressController(s.progress),
		profile:   controller.NewProfileController(s.profile),
		identity:  controller.NewIdentityController(s.identity),
		health:    controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.RequestID())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// NewApp 初始化日志、存储、依赖与路由。MigrateOnly 时迁移完成即返回，不构建路由。
func NewApp(cfg *config.Config, configDir string) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	// release 模式下只有显式要求时才迁移
	if cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode {
		if err := database.Migrate(db); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		logger.Log.Info("Database migrated")
	}

	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		DB:        db,
	}
	if cfg.MigrateOnly {
		return app, nil
	}

	if cfg.Redis.Host != "" {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("initialize redis: %w", err)
		}
		app.Redis = rdb
	} else {
		logger.Log.Warn("Redis not configured, view cache and invalidation are disabled")
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg, db, app.Redis)
	if err != nil {
		return nil, err
	}
	app.services = services
	controllers := app.initControllers(services, db, app.Redis)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("skillforge", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			return nil, fmt.Errorf("initialize tracing: %w", err)
		}
		app.tracer = tp
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, services, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app, nil
}

// watchConfig 配置文件变更时通知回调
func (a *App) watchConfig(ctx context.Context) {
	path := filepath.Join(a.ConfigDir, "config.yaml")
	err := configwatcher.WatchConfig(ctx, path, func(cfg *config.Config) {
		for _, cb := range a.configCallbacks {
			cb(cfg)
		}
		logger.Log.Info("Evidence limits applied",
			zap.Int("evidence_max_files", cfg.Evidence.MaxFiles),
			zap.Strings("evidence_extensions", cfg.Evidence.Extensions),
		)
	})
	if err != nil && ctx.Err() == nil {
		logger.Log.Error("Config watcher stopped", zap.Error(err))
	}
}

func (a *App) Run() error {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go a.watchConfig(ctx)

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
	return nil
}
