package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"exam_center_backend/internal/config"
	"exam_center_backend/internal/controller"
	"exam_center_backend/internal/repository"
	"exam_center_backend/internal/service"
	"exam_center_backend/pkg/configwatcher"
	"exam_center_backend/pkg/database"
	"exam_center_backend/pkg/logger"
	"exam_center_backend/pkg/monitoring"
	"exam_center_backend/pkg/security"
	"exam_center_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user         *repository.UserRepository
	exam         *repository.ExamRepository
	attempt      *repository.AttemptRepository
	answer       *repository.AnswerRepository
	grade        *repository.GradeRepository
	result       *repository.ResultRepository
	notification *repository.NotificationRepository
	audit        *repository.AuditRepository
}

type services struct {
	attempt       *service.AttemptService
	aiGrader      *service.AIAnswerGrader
	autoGrader    *service.AutoGradeService
	aiGrading     *service.AIGradingService
	aggregator    *service.ResultService
	grading       *service.GradingService
	notifications *service.NotificationService
	audit         *service.AuditService
}

type controllers struct {
	attempt *controller.AttemptController
	grading *controller.GradingController
	health  *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		exam:         repository.NewExamRepository(db),
		attempt:      repository.NewAttemptRepository(db),
		answer:       repository.NewAnswerRepository(db),
		grade:        repository.NewGradeRepository(db),
		result:       repository.NewResultRepository(db),
		notification: repository.NewNotificationRepository(db),
		audit:        repository.NewAuditRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.notifications = service.NewNotificationService(repos.notification, rdb)
	s.audit = service.NewAuditService(repos.audit)

	s.attempt = service.NewAttemptService(repos.attempt, repos.answer, repos.exam)
	s.autoGrader = service.NewAutoGradeService(db, repos.answer, repos.grade)

	aiClient := service.NewOpenAIGradingClient(cfg.AI)
	s.aiGrader = service.NewAIAnswerGrader(aiClient, repos.grade, cfg.Grading.ConfidenceThreshold, cfg.Grading.MaxAnswerChars)
	s.aiGrading = service.NewAIGradingService(repos.attempt, repos.answer, s.autoGrader, s.aiGrader)

	s.aggregator = service.NewResultService(db, repos.attempt, repos.exam, repos.result)
	s.grading = service.NewGradingService(
		db,
		repos.attempt,
		repos.answer,
		repos.grade,
		repos.result,
		repos.exam,
		repos.user,
		s.autoGrader,
		s.aiGrading,
		s.aggregator,
		s.notifications,
		s.audit,
	)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		attempt: controller.NewAttemptController(s.attempt),
		grading: controller.NewGradingController(s.grading),
		health:  controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks runs the auto-submit sweep for attempts whose
// exam duration elapsed without an explicit submit.
func (a *App) startBackgroundTasks(s *services) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		for range ticker.C {
			s.attempt.ProcessExpiredAttempts()
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if database.ShouldMigrate(cfg) {
		if err := database.Migrate(db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Log.Info("Database migration completed")
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, notifications will not be published", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("exam-center", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	app.startBackgroundTasks(services)

	// hot-reload the grading knobs on config file changes
	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(raw interface{}) {
		newCfg, ok := raw.(*config.Config)
		if !ok {
			return
		}
		app.Config = newCfg
		services.aiGrader.ConfidenceThreshold = newCfg.Grading.ConfidenceThreshold
		services.aiGrader.MaxAnswerChars = newCfg.Grading.MaxAnswerChars
		logger.Log.Info("configuration reloaded",
			zap.Float64("confidence_threshold", newCfg.Grading.ConfidenceThreshold),
			zap.Int("max_answer_chars", newCfg.Grading.MaxAnswerChars))
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
