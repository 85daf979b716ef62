package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ppisng/ppis-api/api/swagger"
	"github.com/ppisng/ppis-api/internal/handler"
	"github.com/ppisng/ppis-api/internal/middleware"
	"github.com/ppisng/ppis-api/internal/models"
	"github.com/ppisng/ppis-api/internal/repository"
	"github.com/ppisng/ppis-api/internal/service"
	"github.com/ppisng/ppis-api/pkg/cache"
	"github.com/ppisng/ppis-api/pkg/config"
	"github.com/ppisng/ppis-api/pkg/database"
	"github.com/ppisng/ppis-api/pkg/logger"
	corsmiddleware "github.com/ppisng/ppis-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ppisng/ppis-api/pkg/middleware/requestid"
)

// @title PPIS API
// @version 1.0.0
// @description School management backend: registry, scores, results and reconciliation
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	// Repositories.
	profileRepo := repository.NewProfileRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	remarkRepo := repository.NewRemarkRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.DefaultTTL, cfg.Cache.ResultsTTL, logr, cfg.Cache.Enabled)
	reconcileSvc := service.NewReconcileService(profileRepo, studentRepo, classRepo, assignmentRepo, logr)
	authSvc := service.NewAuthService(profileRepo, reconcileSvc, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	profileSvc := service.NewProfileService(profileRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, scoreRepo, assignmentRepo, cacheSvc, validate, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, validate, logr)
	scoreSvc := service.NewScoreService(scoreRepo, cacheSvc, validate, logr)
	resultsSvc := service.NewResultsService(scoreRepo, studentRepo, subjectRepo, cacheSvc, logr)
	settingsSvc := service.NewSettingsService(settingsRepo, cfg.School, validate, logr)
	remarkSvc := service.NewRemarkService(remarkRepo, resultsSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(studentRepo, classRepo, subjectRepo, scoreRepo, profileRepo, settingsSvc, cacheSvc, cfg.Cache.DashboardTTL, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc, reconcileSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	classHandler := handler.NewClassHandler(classSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	scoreHandler := handler.NewScoreHandler(scoreSvc)
	resultHandler := handler.NewResultHandler(resultsSvc)
	remarkHandler := handler.NewRemarkHandler(remarkSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/resolve", middleware.JWT(authSvc), authHandler.Resolve)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleFormTeacher)

	// Student-scoped routes key on the student id, not the profile id in the
	// token, so SELF resolves the caller's student row through its profile.
	ownStudent := func(ctx context.Context, profileID string) (string, error) {
		student, err := studentRepo.FindByProfile(ctx, profileID)
		if err != nil {
			return "", err
		}
		return student.ID, nil
	}
	selfStudent := middleware.RBACOwned(ownStudent, string(models.RoleAdmin), string(models.RoleFormTeacher), "SELF")

	profiles := protected.Group("/profiles")
	{
		profiles.GET("", admin, profileHandler.List)
		profiles.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), profileHandler.Get)
		profiles.POST("", admin, profileHandler.Seed)
		profiles.DELETE("/:id", admin, profileHandler.Delete)
	}

	students := protected.Group("/students")
	{
		students.GET("", staff, studentHandler.List)
		students.GET("/:id", selfStudent, studentHandler.Get)
		students.POST("", admin, studentHandler.Save)
		students.POST("/promote", admin, studentHandler.Promote)
		students.DELETE("/:id", admin, studentHandler.Delete)
	}

	classes := protected.Group("/classes")
	{
		classes.GET("", staff, classHandler.List)
		classes.GET("/mine", middleware.RequireRoles(models.RoleFormTeacher), classHandler.Mine)
		classes.GET("/:id", staff, classHandler.Get)
		classes.POST("", admin, classHandler.Save)
		classes.DELETE("/:id", admin, classHandler.Delete)
	}

	subjects := protected.Group("/subjects")
	{
		subjects.GET("", subjectHandler.List)
		subjects.POST("", admin, subjectHandler.Save)
		subjects.DELETE("/:id", admin, subjectHandler.Delete)
	}

	assignments := protected.Group("/assignments")
	{
		assignments.GET("", staff, assignmentHandler.List)
		assignments.POST("", admin, assignmentHandler.Assign)
		assignments.DELETE("/:id", admin, assignmentHandler.Remove)
	}

	scores := protected.Group("/scores")
	{
		scores.GET("", staff, scoreHandler.List)
		scores.POST("", staff, scoreHandler.Upsert)
		scores.POST("/bulk", staff, scoreHandler.BulkUpsert)
		scores.POST("/approve", admin, scoreHandler.Approve)
		scores.POST("/publish", admin, scoreHandler.Publish)
		scores.DELETE("/:id", staff, scoreHandler.Delete)
	}

	results := protected.Group("/results")
	{
		results.GET("/students/:id", selfStudent, resultHandler.StudentResult)
		results.GET("/students/:id/sheet", selfStudent, resultHandler.StudentSheet)
		results.GET("/classes/:id/broadsheet", staff, resultHandler.Broadsheet)
	}

	remarks := protected.Group("/remarks")
	{
		remarks.GET("/classes/:id", staff, remarkHandler.ListByClass)
		remarks.GET("/students/:id", selfStudent, remarkHandler.ForStudent)
		remarks.POST("", staff, remarkHandler.Save)
	}

	protected.GET("/settings", settingsHandler.Get)
	protected.PUT("/settings", admin, settingsHandler.Update)
	protected.GET("/dashboard", admin, dashboardHandler.Summary)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
