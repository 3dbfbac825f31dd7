package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/domain/auth"
	"github.com/impulsalab/convoca/internal/app/domain/convocatoria"
	"github.com/impulsalab/convoca/internal/app/domain/documents"
	"github.com/impulsalab/convoca/internal/app/domain/evaluacion"
	"github.com/impulsalab/convoca/internal/app/domain/impacto"
	"github.com/impulsalab/convoca/internal/app/domain/postulacion"
	"github.com/impulsalab/convoca/internal/app/domain/startup"
	"github.com/impulsalab/convoca/internal/app/domain/statistics"
	"github.com/impulsalab/convoca/internal/app/domain/user"
	"github.com/impulsalab/convoca/internal/pkg/config"
)

// AppHandlers bundles every HTTP handler group the router mounts.
type AppHandlers struct {
	Auth         *auth.AuthHandlers
	User         *user.UserHandlers
	Startup      *startup.StartupHandlers
	Convocatoria *convocatoria.ConvocatoriaHandlers
	Postulacion  *postulacion.PostulacionHandlers
	Impacto      *impacto.ImpactoHandlers
	Evaluacion   *evaluacion.EvaluacionHandlers
	Documents    *documents.DocumentHandlers
	Statistics   *statistics.StatisticsHandlers
}

// Setup wires repositories, services and handlers, then mounts the routes.
func Setup(r *gin.Engine, dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) {
	handlers, err := setupDependencies(dbPool, cfg, log)
	if err != nil {
		log.Fatal("Failed to setup dependencies", zap.Error(err))
	}
	setupRouter(r, handlers, cfg, log)
}

func setupDependencies(dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) (*AppHandlers, error) {
	ctx := context.Background()

	var provider auth.OIDCProvider
	if google, err := auth.NewGoogleProvider(ctx, cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, cfg.OAuth.RedirectURL); err != nil {
		// The provider is only unreachable in local setups without OAuth
		// credentials; password login still works.
		log.Warn("Google OIDC provider unavailable, federated login disabled", zap.Error(err))
	} else {
		provider = google
	}

	authRepo := auth.NewPostgresAuthRepo(dbPool, log)
	userRepo := user.NewPostgresUserRepo(dbPool, log)
	startupRepo := startup.NewPostgresStartupRepo(dbPool, log)
	convRepo := convocatoria.NewPostgresConvocatoriaRepo(dbPool, log)
	postulacionRepo := postulacion.NewPostgresPostulacionRepo(dbPool, log)
	impactoRepo := impacto.NewPostgresImpactoRepo(dbPool, log)
	evaluacionRepo := evaluacion.NewPostgresEvaluacionRepo(dbPool, log)
	documentRepo := documents.NewPostgresDocumentRepo(dbPool, log)
	statisticsRepo := statistics.NewPostgresStatisticsRepo(dbPool, log)

	scorer, err := evaluacion.NewGeminiScorer(ctx, cfg.Evaluation.GeminiAPIKey, cfg.Evaluation.Model, log)
	if err != nil {
		return nil, err
	}

	storage, err := documents.NewS3Storage(ctx, cfg.S3)
	if err != nil {
		return nil, err
	}

	authService := auth.NewAuthService(authRepo, provider, cfg, log)
	userService := user.NewUserService(userRepo, log)
	startupService := startup.NewStartupService(startupRepo, log)
	convService := convocatoria.NewConvocatoriaService(convRepo, log)
	postulacionService := postulacion.NewPostulacionService(postulacionRepo, startupRepo, convRepo, log)
	impactoService := impacto.NewImpactoService(impactoRepo, postulacionRepo, log)
	evaluacionService := evaluacion.NewEvaluacionService(evaluacionRepo, postulacionRepo, startupRepo, impactoRepo, scorer, cfg, log)
	documentService := documents.NewDocumentService(documentRepo, startupRepo, storage, log)
	statisticsService := statistics.NewStatisticsService(statisticsRepo, log)

	return &AppHandlers{
		Auth:         auth.NewAuthHandlers(authService, cfg, log),
		User:         user.NewUserHandlers(userService, authService, cfg, log),
		Startup:      startup.NewStartupHandlers(startupService, cfg, log),
		Convocatoria: convocatoria.NewConvocatoriaHandlers(convService, cfg, log),
		Postulacion:  postulacion.NewPostulacionHandlers(postulacionService, cfg, log),
		Impacto:      impacto.NewImpactoHandlers(impactoService, cfg, log),
		Evaluacion:   evaluacion.NewEvaluacionHandlers(evaluacionService, cfg, log),
		Documents:    documents.NewDocumentHandlers(documentService, cfg, log),
		Statistics:   statistics.NewStatisticsHandlers(statisticsService, cfg, log),
	}, nil
}

func setupRouter(r *gin.Engine, h *AppHandlers, cfg *config.Config, log *zap.Logger) {
	// Public pages. The SPA serves the real UI; these endpoints exist so
	// the gate's redirect targets always resolve.
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "convoca", "status": "ok"})
	})
	r.GET("/login", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/api/auth/login")
	})
	r.GET("/auth-redirect", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"authenticated": true})
	})
	r.GET("/denied", func(c *gin.Context) {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Authentication; public by route class, each handler resolves the
	// session itself where needed.
	authGroup := r.Group("/api/auth")
	{
		authGroup.GET("/login", h.Auth.StartLogin)
		authGroup.GET("/callback", h.Auth.Callback)
		authGroup.POST("/login/password", h.Auth.PasswordLogin)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", h.Auth.Logout)
		authGroup.GET("/me", h.Auth.Me)
	}

	// User-scoped API. The access gate has already required a registered
	// session (or, for /api/users/me, at least a valid one).
	usersGroup := r.Group("/api/users")
	{
		usersGroup.GET("/me", h.User.GetMe)
		usersGroup.PUT("/me", h.User.UpdateMe)
	}

	startupsGroup := r.Group("/api/startups")
	{
		startupsGroup.POST("", h.Startup.Register)
		startupsGroup.GET("", h.Startup.GetMine)
		startupsGroup.GET("/:id", h.Startup.Get)
		startupsGroup.PUT("/:id", h.Startup.Update)
		startupsGroup.GET("/:id/documentos", h.Documents.ListForStartup)
	}

	convocatoriasGroup := r.Group("/api/convocatorias")
	{
		convocatoriasGroup.GET("", h.Convocatoria.ListOpen)
		convocatoriasGroup.GET("/:id", h.Convocatoria.Get)
	}

	postulacionesGroup := r.Group("/api/postulaciones")
	{
		postulacionesGroup.POST("", h.Postulacion.Submit)
		postulacionesGroup.GET("", h.Postulacion.ListMine)
		postulacionesGroup.GET("/:id", h.Postulacion.Get)
		postulacionesGroup.GET("/:id/evaluacion", h.Evaluacion.Get)
	}

	impactoGroup := r.Group("/api/impacto")
	{
		impactoGroup.GET("/:id", h.Impacto.GetQuestionnaire)
		impactoGroup.PUT("/:id", h.Impacto.SaveAnswers)
	}

	documentosGroup := r.Group("/api/documentos")
	{
		documentosGroup.POST("", h.Documents.Upload)
		documentosGroup.GET("/:id", h.Documents.Download)
	}

	// Admin API. The gate already required the admin role; handlers
	// re-check the concrete capability.
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.GET("/usuarios", h.User.ListUsers)
		adminGroup.PUT("/usuarios/:id/rol", h.User.ChangeRole)

		adminGroup.GET("/startups", h.Startup.ListAll)

		adminGroup.POST("/convocatorias", h.Convocatoria.Create)
		adminGroup.GET("/convocatorias", h.Convocatoria.ListAll)
		adminGroup.PUT("/convocatorias/:id", h.Convocatoria.Update)
		adminGroup.PUT("/convocatorias/:id/estado", h.Convocatoria.ChangeEstado)

		adminGroup.GET("/postulaciones", h.Postulacion.ListAll)
		adminGroup.PUT("/postulaciones/:id/estado", h.Postulacion.ChangeEstado)

		adminGroup.POST("/evaluaciones/:id", h.Evaluacion.Evaluate)
		adminGroup.GET("/evaluaciones/:id", h.Evaluacion.Get)

		adminGroup.GET("/estadisticas", h.Statistics.Summary)
	}

	// 404 handler - must be last
	r.NoRoute(func(c *gin.Context) {
		log.Info("404 - route not found",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.String("ip", c.ClientIP()),
		)
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}
