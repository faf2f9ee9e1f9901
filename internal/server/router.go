package server

import (
	"net/http"
	"strings"
	"time"

	"task-manager/server/internal/cache"
	"task-manager/server/internal/config"
	"task-manager/server/internal/handlers"
	"task-manager/server/internal/middleware"
	"task-manager/server/internal/monitoring"
	"task-manager/server/internal/repositories"
	"task-manager/server/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// App holds the wired services and the HTTP router built on top of them.
type App struct {
	cfg     *config.Config
	monitor *monitoring.Monitor
	router  *gin.Engine

	tasks  services.TaskService
	tokens *services.TokenManager
	images *services.ImageStore
}

// New wires repositories, services and handlers over db. redisCache is
// optional; without it identities are read straight from the database.
func New(cfg *config.Config, db *gorm.DB, redisCache *cache.RedisCache) *App {
	userRepo := repositories.NewUserRepository(db)
	taskRepo := repositories.NewTaskRepository(db)

	app := &App{
		cfg:     cfg,
		monitor: monitoring.NewMonitor(),
		tokens:  services.NewTokenManager(cfg.Auth),
		images:  services.NewImageStore(cfg.Storage),
	}

	var lookup services.UserLookup = userRepo
	var invalidator services.IdentityInvalidator
	if redisCache != nil {
		cached := services.NewCachedUserLookup(userRepo, redisCache, cfg.Redis.UserCacheTTL)
		lookup, invalidator = cached, cached

		app.monitor.RegisterHealthCheck("redis", redisCache.HealthCheck)
		app.monitor.RegisterStats("redis", func() interface{} { return redisCache.Stats() })
		app.monitor.RegisterStats("identity_cache", func() interface{} { return cached.Stats() })
	}

	taskService := services.NewTaskService(taskRepo, userRepo)
	app.tasks = taskService

	authHandler := handlers.NewAuthHandler(
		services.NewAuthService(userRepo, app.tokens, cfg.Auth, invalidator),
		app.images,
	)
	userHandler := handlers.NewUserHandler(services.NewUserService(userRepo, taskRepo))
	taskHandler := handlers.NewTaskHandler(taskService)
	dashboardHandler := handlers.NewDashboardHandler(services.NewDashboardService(taskRepo))
	reportHandler := handlers.NewReportHandler(services.NewReportService(taskRepo, userRepo))

	r := gin.New()
	r.Use(middleware.RecoveryWithLog())
	r.Use(middleware.RequestLogger())
	r.Use(app.monitor.Middleware())
	if cfg.RateLimit.Enabled {
		r.Use(middleware.RateLimit(middleware.NewIPRateLimiter(cfg.RateLimit)))
	}
	r.Use(cors.New(corsConfig(cfg.Server.ClientURL)))

	r.Static("/uploads", app.images.Dir())

	r.GET("/health", app.monitor.HealthHandler())
	r.GET("/ready", app.monitor.ReadinessHandler())
	r.GET("/live", app.monitor.LivenessHandler())
	r.GET("/metrics", app.monitor.MetricsHandler())

	protect := middleware.Protect(app.tokens, lookup)
	adminOnly := middleware.AdminOnly()

	api := r.Group(basePath(cfg.Server.BasePath))
	{
		auth := api.Group("/auth")
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/profile", protect, authHandler.GetProfile)
		auth.PUT("/profile", protect, authHandler.UpdateProfile)
		auth.POST("/upload-image", authHandler.UploadImage)

		users := api.Group("/users", protect)
		users.GET("", adminOnly, userHandler.GetUsers)
		users.GET("/:id", userHandler.GetUserByID)

		tasks := api.Group("/tasks", protect)
		tasks.GET("/dashboard-data", adminOnly, dashboardHandler.GetDashboardData)
		tasks.GET("/user-dashboard-data", dashboardHandler.GetUserDashboardData)
		tasks.GET("", taskHandler.GetTasks)
		tasks.GET("/:id", taskHandler.GetTaskByID)
		tasks.POST("", adminOnly, taskHandler.CreateTask)
		tasks.PUT("/:id", taskHandler.UpdateTask)
		tasks.DELETE("/:id", adminOnly, taskHandler.DeleteTask)
		tasks.PUT("/:id/status", taskHandler.UpdateTaskStatus)
		tasks.PUT("/:id/todo", taskHandler.UpdateTaskChecklist)

		reports := api.Group("/reports", protect, adminOnly)
		reports.GET("/export/tasks", reportHandler.ExportTasks)
		reports.GET("/export/users", reportHandler.ExportUsers)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})

	app.router = r
	return app
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Monitor() *monitoring.Monitor {
	return a.monitor
}

func corsConfig(clientURL string) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:  []string{"Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if clientURL == "" || clientURL == "*" {
		cc.AllowAllOrigins = true
	} else {
		for _, origin := range strings.Split(clientURL, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cc.AllowOrigins = append(cc.AllowOrigins, origin)
			}
		}
	}
	return cc
}

func basePath(p string) string {
	if p == "" {
		return "/api"
	}
	return "/" + strings.Trim(p, "/")
}
