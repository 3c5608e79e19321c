package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/baro-studio/baro-api/config"
	"github.com/baro-studio/baro-api/controllers"
	"github.com/baro-studio/baro-api/middleware"
	"github.com/baro-studio/baro-api/storage"
	"github.com/baro-studio/baro-api/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, store storage.Gateway) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.Maintenance())

	// Disk-backed storage serves objects straight from the static mount.
	if cfg.StorageBackend == "disk" {
		r.Static("/static", "./"+strings.TrimPrefix(cfg.StorageDiskRoot, "./"))
	}

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	boardController := controllers.NewBoardController(db, store)
	recruitController := controllers.NewRecruitController(db, store)
	uploadController := controllers.NewUploadController(db, store)
	quoteController := controllers.NewQuoteController()

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	// Public marketing surface
	api.GET("/board", boardController.ListPosts)
	api.GET("/board/:id", boardController.GetPost)
	api.GET("/recruite", recruitController.ListJobs)
	api.GET("/recruite/:id", recruitController.GetJob)
	api.POST("/quote", middleware.RateLimitMiddleware(), quoteController.SendQuote)

	// Admin area
	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/board", boardController.CreatePost)
	protected.PUT("/board/:id", boardController.UpdatePost)
	protected.DELETE("/board/:id", boardController.DeletePost)
	protected.POST("/recruite", recruitController.CreateJob)
	protected.PUT("/recruite/:id", recruitController.UpdateJob)
	protected.DELETE("/recruite/:id", recruitController.DeleteJob)
	protected.POST("/upload/attachment", uploadController.StageAttachment)
	protected.POST("/upload/image", uploadController.StageImage)
	protected.GET("/files/:id/download", uploadController.DownloadFile)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return r
}
