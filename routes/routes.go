package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"modsquad-api/config"
	"modsquad-api/controllers"
	"modsquad-api/middleware"
	"modsquad-api/repositories"
	"modsquad-api/services"
	"modsquad-api/storage"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB, store *storage.DiskStore, cfg *config.Config, logger *zap.Logger) {
	// Services
	buildRepo := repositories.NewBuildRepository(db)
	buildService := services.NewBuildService(buildRepo, store, logger, cfg.MaxImagesPerBuild, cfg.MaxImageBytes)
	carDataService := services.NewCarDataService(cfg.CarDataDir)
	emailService := services.NewEmailService(cfg)

	// Controllers
	authController := controllers.NewAuthController(db, cfg.JWTSecret, emailService, logger)
	buildController := controllers.NewBuildController(buildService)
	userController := controllers.NewUserController(db, store, cfg.MaxAvatarBytes, logger)
	adminController := controllers.NewAdminController(db, store, logger)
	carController := controllers.NewCarController(carDataService)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "healthy"})
	})

	// Uploaded blobs are served statically under their reference paths
	r.Static(cfg.UploadURLPrefix, store.Dir())

	api := r.Group("/api")

	// Auth routes (public, rate limited)
	auth := api.Group("/auth")
	auth.Use(middleware.RateLimit(30, 10))
	{
		auth.POST("/signup", authController.Signup)
		auth.POST("/signin", authController.Signin)
		auth.POST("/signout", authController.Signout)
	}

	// Current user routes
	me := api.Group("/auth")
	me.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		me.GET("/me", userController.GetCurrentUser)
		me.PUT("/profile", userController.UpdateProfile)
	}

	// Avatar upload
	upload := api.Group("/upload")
	upload.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		upload.POST("/avatar", userController.UploadAvatar)
	}

	// Car data lookup (public). The models route nests under "makes" because
	// the router cannot mix a static segment and a parameter at one position.
	cars := api.Group("/cars")
	{
		cars.GET("/:year/makes", carController.GetMakes)
		cars.GET("/:year/makes/:make/models", carController.GetModels)
	}

	// Build routes
	builds := api.Group("/builds")
	builds.GET("/public", buildController.GetPublicBuilds)
	builds.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		builds.GET("", buildController.GetBuilds)
		builds.POST("", buildController.CreateBuild)
		builds.GET("/:id", buildController.GetBuild)
		builds.PUT("/:id", buildController.UpdateBuild)
		builds.DELETE("/:id", buildController.DeleteBuild)
		builds.DELETE("/:id/images/:imageId", buildController.DeleteImage)
	}

	// Admin routes
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg.JWTSecret), middleware.AdminMiddleware(db))
	{
		admin.GET("/users", adminController.GetUsers)
		admin.GET("/stats", adminController.GetStats)
		admin.DELETE("/users/:userId", adminController.DeleteUser)
	}
}

// SetupCORS allows the SPA origins to call the API with credentials.
func SetupCORS() gin.HandlerFunc {
	allowedOrigins := map[string]bool{
		"http://localhost:3000": true,
		"http://localhost:3001": true,
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowedOrigins[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
