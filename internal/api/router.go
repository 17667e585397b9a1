package api

import (
	"net/http" // HTTP status codes

	"tournament_system/internal/config"     // Custom package for configuration
	"tournament_system/internal/middleware" // Custom package for middleware

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// NewRouter wires every route of the service
func NewRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *gin.Engine {
	r := gin.New() // Gin router instance
	r.Use(gin.Logger(), gin.Recovery())

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}
	r.MaxMultipartMemory = 8 << 20 // Slips larger than this spill to disk

	r.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) }) // Health check
	r.Static("/uploads", cfg.UploadDir)                                                      // Stored slips and avatars

	auth := middleware.JWTAuthMiddleware(cfg.JWTSecret) // Any signed-in user
	account := middleware.AccountMiddleware(db)         // Account still exists, role from the DB
	admin := middleware.AdminOnlyMiddleware(db)         // Admin role checked against the DB

	a := r.Group("/api")

	// Auth routes
	a.POST("/auth/register", RegisterHandler(db, rdb, cfg.JWTSecret)) // Registration endpoint
	a.POST("/auth/login", LoginHandler(db, cfg.JWTSecret))            // Login endpoint

	// Public competition routes
	a.GET("/competitions", ListCompetitionsHandler(db, rdb, cfg.CacheTTL))   // Competition listing
	a.GET("/competitions/:id", GetCompetitionHandler(db, rdb, cfg.CacheTTL)) // Competition detail
	a.POST("/competitions/:id/join", auth, account, JoinHandler(db, rdb))    // Join from the competition listing

	// User routes (protected by JWT)
	users := a.Group("/users", auth, account)
	users.GET("/me", MeHandler(db))                                // Own profile
	users.PUT("/profile", UpdateProfileHandler(db, cfg.UploadDir)) // Profile edit
	users.GET("", admin, ListUsersHandler(db, rdb, cfg.CacheTTL))  // Admin user listing
	users.GET("/:id", admin, GetUserHandler(db))                   // Admin user detail
	users.PUT("/:id/role", admin, SetRoleHandler(db, rdb))         // Admin role change
	users.PUT("/:id", admin, SetRoleHandler(db, rdb))              // Admin role change, short form
	users.DELETE("/:id", admin, DeleteUserHandler(db, rdb))        // Admin user deletion

	// Admin competition routes
	comps := a.Group("/competitions", auth, account, admin)
	comps.POST("", CreateCompetitionHandler(db, rdb))       // Create competition
	comps.PUT("/:id", UpdateCompetitionHandler(db, rdb))    // Update competition
	comps.DELETE("/:id", DeleteCompetitionHandler(db, rdb)) // Delete competition

	// Registration routes (protected by JWT)
	regs := a.Group("/registrations", auth, account)
	regs.GET("", admin, ListRegistrationsHandler(db))                                    // Admin listing
	regs.GET("/competition/:id", CompetitionRegistrationsHandler(db, rdb, cfg.CacheTTL)) // Registrations of a competition
	regs.GET("/:id", GetRegistrationHandler(db))                                         // One registration
	regs.POST("", JoinHandler(db, rdb))                                                  // Join
	regs.DELETE("/:id", CancelHandler(db, rdb))                                          // Cancel
	regs.PUT("/:id/status", admin, SetStatusHandler(db, rdb))                            // Admin verdict
	regs.PUT("/:id", admin, SetStatusHandler(db, rdb))                                   // Admin verdict, short form

	// Player history (protected by JWT)
	players := a.Group("/players", auth, account)
	players.GET("/:id/history", HistoryHandler(db))        // Player history
	players.DELETE("/history/:id", CancelHandler(db, rdb)) // Cancel from the history page

	// Payment routes (protected by JWT)
	pays := a.Group("/payments", auth, account)
	pays.POST("/submit", SubmitPaymentHandler(db, rdb, cfg.UploadDir)) // Slip upload
	pays.GET("/pending", admin, PendingPaymentsHandler(db))            // Admin review queue
	pays.GET("/:id", GetPaymentHandler(db))                            // Payment detail
	pays.PATCH("/verify/:id", admin, VerifyPaymentHandler(db, rdb))    // Admin verdict

	return r
}
