package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/winterveil/parkslot-backend/internal/auth"
	"github.com/winterveil/parkslot-backend/internal/parking"
	"github.com/winterveil/parkslot-backend/internal/report"
)

// Config holds the services and settings the router needs.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Engine       parking.Service
	Reports      report.Service
	AuthService  *auth.Service
	JWTManager   *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It assembles middleware (CORS, Logger, Auth) and registers the public
// booking routes and the operator-only admin routes.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(gin.Logger(), gin.Recovery(), RequestID())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	authMiddleware := auth.AuthRequired(cfg.JWTManager)

	authHandler := NewAuthHandler(cfg.AuthService, cfg.JWTManager)
	parkingHandler := NewParkingHandler(cfg.Engine)
	adminHandler := NewAdminHandler(cfg.Engine, cfg.Reports)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/login", authHandler.Login)

		v1.GET("/slots/available", parkingHandler.AvailableSlots)
		v1.POST("/bookings", parkingHandler.Book)
		v1.POST("/bookings/:id/release", parkingHandler.Release)
		v1.GET("/bookings", parkingHandler.UserBookings)

		admin := v1.Group("/admin", authMiddleware)
		{
			admin.GET("/bookings", adminHandler.Bookings)
			admin.GET("/stats", adminHandler.Stats)
			admin.GET("/slots", adminHandler.Slots)
			admin.POST("/slots", adminHandler.AddSlot)
			admin.PATCH("/slots/:id/active", adminHandler.ToggleSlotActive)
		}
	}

	return r
}
