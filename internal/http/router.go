package api

import (
	"log"
	stdhttp "net/http"
	"os"
	"strings"
	"time"

	intconfig "busline/internal/config"
	"busline/internal/domain"
	h "busline/internal/http/handlers"
	"busline/internal/http/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func corsConfig() cors.Config {
	cfg := cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Accept", "Origin"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}

	if env := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); env != "" {
		origins := make([]string, 0)
		for _, o := range strings.Split(env, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.AllowOrigins = origins
	}
	return cfg
}

func NewRouter(env intconfig.Env) *gin.Engine {
	_ = env

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), cors.New(corsConfig()))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	staffOnly := middleware.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)
		api.GET("/routes", h.Routes)

		// Auth
		auth := api.Group("/auth")
		auth.POST("/login", h.Login)
		auth.POST("/register", h.Register)

		// Schedules and seat maps are public reads.
		schedules := api.Group("/schedules")
		schedules.GET("", h.ListSchedules)
		schedules.GET("/:id", h.GetSchedule)
		schedules.GET("/:id/seats", h.GetScheduleSeats)

		// Bookings (authenticated)
		bookings := api.Group("/bookings", middleware.RequireAuth())
		bookings.POST("", h.CreateBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
		bookings.DELETE("/:id/seats/:seat", h.RemoveSeat)

		// Orders (authenticated; ownership enforced in the service)
		orders := api.Group("/orders", middleware.RequireAuth())
		orders.GET("/:id", h.GetOrder)
		orders.GET("/:id/ticket", h.GetTicket)
		orders.GET("/:id/ticket/pdf", h.GetTicketPDF)

		// Admin surface
		admin := api.Group("/admin", middleware.RequireAuth(), staffOnly)
		admin.POST("/bookings", h.AdminCreateBooking)
		admin.POST("/bookings/:id/cancel", h.AdminCancelBooking)
		admin.PUT("/bookings/:id/status", h.UpdateBookingStatus)
		admin.POST("/orders/:id/payments", h.RecordPayment)
		admin.GET("/orders/:id/payments", h.ListOrderPayments)

		maintenance := admin.Group("/maintenance")
		maintenance.POST("/sweep-holds", h.SweepHolds)
		maintenance.POST("/complete-trips", h.CompletePastTrips)
		maintenance.POST("/purge-orphans", h.PurgeOrphans)
	}

	h.SetRouter(r)
	return r
}
