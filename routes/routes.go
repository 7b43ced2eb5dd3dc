package routes

import (
	"time"

	"reviewdesk/handlers"
	"reviewdesk/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RegisterOpsRoutes registers the unauthenticated health and metrics endpoints.
func RegisterOpsRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
	r.GET("/metrics", hb.MetricsHandler)
}

// RegisterInternalRoutes sets up the endpoints the assignment and settings services call.
func RegisterInternalRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	internal := r.Group("/internal")
	{
		internal.Use(middleware.InternalAuthMiddleware(hb.InternalToken))
		internal.Use(middleware.RateLimitMiddleware(rate.Every(time.Second/10), 20))

		internal.POST("/reminders/scan", hb.ScanRemindersHandler)
		internal.POST("/reminders/process/:id", hb.ProcessReminderHandler)

		internal.GET("/assignments/:id/reminders", hb.ListRemindersHandler)
		internal.POST("/assignments/:id/reminders/cancel", hb.CancelRemindersHandler)
		internal.POST("/assignments/:id/reminders/reschedule", hb.RescheduleRemindersHandler)

		internal.POST("/settings/invalidate", hb.InvalidateSettingsHandler)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	RegisterOpsRoutes(r, hb)
	RegisterInternalRoutes(r, hb)
}
