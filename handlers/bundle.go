// File: reviewdesk/handlers/bundle.go
package handlers

import "github.com/gin-gonic/gin"

// HandlerBundle groups the endpoint handlers registered by the routes package.
type HandlerBundle struct {
	InternalToken string

	// Ops endpoints.
	HealthHandler  gin.HandlerFunc
	MetricsHandler gin.HandlerFunc

	// Reminder pipeline endpoints.
	ScanRemindersHandler       gin.HandlerFunc
	ProcessReminderHandler     gin.HandlerFunc
	CancelRemindersHandler     gin.HandlerFunc
	RescheduleRemindersHandler gin.HandlerFunc
	ListRemindersHandler       gin.HandlerFunc
	InvalidateSettingsHandler  gin.HandlerFunc
}
