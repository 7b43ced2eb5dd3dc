// File: reviewdesk/handlers/reminder.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"reviewdesk/services/reminders"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SettingsInvalidator drops cached settings after they were written.
type SettingsInvalidator interface {
	PublishInvalidation(ctx context.Context) error
}

// ReminderHandler exposes the reminder pipeline to the rest of the platform.
type ReminderHandler struct {
	Service  reminders.ReminderService
	Settings SettingsInvalidator
}

// NewReminderHandler creates a new ReminderHandler.
func NewReminderHandler(svc reminders.ReminderService, settings SettingsInvalidator) *ReminderHandler {
	return &ReminderHandler{Service: svc, Settings: settings}
}

// ScanHandler runs a reconciliation pass immediately.
func (h *ReminderHandler) ScanHandler(c *gin.Context) {
	summary, err := h.Service.Scan(c.Request.Context())
	if err != nil {
		getLogger(c).Error("Manual reminder scan failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Reminder scan failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ProcessHandler executes one reminder now instead of waiting for its job.
func (h *ReminderHandler) ProcessHandler(c *gin.Context) {
	id := c.Param("id")
	outcome, err := h.Service.ProcessByID(c.Request.Context(), id)
	switch {
	case errors.Is(err, reminders.ErrDeliveryFailed):
		c.JSON(http.StatusBadGateway, gin.H{"reminderId": id, "outcome": outcome, "error": err.Error()})
		return
	case err != nil:
		getLogger(c).Error("Failed to process reminder", zap.String("reminderId", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process reminder"})
		return
	case outcome == reminders.ProcessMissing:
		c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reminderId": id, "outcome": outcome})
}

// CancelHandler is called when an assignment is completed, declined or withdrawn.
func (h *ReminderHandler) CancelHandler(c *gin.Context) {
	id := c.Param("id")
	n, err := h.Service.CancelRemindersForAssignment(c.Request.Context(), id)
	if err != nil {
		getLogger(c).Error("Failed to cancel reminders", zap.String("assignmentId", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel reminders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignmentId": id, "cancelled": n})
}

// RescheduleHandler is called after an assignment's due date changed.
func (h *ReminderHandler) RescheduleHandler(c *gin.Context) {
	id := c.Param("id")
	summary, err := h.Service.RescheduleRemindersForAssignment(c.Request.Context(), id)
	if err != nil {
		getLogger(c).Error("Failed to reschedule reminders", zap.String("assignmentId", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reschedule reminders"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ListHandler returns every reminder record of an assignment.
func (h *ReminderHandler) ListHandler(c *gin.Context) {
	id := c.Param("id")
	list, err := h.Service.ListForAssignment(c.Request.Context(), id)
	if err != nil {
		getLogger(c).Error("Failed to list reminders", zap.String("assignmentId", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list reminders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignmentId": id, "reminders": list})
}

// InvalidateSettingsHandler is called by the settings write path.
func (h *ReminderHandler) InvalidateSettingsHandler(c *gin.Context) {
	if err := h.Settings.PublishInvalidation(c.Request.Context()); err != nil {
		// The local cache is already dropped; other instances catch up on TTL expiry.
		getLogger(c).Warn("Settings invalidation not published", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"invalidated": true, "published": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invalidated": true, "published": true})
}
