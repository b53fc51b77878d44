package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/darkmind/darkmind/internal/analytics"
	"github.com/darkmind/darkmind/internal/settings"
)

func (r *Router) healthHandler(c *gin.Context) {
	status := http.StatusOK
	dbState := "ok"

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := r.db.Health(ctx); err != nil {
		status = http.StatusServiceUnavailable
		dbState = err.Error()
	}

	c.JSON(status, gin.H{
		"status":   "OK",
		"service":  "darkmind-api",
		"database": dbState,
	})
}

func (r *Router) summaryHandler(c *gin.Context) {
	report := r.store.Summary(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"report":           report,
		"best_post_hour":   r.store.BestPostHour(c.Request.Context()),
		"videos_today":     r.store.TodayVideoCount(c.Request.Context()),
		"viral_candidates": r.store.ViralCandidates(c.Request.Context()),
	})
}

func (r *Router) videosHandler(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"videos": r.store.RecentVideos(c.Request.Context(), limit),
	})
}

// scheduleHandler previews today's hour selection: learned hours, the
// confidence tier backing them, and the prior hours that would fill the
// remaining slots. Minute jitter belongs to the running scheduler and is
// not reproduced here.
func (r *Router) scheduleHandler(c *gin.Context) {
	ctx := c.Request.Context()
	today := time.Now().Weekday()
	maxVideos := r.settings.MaxVideosPerDay()

	c.JSON(http.StatusOK, gin.H{
		"day":                today.String(),
		"max_videos_per_day": maxVideos,
		"learned_hours":      r.store.BestHoursForDay(ctx, today, maxVideos),
		"prior_hours":        analytics.PeakHours(today),
		"confidence":         r.store.HourConfidence(ctx, today),
	})
}

func (r *Router) getSettingsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, r.settings.Load())
}

func (r *Router) putSettingsHandler(c *gin.Context) {
	var payload settings.Settings
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload"})
		return
	}

	if err := r.settings.Save(payload); err != nil {
		r.logger.Error("Failed to save settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}

	c.JSON(http.StatusOK, r.settings.Load())
}
