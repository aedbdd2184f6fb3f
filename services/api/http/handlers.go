package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/UjwalStha7/plant-monitor-backend/services/api/db"
	"github.com/UjwalStha7/plant-monitor-backend/services/api/ingest"
)

// errorBody is the machine-readable error response shape. No internals are
// ever exposed here.
func errorBody(message string) gin.H {
	return gin.H{"error": true, "message": message}
}

// handleRoot returns liveness plus aggregate counters.
// GET /
func (s *Server) handleRoot(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	total, err := s.store.CountReadings(ctx, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("storage unavailable"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"totalReadings": total,
		"totalDevices":  s.presence.Count(),
		"uptimeSeconds": int64(s.clock.Now().Sub(s.startedAt).Seconds()),
	})
}

// handleSubmitReading ingests one sensor reading.
// POST /api/readings
func (s *Server) handleSubmitReading(c *gin.Context) {
	var req ingest.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	result, err := s.ingestSvc.Submit(ctx, req)
	if err != nil {
		if ingest.IsValidation(err) {
			c.JSON(http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, errorBody("failed to store reading"))
		return
	}

	c.JSON(http.StatusCreated, result)
}

// handleListReadings returns a newest-first page of readings.
// GET /api/readings?limit=&skip=&deviceId=
func (s *Server) handleListReadings(c *gin.Context) {
	query := db.ReadingQuery{DeviceID: c.Query("deviceId"), Limit: 50}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, errorBody("invalid limit"))
			return
		}
		query.Limit = limit
	}
	if skipStr := c.Query("skip"); skipStr != "" {
		skip, err := strconv.Atoi(skipStr)
		if err != nil || skip < 0 {
			c.JSON(http.StatusBadRequest, errorBody("invalid skip"))
			return
		}
		query.Skip = skip
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	readings, err := s.store.ListReadings(ctx, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("failed to list readings"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(readings),
		"readings": readings,
	})
}

// handleLatestReading returns the most recent reading, optionally per device.
// GET /api/readings/latest?deviceId=
func (s *Server) handleLatestReading(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	reading, err := s.store.LatestReading(ctx, c.Query("deviceId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("failed to fetch latest reading"))
		return
	}
	if reading == nil {
		c.JSON(http.StatusNotFound, errorBody("no readings found"))
		return
	}

	c.JSON(http.StatusOK, reading)
}

// handleListDevices returns presence records with computed status.
// GET /api/devices
func (s *Server) handleListDevices(c *gin.Context) {
	devices := s.presence.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"count":   len(devices),
		"devices": devices,
	})
}

// handleDeleteReadings clears all readings and presence state.
// DELETE /api/readings
func (s *Server) handleDeleteReadings(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := s.store.DeleteAllReadings(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("failed to delete readings"))
		return
	}
	s.presence.Reset()

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
