package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cinetheque/api/pkg/response"
)

// HealthLive reports process liveness without touching any dependency.
func HealthLive(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}

// Health returns a status payload useful for readiness checks. The database
// is pinged; a failure degrades the report instead of erroring.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "ok"
		if db != nil {
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(requestContext(c)) != nil {
				dbStatus = "unavailable"
			}
		} else {
			dbStatus = "unavailable"
		}

		status := http.StatusOK
		if dbStatus != "ok" {
			status = http.StatusServiceUnavailable
		}

		response.Success(c, status, gin.H{
			"status":   "ok",
			"database": dbStatus,
		})
	}
}
