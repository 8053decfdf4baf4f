package handlers

import (
	"net/http"

	"busline/internal/http/middleware"
	"busline/internal/services"

	"github.com/gin-gonic/gin"
)

func reconcileService(c *gin.Context) services.ReconcileService {
	return services.ReconcileService{RequestID: middleware.GetRequestID(c)}
}

// POST /api/admin/maintenance/sweep-holds
func SweepHolds(c *gin.Context) {
	released, err := reconcileService(c).SweepHolds(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"holds_released": released})
}

// POST /api/admin/maintenance/complete-trips
func CompletePastTrips(c *gin.Context) {
	completed, err := reconcileService(c).CompletePastTrips(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings_completed": completed})
}

// POST /api/admin/maintenance/purge-orphans
func PurgeOrphans(c *gin.Context) {
	purged, err := reconcileService(c).PurgeOrphans(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings_purged": purged})
}
