package handlers

import (
	"net/http"
	"strconv"

	"busline/internal/http/middleware"
	"busline/internal/repositories"
	"busline/internal/services"

	"github.com/gin-gonic/gin"
)

// GET /api/schedules
func ListSchedules(c *gin.Context) {
	repo := repositories.ScheduleRepo{}
	schedules, err := repo.List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": schedules})
}

// GET /api/schedules/:id
func GetSchedule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid schedule id", err)
		return
	}

	repo := repositories.ScheduleRepo{}
	sched, err := repo.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": sched})
}

// GET /api/schedules/:id/seats
func GetScheduleSeats(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid schedule id", err)
		return
	}

	svc := services.BookingService{RequestID: middleware.GetRequestID(c)}
	seats, err := svc.SeatMap(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule_id": id, "seats": seats})
}
