package handlers

import (
	"net/http"
	"strconv"

	"busline/internal/domain/models"
	"busline/internal/http/middleware"
	"busline/internal/services"

	"github.com/gin-gonic/gin"
)

func bookingService(c *gin.Context) services.BookingService {
	return services.BookingService{RequestID: middleware.GetRequestID(c)}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid "+name, err)
		return 0, false
	}
	return id, true
}

// POST /api/bookings
func CreateBooking(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no actor on request"})
		return
	}

	var req services.CreateBookingInput
	if !BindJSONOrError(c, &req) {
		return
	}

	result, err := bookingService(c).CreateBooking(c.Request.Context(), actor, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// POST /api/admin/bookings
func AdminCreateBooking(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no actor on request"})
		return
	}

	var req services.AdminBookingInput
	if !BindJSONOrError(c, &req) {
		return
	}

	result, err := bookingService(c).CreateBookingForUser(c.Request.Context(), actor, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// POST /api/bookings/:id/cancel
func CancelBooking(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no actor on request"})
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req cancelRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &req) {
		return
	}

	if err := bookingService(c).CancelBooking(c.Request.Context(), actor, id, req.Reason); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking cancelled"})
}

// POST /api/admin/bookings/:id/cancel
func AdminCancelBooking(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no actor on request"})
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req cancelRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	if err := bookingService(c).AdminCancelBooking(c.Request.Context(), actor, id, req.Reason); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking cancelled"})
}

// DELETE /api/bookings/:id/seats/:seat
func RemoveSeat(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no actor on request"})
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	seat := c.Param("seat")
	if seat == "" {
		RespondError(c, http.StatusBadRequest, "missing seat code", nil)
		return
	}

	if err := bookingService(c).RemoveSeatFromBooking(c.Request.Context(), actor, id, seat); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "seat removed"})
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// PUT /api/admin/bookings/:id/status
func UpdateBookingStatus(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no actor on request"})
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	err := bookingService(c).UpdateBookingStatus(c.Request.Context(), actor, id, models.BookingStatus(req.Status), req.Reason)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking status updated"})
}

// GET /api/orders/:id
func GetOrder(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no actor on request"})
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := bookingService(c).GetOrder(c.Request.Context(), actor, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /api/orders/:id/ticket
func GetTicket(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no actor on request"})
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := bookingService(c).GetOrder(c.Request.Context(), actor, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": result.Ticket})
}

// GET /api/orders/:id/ticket/pdf
func GetTicketPDF(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no actor on request"})
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	// Ownership check runs through the same order lookup as GetOrder.
	if _, err := bookingService(c).GetOrder(c.Request.Context(), actor, id); err != nil {
		RespondDomainError(c, err)
		return
	}

	svc := services.TicketService{RequestID: middleware.GetRequestID(c)}
	pdf, filename, err := svc.GeneratePDF(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
