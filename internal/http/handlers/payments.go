package handlers

import (
	"net/http"

	"busline/internal/domain/models"
	"busline/internal/http/middleware"
	"busline/internal/services"

	"github.com/gin-gonic/gin"
)

type recordPaymentRequest struct {
	Amount      int64  `json:"amount"`
	Method      string `json:"method"`
	Status      string `json:"status"`
	ExternalRef string `json:"external_ref"`
}

// POST /api/admin/orders/:id/payments
func RecordPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req recordPaymentRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	svc := services.PaymentService{RequestID: middleware.GetRequestID(c)}
	payment, err := svc.RecordPaymentResult(
		c.Request.Context(),
		id,
		req.Amount,
		models.PaymentMethod(req.Method),
		models.PaymentStatus(req.Status),
		req.ExternalRef,
	)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": payment})
}

// GET /api/admin/orders/:id/payments
func ListOrderPayments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	svc := services.PaymentService{RequestID: middleware.GetRequestID(c)}
	payments, err := svc.ListForOrder(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "payments": payments})
}
