package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backend/internal/payments"
)

type createOrderPaymentRequest struct {
	BankCode string  `json:"bankCode" binding:"required"`
	Amount   float64 `json:"amount" binding:"required"`
}

// CreateOrderPayment issues transfer instructions for an existing order.
func CreateOrderPayment(svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/payment/:orderNumber"
		defer handlePanic(c, route)

		var req createOrderPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		info, err := svc.CreateOrderPayment(c.Request.Context(), c.Param("orderNumber"), req.BankCode, req.Amount)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, info)
	}
}

func GetOrderPaymentStatus(svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/payment/:orderNumber/status"
		defer handlePanic(c, route)

		status, err := svc.GetOrderPaymentStatus(c.Request.Context(), c.Param("orderNumber"))
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, status)
	}
}

// OrderPaymentWebhook is the legacy order-centric gateway push.
func OrderPaymentWebhook(svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/payment/webhook"
		defer handlePanic(c, route)

		var payload payments.WebhookPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid webhook payload")
			return
		}

		result, err := svc.HandleOrderWebhook(c.Request.Context(), payload, c.GetHeader("Authorization"))
		if err != nil {
			respondWebhookError(c, route, result, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
