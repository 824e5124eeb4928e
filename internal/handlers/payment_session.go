package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"backend/internal/models"
	"backend/internal/payments"
)

/* =========================
   REQUEST DTOs
========================= */

type sessionItemRequest struct {
	ProductID string  `json:"productId" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required"`
	Price     float64 `json:"price"`
	Note      string  `json:"note"`
}

type shippingInfoRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Address  string `json:"address" binding:"required"`
	City     string `json:"city" binding:"required"`
	District string `json:"district" binding:"required"`
	Ward     string `json:"ward"`
	Note     string `json:"note"`
}

type createSessionRequest struct {
	Items          []sessionItemRequest `json:"items" binding:"required"`
	ShippingInfo   shippingInfoRequest  `json:"shippingInfo" binding:"required"`
	PaymentMethod  string               `json:"paymentMethod" binding:"required"`
	DeliveryMethod string               `json:"deliveryMethod"`
	DeliveryFee    float64              `json:"deliveryFee"`
	BankCode       string               `json:"bankCode"`
	Amount         float64              `json:"amount" binding:"required"`
	Note           string               `json:"note"`
	IsGuestOrder   bool                 `json:"isGuestOrder"`
}

/* =========================
   SESSION HANDLERS
========================= */

func CreatePaymentSession(svc *payments.Service, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payment-session"
		defer handlePanic(c, route)

		var req createSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		userID, err := userIDFromHeader(c.GetHeader("Authorization"), jwtSecret)
		if err != nil {
			log.Println("[SESSION] [ERROR] token validation failed:", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		items := make([]models.SessionItem, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, models.SessionItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     item.Price,
				Note:      item.Note,
			})
		}

		result, err := svc.CreateSession(c.Request.Context(), payments.CreateSessionInput{
			Items:          items,
			ShippingInfo:   models.ShippingInfo(req.ShippingInfo),
			PaymentMethod:  req.PaymentMethod,
			DeliveryMethod: req.DeliveryMethod,
			DeliveryFee:    req.DeliveryFee,
			BankCode:       req.BankCode,
			Note:           req.Note,
			Amount:         req.Amount,
			IsGuestOrder:   req.IsGuestOrder || userID == nil,
			UserID:         userID,
		})
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusCreated, result)
	}
}

func GetSessionStatus(svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /payment-session/:sessionId/status"
		defer handlePanic(c, route)

		result, err := svc.CheckStatus(c.Request.Context(), c.Param("sessionId"))
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func ConfirmPaymentSession(svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payment-session/:sessionId/confirm"
		defer handlePanic(c, route)

		order, err := svc.Confirm(c.Request.Context(), c.Param("sessionId"))
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orderNumber": order.OrderNumber,
			"status":      order.Status,
			"message":     "order created",
		})
	}
}

func CancelPaymentSession(svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payment-session/:sessionId/cancel"
		defer handlePanic(c, route)

		if err := svc.Cancel(c.Request.Context(), c.Param("sessionId")); err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "session cancelled"})
	}
}

func ManualCheckPayment(svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/payment-sessions/:sessionId/manual-check"
		defer handlePanic(c, route)

		result, err := svc.ManualCheck(c.Request.Context(), c.Param("sessionId"))
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func PaymentSessionWebhook(svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payment-session/webhook"
		defer handlePanic(c, route)

		var payload payments.WebhookPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid webhook payload")
			return
		}

		result, err := svc.HandleSessionWebhook(c.Request.Context(), payload, c.GetHeader("Authorization"))
		if err != nil {
			respondWebhookError(c, route, result, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// respondWebhookError keeps the gateway's {success, message} envelope while
// still signalling the failure class through the status code.
func respondWebhookError(c *gin.Context, route string, result payments.WebhookResult, err error) {
	status := http.StatusInternalServerError
	switch {
	case err == payments.ErrUnauthorized:
		status = http.StatusUnauthorized
	case err == payments.ErrSessionNotFound, err == payments.ErrOrderNotFound:
		status = http.StatusNotFound
	case payments.IsIntegrityViolation(err):
		status = http.StatusUnprocessableEntity
	case payments.IsConflict(err), payments.IsValidationFailure(err):
		status = http.StatusConflict
	}

	if result.Message == "" {
		result.Message = err.Error()
	}
	log.Printf("[%s] returning error %d: %s", route, status, result.Message)
	c.AbortWithStatusJSON(status, result)
}
