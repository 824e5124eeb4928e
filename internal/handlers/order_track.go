package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
	"backend/internal/payments"
)

// TrackOrder is the public, unauthenticated order tracking endpoint.
func TrackOrder(svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/track/:orderNumber"
		defer handlePanic(c, route)

		result, err := svc.TrackOrder(c.Request.Context(), strings.ToUpper(strings.TrimSpace(c.Param("orderNumber"))))
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// LookupOrdersByContact lets guests find their recent orders by the phone or
// email they entered at checkout.
func LookupOrdersByContact(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/lookup"
		defer handlePanic(c, route)

		contact := strings.TrimSpace(c.Query("contact"))
		if contact == "" {
			respondWithError(c, http.StatusBadRequest, route, "contact is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(10).
			SetProjection(bson.M{
				"orderNumber":         1,
				"status":              1,
				"pricing.totalAmount": 1,
				"createdAt":           1,
				"shipping.fullName":   1,
			})

		cursor, err := db.Collection("orders").Find(ctx, bson.M{
			"$or": []bson.M{
				{"shipping.phone": contact},
				{"shipping.email": contact},
			},
		}, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		var orders []models.Order
		if err := cursor.All(ctx, &orders); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, orders)
	}
}
