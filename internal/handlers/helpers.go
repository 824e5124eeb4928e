package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/payments"
)

// respondServiceError maps engine errors onto HTTP statuses. Validation
// failures from the order factory (stock, price, missing product) and
// already-claimed sessions are conflicts, not server errors.
func respondServiceError(c *gin.Context, route string, err error) {
	switch {
	case errors.Is(err, payments.ErrSessionNotFound), errors.Is(err, payments.ErrOrderNotFound):
		respondWithError(c, http.StatusNotFound, route, err.Error())
	case errors.Is(err, payments.ErrUnauthorized):
		respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
	case payments.IsValidation(err):
		respondWithError(c, http.StatusBadRequest, route, err.Error())
	case payments.IsIntegrityViolation(err):
		respondWithError(c, http.StatusUnprocessableEntity, route, err.Error())
	case payments.IsConflict(err), payments.IsValidationFailure(err):
		respondWithError(c, http.StatusConflict, route, err.Error())
	default:
		respondWithError(c, http.StatusInternalServerError, route, "db error")
	}
}

// userIDFromHeader extracts the optional authenticated user from a bearer
// token. An absent header is a guest, not an error.
func userIDFromHeader(header, secret string) (*primitive.ObjectID, error) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errors.New("invalid token format")
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	userIDValue, ok := claims["userId"].(string)
	if !ok || strings.TrimSpace(userIDValue) == "" {
		return nil, errors.New("userId claim missing")
	}

	userID, err := primitive.ObjectIDFromHex(userIDValue)
	if err != nil {
		return nil, errors.New("invalid userId")
	}

	return &userID, nil
}
