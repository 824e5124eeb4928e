package handlers

import (
	"testing"

	"backend/internal/models"
)

func TestAllowedOrderStatuses(t *testing.T) {
	for _, status := range []string{
		models.OrderPending,
		models.OrderConfirmed,
		models.OrderPreparing,
		models.OrderShipping,
		models.OrderDelivered,
		models.OrderCancelled,
	} {
		if !allowedOrderStatuses[status] {
			t.Fatalf("expected status %q to be allowed", status)
		}
	}

	for _, status := range []string{"", "paid", "refunded", "CONFIRMED"} {
		if allowedOrderStatuses[status] {
			t.Fatalf("expected status %q to be rejected", status)
		}
	}
}
