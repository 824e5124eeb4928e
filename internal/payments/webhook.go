package payments

import (
	"context"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"backend/internal/models"
)

// WebhookPayload covers both the session-centric gateway push and the legacy
// order-centric variant. Gateways disagree on field names, so the accessors
// below normalize the two key sets.
type WebhookPayload struct {
	ID                int64   `json:"id"`
	Gateway           string  `json:"gateway"`
	TransactionDate   string  `json:"transactionDate"`
	SessionID         string  `json:"sessionId"`
	OrderCode         string  `json:"orderCode"`
	TransactionID     string  `json:"transactionId"`
	ReferenceCode     string  `json:"referenceCode"`
	Content           string  `json:"content"`
	Description       string  `json:"description"`
	Status            string  `json:"status"`
	TransferType      string  `json:"transferType"`
	TransferDirection string  `json:"transferDirection"`
	TransferAmount    float64 `json:"transferAmount"`
	Amount            float64 `json:"amount"`
}

func (p WebhookPayload) direction() string {
	if p.TransferType != "" {
		return p.TransferType
	}
	return p.TransferDirection
}

func (p WebhookPayload) amount() float64 {
	if p.TransferAmount != 0 {
		return p.TransferAmount
	}
	return p.Amount
}

func (p WebhookPayload) text() string {
	if p.Content != "" {
		return p.Content
	}
	return p.Description
}

func (p WebhookPayload) evidence() PaymentEvidence {
	ev := PaymentEvidence{
		BankReference:        p.ReferenceCode,
		GatewayName:          p.Gateway,
		GatewayTransactionID: p.TransactionID,
	}
	if ts, err := time.Parse("2006-01-02 15:04:05", p.TransactionDate); err == nil {
		ev.PaidAt = ts
	}
	return ev
}

// WebhookResult is the response envelope for gateway pushes.
type WebhookResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	SessionID   string `json:"sessionId,omitempty"`
	OrderNumber string `json:"orderNumber,omitempty"`
}

// checkAPIKey validates the optional shared secret. Gateways send it as
// "Apikey <key>" in the Authorization header.
func (s *Service) checkAPIKey(authHeader string) error {
	if s.cfg.GatewayAPIKey == "" {
		return nil
	}
	if authHeader != "Apikey "+s.cfg.GatewayAPIKey {
		return ErrUnauthorized
	}
	return nil
}

// HandleSessionWebhook ingests a gateway push for a payment session. Delivery
// is at-least-once and possibly duplicated; safety under redelivery comes
// from the claim on the session, not from deduplicating payloads.
func (s *Service) HandleSessionWebhook(ctx context.Context, payload WebhookPayload, authHeader string) (WebhookResult, error) {
	if err := s.checkAPIKey(authHeader); err != nil {
		return WebhookResult{}, err
	}

	if dir := payload.direction(); dir != "in" {
		log.Printf("[WEBHOOK] [INFO] ignoring outbound transfer (direction=%q)", dir)
		return WebhookResult{Success: false, Message: "not an inbound transfer"}, nil
	}

	// The gateway reports the payment outcome explicitly; a failed payment
	// never claims a session no matter how well the amount matches.
	if !strings.EqualFold(payload.Status, "success") {
		log.Printf("[WEBHOOK] [INFO] ignoring gateway status %q for session %q", payload.Status, payload.SessionID)
		return WebhookResult{Success: false, Message: "payment failed"}, nil
	}

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = ExtractSessionToken(payload.text())
	}
	if sessionID == "" {
		log.Printf("[WEBHOOK] [INFO] no session token in transfer content: %q", payload.text())
		return WebhookResult{Success: false, Message: "no identifiable session in transfer content"}, nil
	}

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return WebhookResult{}, err
	}

	if !amountMatches(payload.amount(), session.TotalAmount, s.cfg.MatchTolerance) {
		log.Printf("[WEBHOOK] [WARN] amount mismatch for session %s: expected %.0f, received %.0f", sessionID, session.TotalAmount, payload.amount())
		return WebhookResult{Success: false, SessionID: sessionID, Message: "amount mismatch"},
			conflictError{Reason: "transferred amount does not match the session total"}
	}

	won, err := s.store.ClaimPaid(ctx, sessionID, payload.evidence())
	if err != nil {
		return WebhookResult{}, err
	}
	if !won {
		return s.afterLostPaidClaim(ctx, sessionID)
	}

	order, err := s.factory.ConfirmAndCreateOrder(ctx, sessionID)
	if err != nil {
		// The payment itself is confirmed; only order materialization
		// failed. The error still surfaces so the gateway logs it.
		log.Printf("[WEBHOOK] [ERROR] order creation failed for session %s: %v", sessionID, err)
		return WebhookResult{Success: false, SessionID: sessionID, Message: "payment confirmed but order creation failed"}, err
	}

	log.Printf("[WEBHOOK] [INFO] session %s confirmed, order %s created", sessionID, order.OrderNumber)
	return WebhookResult{
		Success:     true,
		Message:     "payment confirmed and order created",
		SessionID:   sessionID,
		OrderNumber: order.OrderNumber,
	}, nil
}

// afterLostPaidClaim handles the duplicate-delivery and late-arrival cases:
// another confirmer already claimed the session, or it is past saving.
func (s *Service) afterLostPaidClaim(ctx context.Context, sessionID string) (WebhookResult, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return WebhookResult{}, err
	}

	switch session.Status {
	case models.SessionPaid:
		// Idempotent path: ride the factory's claim. It either returns the
		// already-created order or reports a confirmation in flight.
		order, err := s.factory.ConfirmAndCreateOrder(ctx, sessionID)
		if err != nil {
			return WebhookResult{Success: false, SessionID: sessionID, Message: "session already claimed"}, err
		}
		return WebhookResult{
			Success:     true,
			Message:     "payment already confirmed",
			SessionID:   sessionID,
			OrderNumber: order.OrderNumber,
		}, nil
	case models.SessionExpired, models.SessionCancelled:
		log.Printf("[WEBHOOK] [ALERT] late payment for %s session %s; manual reconciliation required", session.Status, sessionID)
		return WebhookResult{Success: false, SessionID: sessionID, Message: "session is " + session.Status},
			conflictError{Reason: "payment arrived for a " + session.Status + " session; manual reconciliation required"}
	default:
		return WebhookResult{Success: false, SessionID: sessionID, Message: "session could not be claimed"},
			conflictError{Reason: "session could not be claimed"}
	}
}

// HandleOrderWebhook is the legacy order-centric variant: the transfer
// references an already-created order instead of a session. The paid flip is
// one conditional update, so duplicate deliveries cannot double-append the
// confirmation.
func (s *Service) HandleOrderWebhook(ctx context.Context, payload WebhookPayload, authHeader string) (WebhookResult, error) {
	if err := s.checkAPIKey(authHeader); err != nil {
		return WebhookResult{}, err
	}

	if dir := payload.direction(); dir != "in" {
		log.Printf("[WEBHOOK] [INFO] ignoring outbound transfer (direction=%q)", dir)
		return WebhookResult{Success: false, Message: "not an inbound transfer"}, nil
	}

	orderCode := payload.OrderCode
	if orderCode == "" {
		orderCode = ExtractOrderCode(payload.text())
	}
	if orderCode == "" {
		log.Printf("[WEBHOOK] [INFO] no order code in transfer content: %q", payload.text())
		return WebhookResult{Success: false, Message: "no order code found in transfer content"}, nil
	}

	order, err := s.factory.GetOrderByNumber(ctx, orderCode)
	if err != nil {
		return WebhookResult{}, err
	}

	if !amountMatches(payload.amount(), order.Pricing.TotalAmount, s.cfg.MatchTolerance) {
		log.Printf("[WEBHOOK] [WARN] amount mismatch for order %s: expected %.0f, received %.0f", orderCode, order.Pricing.TotalAmount, payload.amount())
		return WebhookResult{Success: false, OrderNumber: orderCode, Message: "amount mismatch"},
			conflictError{Reason: "transferred amount does not match the order total"}
	}

	now := time.Now()
	res, err := s.db.Collection("orders").UpdateOne(ctx,
		bson.M{"orderNumber": orderCode, "payment.status": bson.M{"$ne": "paid"}},
		bson.M{
			"$set": bson.M{
				"payment.status":        "paid",
				"payment.paidAt":        now,
				"payment.transactionId": payload.TransactionID,
				"payment.bankReference": payload.ReferenceCode,
				"status":                models.OrderConfirmed,
				"updatedAt":             now,
			},
			"$push": bson.M{
				"statusHistory": models.StatusEntry{
					Status:    models.OrderConfirmed,
					Note:      "payment received via webhook",
					UpdatedAt: now,
				},
			},
		},
	)
	if err != nil {
		return WebhookResult{}, err
	}
	if res.ModifiedCount == 0 {
		return WebhookResult{Success: true, OrderNumber: orderCode, Message: "order already paid"}, nil
	}

	log.Printf("[WEBHOOK] [INFO] order %s marked paid", orderCode)
	return WebhookResult{Success: true, OrderNumber: orderCode, Message: "payment confirmed"}, nil
}
