package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/internal/config"
)

func TestWebhookPayloadDirection(t *testing.T) {
	assert.Equal(t, "in", WebhookPayload{TransferType: "in"}.direction())
	assert.Equal(t, "in", WebhookPayload{TransferDirection: "in"}.direction())
	assert.Equal(t, "out", WebhookPayload{TransferType: "out", TransferDirection: "in"}.direction(),
		"transferType wins when both keys are present")
	assert.Equal(t, "", WebhookPayload{}.direction())
}

func TestWebhookPayloadAmount(t *testing.T) {
	assert.Equal(t, 150000.0, WebhookPayload{TransferAmount: 150000}.amount())
	assert.Equal(t, 150000.0, WebhookPayload{Amount: 150000}.amount())
	assert.Equal(t, 150000.0, WebhookPayload{TransferAmount: 150000, Amount: 99}.amount())
}

func TestWebhookPayloadText(t *testing.T) {
	assert.Equal(t, "SESSION123", WebhookPayload{Content: "SESSION123"}.text())
	assert.Equal(t, "SESSION123", WebhookPayload{Description: "SESSION123"}.text())
	assert.Equal(t, "from content", WebhookPayload{Content: "from content", Description: "from description"}.text())
}

func TestWebhookPayloadEvidence(t *testing.T) {
	p := WebhookPayload{
		Gateway:         "MBBank",
		TransactionID:   "728912",
		ReferenceCode:   "FT25091512345",
		TransactionDate: "2025-09-15 14:30:00",
	}

	ev := p.evidence()
	assert.Equal(t, "MBBank", ev.GatewayName)
	assert.Equal(t, "728912", ev.GatewayTransactionID)
	assert.Equal(t, "FT25091512345", ev.BankReference)
	assert.Equal(t, time.Date(2025, 9, 15, 14, 30, 0, 0, time.UTC), ev.PaidAt)
}

func TestWebhookPayloadEvidenceBadDate(t *testing.T) {
	ev := WebhookPayload{TransactionDate: "15/09/2025"}.evidence()
	assert.True(t, ev.PaidAt.IsZero(), "unparseable dates leave PaidAt unset")
}

func TestCheckAPIKey(t *testing.T) {
	svc := &Service{cfg: config.PaymentConfig{GatewayAPIKey: "secret-key"}}

	assert.NoError(t, svc.checkAPIKey("Apikey secret-key"))
	assert.ErrorIs(t, svc.checkAPIKey("Apikey wrong"), ErrUnauthorized)
	assert.ErrorIs(t, svc.checkAPIKey("Bearer secret-key"), ErrUnauthorized)
	assert.ErrorIs(t, svc.checkAPIKey(""), ErrUnauthorized)

	open := &Service{cfg: config.PaymentConfig{}}
	assert.NoError(t, open.checkAPIKey(""), "no configured key disables the check")
}

func TestHandleSessionWebhookRejectsBadKey(t *testing.T) {
	svc := &Service{cfg: config.PaymentConfig{GatewayAPIKey: "secret-key"}}

	_, err := svc.HandleSessionWebhook(context.Background(), WebhookPayload{TransferType: "in"}, "Apikey nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestHandleSessionWebhookIgnoresOutbound(t *testing.T) {
	svc := &Service{}

	res, err := svc.HandleSessionWebhook(context.Background(), WebhookPayload{TransferType: "out"}, "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "not an inbound transfer", res.Message)
}

func TestHandleSessionWebhookRejectsFailedStatus(t *testing.T) {
	svc := &Service{}
	payload := WebhookPayload{
		TransferType:   "in",
		SessionID:      "SESSION1700000000000",
		Status:         "failed",
		TransferAmount: 150000,
	}

	res, err := svc.HandleSessionWebhook(context.Background(), payload, "")
	require.NoError(t, err)
	assert.False(t, res.Success, "a failed payment must never claim the session, even with a matching amount")
	assert.Equal(t, "payment failed", res.Message)
}

func TestHandleSessionWebhookRequiresSuccessStatus(t *testing.T) {
	svc := &Service{}
	payload := WebhookPayload{
		TransferType: "in",
		SessionID:    "SESSION1700000000000",
	}

	res, err := svc.HandleSessionWebhook(context.Background(), payload, "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "payment failed", res.Message)
}

func TestHandleSessionWebhookNoToken(t *testing.T) {
	svc := &Service{}
	payload := WebhookPayload{
		TransferType:   "in",
		Status:         "success",
		Content:        "thanh toan don hang",
		TransferAmount: 150000,
	}

	res, err := svc.HandleSessionWebhook(context.Background(), payload, "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "no identifiable session in transfer content", res.Message)
}

func TestHandleOrderWebhookIgnoresOutbound(t *testing.T) {
	svc := &Service{}

	res, err := svc.HandleOrderWebhook(context.Background(), WebhookPayload{TransferDirection: "out"}, "")
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestHandleOrderWebhookNoOrderCode(t *testing.T) {
	svc := &Service{}
	payload := WebhookPayload{
		TransferType: "in",
		Content:      "chuyen tien SESSION1700000000000",
	}

	res, err := svc.HandleOrderWebhook(context.Background(), payload, "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "no order code found in transfer content", res.Message)
}
