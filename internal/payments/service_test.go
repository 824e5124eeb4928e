package payments

import (
	"bytes"
	"context"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"backend/internal/config"
	"backend/internal/models"
)

// Validation rejections happen before any database access, so a bare Service
// is enough for these.
func validationOnlyService() *Service {
	return &Service{cfg: config.PaymentConfig{
		BankAccounts: map[string]string{"VCB": "1031293650", "MB": "0347178790"},
	}}
}

func validCreateInput() CreateSessionInput {
	return CreateSessionInput{
		Items: []models.SessionItem{
			{ProductID: primitive.NewObjectID().Hex(), Quantity: 2, Price: 65000},
		},
		PaymentMethod:  "bank_transfer",
		DeliveryMethod: "standard",
		DeliveryFee:    20000,
		BankCode:       "VCB",
		Amount:         150000,
		IsGuestOrder:   true,
	}
}

func TestCreateSessionRejectsEmptyItems(t *testing.T) {
	input := validCreateInput()
	input.Items = nil

	_, err := validationOnlyService().CreateSession(context.Background(), input)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestCreateSessionRejectsPaymentMethod(t *testing.T) {
	input := validCreateInput()
	input.PaymentMethod = "credit_card"

	_, err := validationOnlyService().CreateSession(context.Background(), input)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestCreateSessionRejectsNegativeDeliveryFee(t *testing.T) {
	input := validCreateInput()
	input.DeliveryFee = -1

	_, err := validationOnlyService().CreateSession(context.Background(), input)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestCreateSessionRejectsBadProductID(t *testing.T) {
	input := validCreateInput()
	input.Items[0].ProductID = "not-a-hex-id"

	_, err := validationOnlyService().CreateSession(context.Background(), input)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestCreateSessionRejectsZeroQuantity(t *testing.T) {
	input := validCreateInput()
	input.Items[0].Quantity = 0

	_, err := validationOnlyService().CreateSession(context.Background(), input)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestCreateSessionRejectsAmountMismatch(t *testing.T) {
	input := validCreateInput()
	input.Amount = 149000

	_, err := validationOnlyService().CreateSession(context.Background(), input)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "does not match")
}

func TestCreateSessionRejectsUnknownBankCode(t *testing.T) {
	input := validCreateInput()
	input.BankCode = "TPB"

	_, err := validationOnlyService().CreateSession(context.Background(), input)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestConfirmFromLedgerMatchAlertsOnLateMatch(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("expired session", func(mt *mtest.T) {
		mt.AddMockResponses(
			claimUpdateResponse(0), // paid claim lost to expiry
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, "storefront.payment_sessions", mtest.FirstBatch, bson.D{
				{Key: "sessionId", Value: "SESSION1700000000000"},
				{Key: "status", Value: models.SessionExpired},
			}),
		)

		var logs bytes.Buffer
		log.SetOutput(&logs)
		defer log.SetOutput(os.Stderr)

		svc := &Service{store: NewSessionStore(mt.DB)}
		session := &models.PaymentSession{
			SessionID:   "SESSION1700000000000",
			Status:      models.SessionPending,
			TotalAmount: 150000,
		}

		result, err := svc.confirmFromLedgerMatch(context.Background(), session)
		require.NoError(mt, err)
		assert.Equal(mt, models.SessionExpired, result.Status)
		assert.False(mt, result.AutoConfirmed, "a late match must never resurrect an expired session")
		assert.Empty(mt, result.OrderNumber)
		assert.Contains(mt, logs.String(), "manual reconciliation required")
	})
}

func TestVietQRURL(t *testing.T) {
	got := vietQRURL("MB", "0347178790", 150000, "SESSION1700000000000")
	want := "https://img.vietqr.io/image/MB-0347178790-compact2.jpg?amount=150000&addInfo=SESSION1700000000000"
	assert.Equal(t, want, got)
}

func TestVietQRURLEscapesContent(t *testing.T) {
	got := vietQRURL("VCB", "1031293650", 99000, "SESSION 123")
	assert.Contains(t, got, "addInfo=SESSION+123")
}
