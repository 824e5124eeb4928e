package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"backend/internal/models"
)

// CreateOrderPayment issues bank-transfer instructions for an already-created
// order (the legacy order-first flow). Unlike the ledger tolerance, the
// requested amount must equal the order total exactly.
func (s *Service) CreateOrderPayment(ctx context.Context, orderNumber, bankCode string, amount float64) (*TransferInstructions, error) {
	order, err := s.factory.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	if order.Status == models.OrderDelivered || order.Status == models.OrderCancelled {
		return nil, conflictError{Reason: "order is " + order.Status + " and cannot be paid"}
	}
	if order.Payment.Status == "paid" {
		return nil, conflictError{Reason: "order is already paid"}
	}
	if amount != order.Pricing.TotalAmount {
		return nil, validationError{Reason: "amount does not match the order total"}
	}

	accountNumber, ok := s.cfg.BankAccounts[bankCode]
	if !ok {
		return nil, validationError{Reason: "unsupported bank code"}
	}

	transactionID := "PAY_" + uuid.New().String()
	_, err = s.db.Collection("orders").UpdateOne(ctx,
		bson.M{"orderNumber": orderNumber},
		bson.M{"$set": bson.M{
			"payment.transactionId": transactionID,
			"payment.status":        "pending",
			"updatedAt":             time.Now(),
		}},
	)
	if err != nil {
		return nil, err
	}

	return &TransferInstructions{
		BankCode:        bankCode,
		AccountNumber:   accountNumber,
		AccountName:     s.cfg.AccountName,
		Amount:          amount,
		TransferContent: orderNumber,
		QRCode:          vietQRURL(bankCode, accountNumber, amount, orderNumber),
		TransactionID:   transactionID,
	}, nil
}

type OrderPaymentStatus struct {
	OrderNumber   string  `json:"orderNumber"`
	PaymentStatus string  `json:"paymentStatus"`
	OrderStatus   string  `json:"orderStatus"`
	Amount        float64 `json:"amount"`
	TransactionID string  `json:"transactionId,omitempty"`
}

// GetOrderPaymentStatus reports an order's payment state.
func (s *Service) GetOrderPaymentStatus(ctx context.Context, orderNumber string) (*OrderPaymentStatus, error) {
	order, err := s.factory.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	paymentStatus := order.Payment.Status
	if paymentStatus == "" {
		paymentStatus = "pending"
	}

	return &OrderPaymentStatus{
		OrderNumber:   orderNumber,
		PaymentStatus: paymentStatus,
		OrderStatus:   order.Status,
		Amount:        order.Pricing.TotalAmount,
		TransactionID: order.Payment.TransactionID,
	}, nil
}
