package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment session status values. "paid" with a non-empty OrderNumber is
// terminal; expired and cancelled sessions are kept as an audit trail.
const (
	SessionPending   = "pending"
	SessionPaid      = "paid"
	SessionExpired   = "expired"
	SessionCancelled = "cancelled"
)

// SessionItem is one cart line captured at checkout. ProductID stays a plain
// string inside the session and is converted to an ObjectID when the order is
// created.
type SessionItem struct {
	ProductID string  `bson:"productId" json:"productId"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	Price     float64 `bson:"price" json:"price"`
	Note      string  `bson:"note,omitempty" json:"note,omitempty"`
}

// PaymentSession is a checkout awaiting payment confirmation. Its status is
// mutated only through conditional updates in the session store; OrderNumber
// is set exactly once, by the order factory, and never changes afterwards.
type PaymentSession struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	SessionID      string              `bson:"sessionId" json:"sessionId"`
	UserID         *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	Items          []SessionItem       `bson:"items" json:"items"`
	ShippingInfo   ShippingInfo        `bson:"shippingInfo" json:"shippingInfo"`
	PaymentMethod  string              `bson:"paymentMethod" json:"paymentMethod"`
	DeliveryMethod string              `bson:"deliveryMethod" json:"deliveryMethod"`
	Subtotal       float64             `bson:"subtotal" json:"subtotal"`
	DeliveryFee    float64             `bson:"deliveryFee" json:"deliveryFee"`
	TotalAmount    float64             `bson:"totalAmount" json:"totalAmount"`
	Note           string              `bson:"note,omitempty" json:"note,omitempty"`
	IsGuestOrder   bool                `bson:"isGuestOrder" json:"isGuestOrder"`

	// Bank transfer instructions handed to the customer.
	BankCode        string `bson:"bankCode,omitempty" json:"bankCode,omitempty"`
	TransactionID   string `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	AccountNumber   string `bson:"accountNumber,omitempty" json:"accountNumber,omitempty"`
	TransferContent string `bson:"transferContent,omitempty" json:"transferContent,omitempty"`
	QRCode          string `bson:"qrCode,omitempty" json:"qrCode,omitempty"`

	// Evidence recorded when a confirmation path marks the session paid.
	BankReference        string `bson:"bankReference,omitempty" json:"bankReference,omitempty"`
	GatewayName          string `bson:"gatewayName,omitempty" json:"gatewayName,omitempty"`
	GatewayTransactionID string `bson:"gatewayTransactionId,omitempty" json:"gatewayTransactionId,omitempty"`

	Status    string     `bson:"status" json:"status"`
	ExpiresAt time.Time  `bson:"expiresAt" json:"expiresAt"`
	PaidAt    *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`

	// OrderNumber is the idempotency anchor: non-empty iff an order was
	// created from this session.
	OrderNumber string `bson:"orderNumber,omitempty" json:"orderNumber,omitempty"`

	// Confirming marks an order-creation attempt in flight so concurrent
	// confirmers cannot both pass the factory's claim.
	Confirming bool `bson:"confirming,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
