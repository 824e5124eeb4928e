package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order status values. An order advances by administrative action only;
// "cancelled" is reachable from any non-terminal state.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderPreparing = "preparing"
	OrderShipping  = "shipping"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// OrderItem is a single product line with the price locked in at checkout.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Note      string             `bson:"note,omitempty" json:"note,omitempty"`
}

// ShippingInfo is the delivery address snapshot captured from the session.
type ShippingInfo struct {
	FullName string `bson:"fullName" json:"fullName"`
	Phone    string `bson:"phone" json:"phone"`
	Email    string `bson:"email" json:"email"`
	Address  string `bson:"address" json:"address"`
	City     string `bson:"city" json:"city"`
	District string `bson:"district" json:"district"`
	Ward     string `bson:"ward,omitempty" json:"ward,omitempty"`
	Note     string `bson:"note,omitempty" json:"note,omitempty"`
}

type OrderPayment struct {
	Method        string     `bson:"method" json:"method"`
	Amount        float64    `bson:"amount" json:"amount"`
	Status        string     `bson:"status" json:"status"`
	TransactionID string     `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	BankReference string     `bson:"bankReference,omitempty" json:"bankReference,omitempty"`
	PaidAt        *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
}

type OrderDelivery struct {
	Method string  `bson:"method" json:"method"`
	Fee    float64 `bson:"fee" json:"fee"`
}

// OrderPricing must always satisfy TotalAmount == Subtotal + DeliveryFee;
// the order factory re-verifies this before persisting.
type OrderPricing struct {
	Subtotal    float64 `bson:"subtotal" json:"subtotal"`
	DeliveryFee float64 `bson:"deliveryFee" json:"deliveryFee"`
	TotalAmount float64 `bson:"totalAmount" json:"totalAmount"`
}

// StatusEntry is one append-only status history record.
type StatusEntry struct {
	Status    string    `bson:"status" json:"status"`
	Note      string    `bson:"note,omitempty" json:"note,omitempty"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Order is the durable sale record, created exactly once per payment session.
type Order struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrderNumber   string              `bson:"orderNumber" json:"orderNumber"`
	OrderType     string              `bson:"orderType" json:"orderType"`
	UserID        *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	Items         []OrderItem         `bson:"items" json:"items"`
	Shipping      ShippingInfo        `bson:"shipping" json:"shipping"`
	Payment       OrderPayment        `bson:"payment" json:"payment"`
	Delivery      OrderDelivery       `bson:"delivery" json:"delivery"`
	Pricing       OrderPricing        `bson:"pricing" json:"pricing"`
	Note          string              `bson:"note,omitempty" json:"note,omitempty"`
	Status        string              `bson:"status" json:"status"`
	StatusHistory []StatusEntry       `bson:"statusHistory" json:"statusHistory"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt" json:"updatedAt"`
}
