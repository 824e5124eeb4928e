package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

// OrderFactory is the single choke point turning a paid session into an
// order. At most one order ever exists per session: the confirm claim on the
// session document guarantees it, not a database-level join.
type OrderFactory struct {
	db      *mongo.Database
	store   *SessionStore
	catalog *Catalog
}

func NewOrderFactory(db *mongo.Database, store *SessionStore, catalog *Catalog) *OrderFactory {
	return &OrderFactory{db: db, store: store, catalog: catalog}
}

func (f *OrderFactory) orders() *mongo.Collection {
	return f.db.Collection("orders")
}

// ConfirmAndCreateOrder materializes the order for a paid session. Losing the
// claim because an order already exists is a normal idempotent-success path:
// the existing order is returned, no duplicate is created. Validation
// failures are permanent rejections of this confirmation attempt; the session
// stays paid without an order number and needs manual review.
func (f *OrderFactory) ConfirmAndCreateOrder(ctx context.Context, sessionID string) (*models.Order, error) {
	session, won, err := f.store.ClaimConfirm(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !won {
		return f.resolveLostClaim(ctx, sessionID)
	}

	items, subtotal, err := f.validateItems(ctx, session)
	if err == nil {
		err = verifySessionPricing(session, subtotal)
	}
	if err != nil {
		if releaseErr := f.store.ReleaseConfirm(ctx, sessionID); releaseErr != nil {
			log.Printf("[FACTORY] [ERROR] releasing confirm claim for session %s: %v", sessionID, releaseErr)
		}
		log.Printf("[FACTORY] [WARN] confirmation rejected for session %s: %v", sessionID, err)
		return nil, err
	}

	orderNumber, err := f.generateOrderNumber(ctx)
	if err != nil {
		if releaseErr := f.store.ReleaseConfirm(ctx, sessionID); releaseErr != nil {
			log.Printf("[FACTORY] [ERROR] releasing confirm claim for session %s: %v", sessionID, releaseErr)
		}
		return nil, err
	}

	order := buildOrder(orderNumber, session, items)
	if _, err := f.orders().InsertOne(ctx, order); err != nil {
		if releaseErr := f.store.ReleaseConfirm(ctx, sessionID); releaseErr != nil {
			log.Printf("[FACTORY] [ERROR] releasing confirm claim for session %s: %v", sessionID, releaseErr)
		}
		return nil, fmt.Errorf("persisting order: %w", err)
	}

	// The order is durable from here on. Stock runs last to minimize the
	// window where an order exists without its decrement; a failure is an
	// inventory reconciliation alert, never a rollback.
	for _, item := range order.Items {
		if err := f.catalog.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			log.Printf("[FACTORY] [ALERT] stock decrement failed for order %s product %s: %v", orderNumber, item.ProductID.Hex(), err)
		}
	}

	if err := f.store.CompleteConfirm(ctx, sessionID, orderNumber); err != nil {
		log.Printf("[FACTORY] [ALERT] order %s created but session %s anchor not written: %v", orderNumber, sessionID, err)
	}

	log.Printf("[FACTORY] [INFO] order %s created for session %s", orderNumber, sessionID)
	return order, nil
}

// resolveLostClaim decides what a losing confirmer gets back.
func (f *OrderFactory) resolveLostClaim(ctx context.Context, sessionID string) (*models.Order, error) {
	session, err := f.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.OrderNumber != "" {
		return f.GetOrderByNumber(ctx, session.OrderNumber)
	}
	if session.Status != models.SessionPaid {
		return nil, conflictError{Reason: fmt.Sprintf("session is %s, not paid", session.Status)}
	}
	return nil, conflictError{Reason: "order confirmation already in progress"}
}

func (f *OrderFactory) validateItems(ctx context.Context, session *models.PaymentSession) ([]models.OrderItem, float64, error) {
	items := make([]models.OrderItem, 0, len(session.Items))
	subtotal := 0.0

	for _, line := range session.Items {
		productID, err := primitive.ObjectIDFromHex(line.ProductID)
		if err != nil {
			return nil, 0, productNotFoundError{ProductID: line.ProductID}
		}

		product, err := f.catalog.GetActive(ctx, productID)
		if err != nil {
			return nil, 0, err
		}

		if product.Stock < line.Quantity {
			return nil, 0, insufficientStockError{
				ProductID: line.ProductID,
				Available: product.Stock,
				Requested: line.Quantity,
			}
		}

		current := effectiveProductPrice(product.Price, product.SaleEnabled, product.SalePrice)
		if current != line.Price {
			return nil, 0, priceMismatchError{
				ProductID: line.ProductID,
				Locked:    line.Price,
				Current:   current,
			}
		}

		items = append(items, models.OrderItem{
			ProductID: productID,
			Name:      product.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
			Note:      line.Note,
		})
		subtotal += line.Price * float64(line.Quantity)
	}

	return items, subtotal, nil
}

// verifySessionPricing guards against tampered or stale session totals with
// zero tolerance. Recorded amounts are never trusted blindly.
func verifySessionPricing(session *models.PaymentSession, recomputedSubtotal float64) error {
	if recomputedSubtotal != session.Subtotal {
		return pricingIntegrityError{
			Detail: fmt.Sprintf("recomputed subtotal %.2f, session recorded %.2f", recomputedSubtotal, session.Subtotal),
		}
	}
	if session.Subtotal+session.DeliveryFee != session.TotalAmount {
		return pricingIntegrityError{
			Detail: fmt.Sprintf("subtotal %.2f + delivery fee %.2f != total %.2f", session.Subtotal, session.DeliveryFee, session.TotalAmount),
		}
	}
	return nil
}

func buildOrder(orderNumber string, session *models.PaymentSession, items []models.OrderItem) *models.Order {
	now := time.Now()
	orderType := "user"
	if session.IsGuestOrder {
		orderType = "guest"
	}

	transactionID := session.TransactionID
	if session.GatewayTransactionID != "" {
		transactionID = session.GatewayTransactionID
	}

	return &models.Order{
		OrderNumber: orderNumber,
		OrderType:   orderType,
		UserID:      session.UserID,
		Items:       items,
		Shipping:    session.ShippingInfo,
		Payment: models.OrderPayment{
			Method:        session.PaymentMethod,
			Amount:        session.TotalAmount,
			Status:        "paid",
			TransactionID: transactionID,
			BankReference: session.BankReference,
			PaidAt:        session.PaidAt,
		},
		Delivery: models.OrderDelivery{
			Method: session.DeliveryMethod,
			Fee:    session.DeliveryFee,
		},
		Pricing: models.OrderPricing{
			Subtotal:    session.Subtotal,
			DeliveryFee: session.DeliveryFee,
			TotalAmount: session.TotalAmount,
		},
		Note:   session.Note,
		Status: models.OrderConfirmed,
		StatusHistory: []models.StatusEntry{
			{Status: models.OrderConfirmed, Note: "payment received", UpdatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// randomOrderNumber produces a human-readable ORD code with a 3-6 digit
// numeric suffix.
func randomOrderNumber() string {
	length := 3 + rand.IntN(4)
	max := 1
	for i := 0; i < length; i++ {
		max *= 10
	}
	return fmt.Sprintf("ORD%0*d", length, rand.IntN(max))
}

// generateOrderNumber retries random candidates until one is free of
// collisions against existing orders.
func (f *OrderFactory) generateOrderNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 20; attempt++ {
		candidate := randomOrderNumber()

		count, err := f.orders().CountDocuments(ctx, bson.M{"orderNumber": candidate})
		if err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
	}
	return "", errors.New("could not generate a unique order number")
}

// GetOrderByNumber loads an existing order.
func (f *OrderFactory) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := f.orders().FindOne(ctx, bson.M{"orderNumber": orderNumber}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}
