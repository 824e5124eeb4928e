package payments

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/config"
	"backend/internal/models"
)

// Service is the reconciliation engine's front door: session creation, the
// three confirmation paths (webhook, sweep, status query), and the periodic
// sweeps all go through it.
type Service struct {
	db      *mongo.Database
	cfg     config.PaymentConfig
	store   *SessionStore
	catalog *Catalog
	factory *OrderFactory
	poller  *LedgerPoller
}

func NewService(db *mongo.Database, cfg config.PaymentConfig) *Service {
	store := NewSessionStore(db)
	catalog := NewCatalog(db)
	return &Service{
		db:      db,
		cfg:     cfg,
		store:   store,
		catalog: catalog,
		factory: NewOrderFactory(db, store, catalog),
		poller:  NewLedgerPoller(cfg.LedgerFeedURL, cfg.MatchTolerance, cfg.LedgerTimeout),
	}
}

// CreateSessionInput is the validated checkout payload.
type CreateSessionInput struct {
	Items          []models.SessionItem
	ShippingInfo   models.ShippingInfo
	PaymentMethod  string
	DeliveryMethod string
	DeliveryFee    float64
	BankCode       string
	Note           string
	Amount         float64
	IsGuestOrder   bool
	UserID         *primitive.ObjectID
}

// TransferInstructions is what the customer needs to send the bank transfer.
type TransferInstructions struct {
	BankCode        string  `json:"bankCode"`
	AccountNumber   string  `json:"accountNumber"`
	AccountName     string  `json:"accountName"`
	Amount          float64 `json:"amount"`
	TransferContent string  `json:"transferContent"`
	QRCode          string  `json:"qrCode"`
	TransactionID   string  `json:"transactionId"`
}

type CreateSessionResult struct {
	SessionID   string                `json:"sessionId"`
	ExpiresAt   time.Time             `json:"expiresAt"`
	PaymentInfo *TransferInstructions `json:"paymentInfo,omitempty"`
	Subtotal    float64               `json:"subtotal"`
	DeliveryFee float64               `json:"deliveryFee"`
	TotalAmount float64               `json:"totalAmount"`
}

// CreateSession opens a checkout awaiting payment. Pricing is computed here,
// once, and fixed for the session's life; ExpiresAt is likewise fixed at
// creation.
func (s *Service) CreateSession(ctx context.Context, input CreateSessionInput) (*CreateSessionResult, error) {
	if len(input.Items) == 0 {
		return nil, validationError{Reason: "at least one item is required"}
	}
	if input.PaymentMethod != "bank_transfer" && input.PaymentMethod != "cod" {
		return nil, validationError{Reason: "invalid payment method"}
	}
	if input.DeliveryFee < 0 {
		return nil, validationError{Reason: "delivery fee cannot be negative"}
	}

	subtotal := 0.0
	for _, item := range input.Items {
		if item.ProductID == "" {
			return nil, validationError{Reason: "productId is required"}
		}
		if _, err := primitive.ObjectIDFromHex(item.ProductID); err != nil {
			return nil, validationError{Reason: "invalid productId"}
		}
		if item.Quantity <= 0 {
			return nil, validationError{Reason: "quantity must be greater than zero"}
		}
		if item.Price < 0 {
			return nil, validationError{Reason: "price cannot be negative"}
		}
		subtotal += item.Price * float64(item.Quantity)
	}

	total := subtotal + input.DeliveryFee
	if input.Amount != total {
		return nil, validationError{Reason: fmt.Sprintf("amount %.0f does not match the order total %.0f", input.Amount, total)}
	}

	now := time.Now()
	session := &models.PaymentSession{
		SessionID:      fmt.Sprintf("SESSION%d", now.UnixMilli()),
		UserID:         input.UserID,
		Items:          input.Items,
		ShippingInfo:   input.ShippingInfo,
		PaymentMethod:  input.PaymentMethod,
		DeliveryMethod: input.DeliveryMethod,
		Subtotal:       subtotal,
		DeliveryFee:    input.DeliveryFee,
		TotalAmount:    total,
		Note:           input.Note,
		IsGuestOrder:   input.IsGuestOrder,
		Status:         models.SessionPending,
		ExpiresAt:      now.Add(s.cfg.SessionTTL),
	}

	var instructions *TransferInstructions
	if input.PaymentMethod == "bank_transfer" {
		accountNumber, ok := s.cfg.BankAccounts[input.BankCode]
		if !ok {
			return nil, validationError{Reason: "unsupported bank code"}
		}

		session.BankCode = input.BankCode
		session.TransactionID = "PAY_" + uuid.New().String()
		session.AccountNumber = accountNumber
		// The transfer reference is the session id itself; the matching
		// heuristic derives its patterns from it.
		session.TransferContent = session.SessionID
		session.QRCode = vietQRURL(input.BankCode, accountNumber, total, session.SessionID)

		instructions = &TransferInstructions{
			BankCode:        session.BankCode,
			AccountNumber:   session.AccountNumber,
			AccountName:     s.cfg.AccountName,
			Amount:          total,
			TransferContent: session.TransferContent,
			QRCode:          session.QRCode,
			TransactionID:   session.TransactionID,
		}
	}

	if err := s.store.Create(ctx, session); err != nil {
		return nil, err
	}

	log.Printf("[SESSION] [INFO] session %s created, total %.0f, expires %s", session.SessionID, total, session.ExpiresAt.Format(time.RFC3339))
	return &CreateSessionResult{
		SessionID:   session.SessionID,
		ExpiresAt:   session.ExpiresAt,
		PaymentInfo: instructions,
		Subtotal:    subtotal,
		DeliveryFee: input.DeliveryFee,
		TotalAmount: total,
	}, nil
}

// StatusResult answers "is this session paid yet?".
type StatusResult struct {
	SessionID     string    `json:"sessionId"`
	Status        string    `json:"status"`
	ExpiresAt     time.Time `json:"expiresAt"`
	OrderNumber   string    `json:"orderNumber,omitempty"`
	TotalAmount   float64   `json:"totalAmount"`
	AutoConfirmed bool      `json:"autoConfirmed"`
	Message       string    `json:"message,omitempty"`
}

// CheckStatus reports the session state and, for a still-pending session,
// performs one opportunistic ledger check so the customer gets a synchronous
// answer instead of waiting for the next sweep.
func (s *Service) CheckStatus(ctx context.Context, sessionID string) (*StatusResult, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status == models.SessionPending {
		if s.poller.FindMatchingPayment(ctx, sessionID, session.TotalAmount) {
			return s.confirmFromLedgerMatch(ctx, session)
		}
	}

	return &StatusResult{
		SessionID:   session.SessionID,
		Status:      session.Status,
		ExpiresAt:   session.ExpiresAt,
		OrderNumber: session.OrderNumber,
		TotalAmount: session.TotalAmount,
	}, nil
}

// confirmFromLedgerMatch runs the shared claim-and-create path after a
// ledger row matched the session.
func (s *Service) confirmFromLedgerMatch(ctx context.Context, session *models.PaymentSession) (*StatusResult, error) {
	sessionID := session.SessionID
	won, err := s.store.ClaimPaid(ctx, sessionID, PaymentEvidence{})
	if err != nil {
		return nil, err
	}
	if !won {
		// Someone else confirmed (or the session expired) between the poll
		// and the claim; report whatever state won.
		current, err := s.store.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if current.Status == models.SessionExpired || current.Status == models.SessionCancelled {
			log.Printf("[RECONCILE] [ALERT] ledger match arrived for %s session %s; manual reconciliation required", current.Status, sessionID)
		}
		return &StatusResult{
			SessionID:   current.SessionID,
			Status:      current.Status,
			ExpiresAt:   current.ExpiresAt,
			OrderNumber: current.OrderNumber,
			TotalAmount: current.TotalAmount,
		}, nil
	}

	order, err := s.factory.ConfirmAndCreateOrder(ctx, sessionID)
	if err != nil {
		log.Printf("[RECONCILE] [ERROR] order creation failed for session %s: %v", sessionID, err)
		return &StatusResult{
			SessionID:     sessionID,
			Status:        models.SessionPaid,
			ExpiresAt:     session.ExpiresAt,
			TotalAmount:   session.TotalAmount,
			AutoConfirmed: true,
			Message:       "payment confirmed but order creation failed",
		}, nil
	}

	log.Printf("[RECONCILE] [INFO] session %s auto-confirmed, order %s", sessionID, order.OrderNumber)
	return &StatusResult{
		SessionID:     sessionID,
		Status:        models.SessionPaid,
		ExpiresAt:     session.ExpiresAt,
		OrderNumber:   order.OrderNumber,
		TotalAmount:   session.TotalAmount,
		AutoConfirmed: true,
		Message:       "payment confirmed and order created",
	}, nil
}

type ManualCheckResult struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	OrderNumber string `json:"orderNumber,omitempty"`
}

// ManualCheck forces an immediate ledger check for one session.
func (s *Service) ManualCheck(ctx context.Context, sessionID string) (*ManualCheckResult, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status != models.SessionPending {
		return &ManualCheckResult{
			Status:      session.Status,
			Message:     "session already processed",
			OrderNumber: session.OrderNumber,
		}, nil
	}

	if !s.poller.FindMatchingPayment(ctx, sessionID, session.TotalAmount) {
		return &ManualCheckResult{Status: "still_pending", Message: "payment not yet received"}, nil
	}

	result, err := s.confirmFromLedgerMatch(ctx, session)
	if err != nil {
		return nil, err
	}
	return &ManualCheckResult{
		Status:      "confirmed",
		Message:     result.Message,
		OrderNumber: result.OrderNumber,
	}, nil
}

// Confirm explicitly materializes the order for a paid session.
func (s *Service) Confirm(ctx context.Context, sessionID string) (*models.Order, error) {
	return s.factory.ConfirmAndCreateOrder(ctx, sessionID)
}

// Cancel aborts a still-pending session.
func (s *Service) Cancel(ctx context.Context, sessionID string) error {
	ok, err := s.store.Cancel(ctx, sessionID)
	if err != nil {
		return err
	}
	if !ok {
		session, err := s.store.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		return conflictError{Reason: "session is " + session.Status + ", not pending"}
	}
	log.Printf("[SESSION] [INFO] session %s cancelled", sessionID)
	return nil
}

// ConfirmSweep polls the ledger for every open session. One session's
// failure never aborts the rest; each attempt is isolated and logged.
func (s *Service) ConfirmSweep(ctx context.Context) (checked, confirmed int) {
	sessions, err := s.store.ListOpen(ctx, s.cfg.SweepLookback)
	if err != nil {
		log.Println("[SWEEP] [ERROR] listing open sessions:", err)
		return 0, 0
	}

	log.Printf("[SWEEP] [INFO] checking %d pending sessions", len(sessions))
	for _, session := range sessions {
		checked++
		if !s.poller.FindMatchingPayment(ctx, session.SessionID, session.TotalAmount) {
			continue
		}
		if _, err := s.confirmFromLedgerMatch(ctx, &session); err != nil {
			log.Printf("[SWEEP] [ERROR] session %s: %v", session.SessionID, err)
			continue
		}
		confirmed++
	}

	if confirmed > 0 {
		log.Printf("[SWEEP] [INFO] confirmed %d of %d sessions", confirmed, checked)
	}
	return checked, confirmed
}

// ExpirySweep bulk-expires overdue sessions.
func (s *Service) ExpirySweep(ctx context.Context) int64 {
	expired, err := s.store.ExpireStale(ctx)
	if err != nil {
		log.Println("[SWEEP] [ERROR] expiring sessions:", err)
		return 0
	}
	if expired > 0 {
		log.Printf("[SWEEP] [INFO] expired %d payment sessions", expired)
	}
	return expired
}

func vietQRURL(bankCode, accountNumber string, amount float64, content string) string {
	return fmt.Sprintf(
		"https://img.vietqr.io/image/%s-%s-compact2.jpg?amount=%.0f&addInfo=%s",
		bankCode, accountNumber, amount, url.QueryEscape(content),
	)
}
