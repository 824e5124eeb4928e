package payments

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

// SessionStore owns every payment-session mutation. Each status transition is
// a single conditional update keyed on the expected prior state, so two
// confirmation paths racing on the same session can never both observe
// "pending" and both proceed. There is deliberately no read-modify-write
// anywhere in this file.
type SessionStore struct {
	db *mongo.Database
}

func NewSessionStore(db *mongo.Database) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) sessions() *mongo.Collection {
	return s.db.Collection("payment_sessions")
}

func (s *SessionStore) Create(ctx context.Context, session *models.PaymentSession) error {
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	_, err := s.sessions().InsertOne(ctx, session)
	return err
}

// Get loads a session, lazily expiring it first: the deadline check and the
// status flip are one conditional update, so concurrent readers cannot
// resurrect or double-transition the session.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*models.PaymentSession, error) {
	now := time.Now()
	_, err := s.sessions().UpdateOne(ctx,
		bson.M{
			"sessionId": sessionID,
			"status":    models.SessionPending,
			"expiresAt": bson.M{"$lt": now},
		},
		bson.M{"$set": bson.M{"status": models.SessionExpired, "updatedAt": now}},
	)
	if err != nil {
		return nil, err
	}

	var session models.PaymentSession
	err = s.sessions().FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// PaymentEvidence is what a confirmation path observed when it decided the
// session was paid.
type PaymentEvidence struct {
	PaidAt               time.Time
	BankReference        string
	GatewayName          string
	GatewayTransactionID string
}

// ClaimPaid is the pending -> paid compare-and-swap. Only the caller that
// wins it may invoke the order factory; everyone else sees false and treats
// the session as already being handled. An expired session never matches the
// filter, so a late payment can never resurrect it.
func (s *SessionStore) ClaimPaid(ctx context.Context, sessionID string, ev PaymentEvidence) (bool, error) {
	paidAt := ev.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	set := bson.M{
		"status":    models.SessionPaid,
		"paidAt":    paidAt,
		"updatedAt": time.Now(),
	}
	if ev.BankReference != "" {
		set["bankReference"] = ev.BankReference
	}
	if ev.GatewayName != "" {
		set["gatewayName"] = ev.GatewayName
	}
	if ev.GatewayTransactionID != "" {
		set["gatewayTransactionId"] = ev.GatewayTransactionID
	}

	res, err := s.sessions().UpdateOne(ctx,
		bson.M{
			"sessionId": sessionID,
			"status":    models.SessionPending,
			"expiresAt": bson.M{"$gt": time.Now()},
		},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ClaimConfirm is the order factory's claim: paid, no order number yet, no
// other confirmation in flight. Returns the claimed session and whether this
// caller won.
func (s *SessionStore) ClaimConfirm(ctx context.Context, sessionID string) (*models.PaymentSession, bool, error) {
	after := options.After
	var session models.PaymentSession
	err := s.sessions().FindOneAndUpdate(ctx,
		bson.M{
			"sessionId":   sessionID,
			"status":      models.SessionPaid,
			"orderNumber": bson.M{"$exists": false},
			"confirming":  bson.M{"$ne": true},
		},
		bson.M{"$set": bson.M{"confirming": true, "updatedAt": time.Now()}},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &session, true, nil
}

// ReleaseConfirm backs out a failed claim. The session stays paid without an
// order number; rejected confirmations are handled manually, never retried
// automatically.
func (s *SessionStore) ReleaseConfirm(ctx context.Context, sessionID string) error {
	_, err := s.sessions().UpdateOne(ctx,
		bson.M{"sessionId": sessionID},
		bson.M{
			"$unset": bson.M{"confirming": ""},
			"$set":   bson.M{"updatedAt": time.Now()},
		},
	)
	return err
}

// CompleteConfirm writes the generated order number back onto the session,
// finishing the idempotency anchor. Once set it never changes.
func (s *SessionStore) CompleteConfirm(ctx context.Context, sessionID, orderNumber string) error {
	_, err := s.sessions().UpdateOne(ctx,
		bson.M{"sessionId": sessionID, "orderNumber": bson.M{"$exists": false}},
		bson.M{
			"$set":   bson.M{"orderNumber": orderNumber, "updatedAt": time.Now()},
			"$unset": bson.M{"confirming": ""},
		},
	)
	return err
}

// ListOpen returns the sessions a confirmation sweep should poll: pending
// bank transfers, unexpired, created within the lookback window so poller
// load stays bounded.
func (s *SessionStore) ListOpen(ctx context.Context, lookback time.Duration) ([]models.PaymentSession, error) {
	now := time.Now()
	cursor, err := s.sessions().Find(ctx, bson.M{
		"status":        models.SessionPending,
		"paymentMethod": "bank_transfer",
		"expiresAt":     bson.M{"$gt": now},
		"createdAt":     bson.M{"$gte": now.Add(-lookback)},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []models.PaymentSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ExpireStale bulk-transitions every pending session past its deadline.
func (s *SessionStore) ExpireStale(ctx context.Context) (int64, error) {
	now := time.Now()
	res, err := s.sessions().UpdateMany(ctx,
		bson.M{
			"status":    models.SessionPending,
			"expiresAt": bson.M{"$lt": now},
		},
		bson.M{"$set": bson.M{"status": models.SessionExpired, "updatedAt": now}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Cancel transitions a pending session to cancelled. Returns false when the
// session was not pending anymore.
func (s *SessionStore) Cancel(ctx context.Context, sessionID string) (bool, error) {
	res, err := s.sessions().UpdateOne(ctx,
		bson.M{"sessionId": sessionID, "status": models.SessionPending},
		bson.M{"$set": bson.M{"status": models.SessionCancelled, "updatedAt": time.Now()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
