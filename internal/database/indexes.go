package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureSessionIndexes backs the payment-session idempotency anchor: sessionId
// lookups must be unique, and the sweeps filter on status + expiry.
func EnsureSessionIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("payment_sessions").Indexes()

	sessionIDIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "sessionId", Value: 1}},
		Options: options.Index().
			SetName("sessionId_unique").
			SetUnique(true),
	}

	log.Println("EnsureSessionIndexes: creating sessionId_unique index")
	if _, err := indexes.CreateOne(ctx, sessionIDIndex); err != nil {
		log.Println("EnsureSessionIndexes: sessionId index error:", err)
		return err
	}

	sweepIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}},
		Options: options.Index().SetName("status_expiresAt_index"),
	}

	log.Println("EnsureSessionIndexes: creating status_expiresAt_index")
	if _, err := indexes.CreateOne(ctx, sweepIndex); err != nil {
		log.Println("EnsureSessionIndexes: sweep index error:", err)
		return err
	}
	log.Println("EnsureSessionIndexes: payment_sessions indexes created")
	return nil
}

func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("orders").Indexes()

	orderNumberIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "orderNumber", Value: 1}},
		Options: options.Index().
			SetName("orderNumber_unique").
			SetUnique(true),
	}

	log.Println("EnsureOrderIndexes: creating orderNumber_unique index")
	_, err := indexes.CreateOne(ctx, orderNumberIndex)
	if err != nil {
		log.Println("EnsureOrderIndexes: orderNumber index error:", err)
		return err
	}
	log.Println("EnsureOrderIndexes: orderNumber_unique index created")
	return nil
}
