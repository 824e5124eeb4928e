package payments

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

// Catalog is the engine's view of the product collection: lookups for
// re-validation and the atomic stock decrement. Nothing else in the engine
// touches products.
type Catalog struct {
	db *mongo.Database
}

func NewCatalog(db *mongo.Database) *Catalog {
	return &Catalog{db: db}
}

// GetActive loads a product that is neither deleted nor deactivated.
func (c *Catalog) GetActive(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := c.db.Collection("products").FindOne(ctx, bson.M{
		"_id":       id,
		"isDeleted": bson.M{"$ne": true},
	}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, productNotFoundError{ProductID: id.Hex()}
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// DecrementStock applies an atomic guarded decrement. The stock guard in the
// filter makes the read and the write one storage operation; a concurrent
// depletion shows up as MatchedCount == 0.
func (c *Catalog) DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error {
	filter := bson.M{
		"_id":       id,
		"isDeleted": bson.M{"$ne": true},
		"stock":     bson.M{"$gte": quantity},
	}
	update := bson.M{"$inc": bson.M{"stock": -quantity}}

	res, err := c.db.Collection("products").UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("stock decrement rejected for product %s", id.Hex())
	}
	return nil
}

func isProductOnSale(price float64, saleEnabled bool, salePrice float64) bool {
	return saleEnabled && salePrice > 0 && salePrice < price
}

// effectiveProductPrice is the price a customer actually pays right now,
// sale-aware. Session prices locked at checkout are validated against it.
func effectiveProductPrice(price float64, saleEnabled bool, salePrice float64) float64 {
	if isProductOnSale(price, saleEnabled, salePrice) {
		return salePrice
	}
	return price
}
