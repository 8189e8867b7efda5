package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/telk/go_shop/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoCartRepository persists whole cart aggregates as single documents.
// The aggregate is the consistency boundary, so every write replaces the
// document the service loaded and mutated.
type mongoCartRepository struct {
	collection *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{
		collection: db.Collection("carts"),
	}
}

func (m *mongoCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	filter := bson.M{"_id": cart.ID}
	opts := options.Replace().SetUpsert(true)

	_, err := m.collection.ReplaceOne(ctx, filter, cart, opts)
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (m *mongoCartRepository) FindByID(ctx context.Context, id domain.CartID) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"_id": id}
	err := m.collection.FindOne(ctx, filter).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

func (m *mongoCartRepository) ExistsByID(ctx context.Context, id domain.CartID) (bool, error) {
	count, err := m.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check cart existence: %w", err)
	}
	return count > 0, nil
}

func (m *mongoCartRepository) DeleteByID(ctx context.Context, id domain.CartID) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *mongoCartRepository) FindActiveByCustomerID(ctx context.Context, customerID domain.CustomerID) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"customer_id": customerID, "converted": false}
	err := m.collection.FindOne(ctx, filter).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get active cart: %w", err)
	}

	return &cart, nil
}

func (m *mongoCartRepository) FindActiveByProductID(ctx context.Context, productID domain.ProductID) ([]domain.Cart, error) {
	filter := bson.M{"items.product_id": productID, "converted": false}
	cursor, err := m.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find carts by product: %w", err)
	}
	defer cursor.Close(ctx)

	var carts []domain.Cart
	if err := cursor.All(ctx, &carts); err != nil {
		return nil, fmt.Errorf("failed to decode carts: %w", err)
	}
	return carts, nil
}

func (m *mongoCartRepository) FindExpiredCarts(ctx context.Context, threshold time.Time) ([]domain.Cart, error) {
	// Converted carts expire on the same schedule; conversion freezes a cart
	// but does not keep it around forever.
	filter := bson.M{"updated_at": bson.M{"$lt": threshold}}
	cursor, err := m.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired carts: %w", err)
	}
	defer cursor.Close(ctx)

	var carts []domain.Cart
	if err := cursor.All(ctx, &carts); err != nil {
		return nil, fmt.Errorf("failed to decode carts: %w", err)
	}
	return carts, nil
}

func (m *mongoCartRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "converted", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "items.product_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "updated_at", Value: 1}},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
