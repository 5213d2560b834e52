package store

import (
	"context"
	"time"

	"go-ecommerce-carts/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCartStore keeps carts in the "carts" collection
type MongoCartStore struct {
	Collection *mongo.Collection
}

// NewMongoCartStore creates a cart store on db
func NewMongoCartStore(db *mongo.Database) *MongoCartStore {
	return &MongoCartStore{
		Collection: db.Collection("carts"),
	}
}

func (s *MongoCartStore) Create(ctx context.Context) (*models.Cart, error) {
	now := now()
	cart := models.Cart{
		ID:        primitive.NewObjectID(),
		Products:  []models.LineItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.Collection.InsertOne(ctx, cart); err != nil {
		return nil, errors.Wrap(err, "insert cart")
	}
	return &cart, nil
}

func (s *MongoCartStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	err := s.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find cart %s", id.Hex())
	}
	normalize(&cart)
	return &cart, nil
}

func (s *MongoCartStore) GetAll(ctx context.Context) ([]models.Cart, error) {
	cursor, err := s.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "find carts")
	}
	defer cursor.Close(ctx)

	carts := []models.Cart{}
	for cursor.Next(ctx) {
		var cart models.Cart
		if err := cursor.Decode(&cart); err != nil {
			return nil, errors.Wrap(err, "decode cart")
		}
		normalize(&cart)
		carts = append(carts, cart)
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(err, "read carts")
	}
	return carts, nil
}

func (s *MongoCartStore) ReplaceLineItems(ctx context.Context, id primitive.ObjectID, items []models.LineItem) (*models.Cart, error) {
	if items == nil {
		items = []models.LineItem{}
	}
	update := bson.M{
		"$set": bson.M{
			"products":  items,
			"updatedAt": now(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var cart models.Cart
	err := s.Collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "update cart %s", id.Hex())
	}
	normalize(&cart)
	return &cart, nil
}

func (s *MongoCartStore) Ping(ctx context.Context) error {
	return s.Collection.Database().Client().Ping(ctx, nil)
}

// normalize makes a decoded cart with no products carry an empty list.
func normalize(cart *models.Cart) {
	if cart.Products == nil {
		cart.Products = []models.LineItem{}
	}
}

// now is truncated to the millisecond precision Mongo stores.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
