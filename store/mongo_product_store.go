package store

import (
	"context"

	"go-ecommerce-carts/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoProductStore keeps the catalog in the "products" collection
type MongoProductStore struct {
	Collection *mongo.Collection
}

// NewMongoProductStore creates a product store on db
func NewMongoProductStore(db *mongo.Database) *MongoProductStore {
	return &MongoProductStore{
		Collection: db.Collection("products"),
	}
}

func (s *MongoProductStore) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := s.Collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrapf(err, "count product %s", id.Hex())
	}
	return count > 0, nil
}

func (s *MongoProductStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := s.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find product %s", id.Hex())
	}
	return &product, nil
}

func (s *MongoProductStore) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	found := make(map[primitive.ObjectID]models.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	cursor, err := s.Collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, errors.Wrap(err, "find products")
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var product models.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, errors.Wrap(err, "decode product")
		}
		found[product.ID] = product
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(err, "read products")
	}
	return found, nil
}

func (s *MongoProductStore) List(ctx context.Context, q models.ProductQuery) (*models.ProductPage, error) {
	filter := bson.M{}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Status != nil {
		filter["status"] = *q.Status
	}

	total, err := s.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "count products")
	}

	opts := options.Find().
		SetSkip(int64((q.Page - 1) * q.Limit)).
		SetLimit(int64(q.Limit))
	switch q.Sort {
	case "asc":
		opts.SetSort(bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}})
	case "desc":
		opts.SetSort(bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}})
	}

	cursor, err := s.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find products")
	}
	var docs []models.Product
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "read products")
	}
	return models.NewProductPage(docs, total, q), nil
}

func (s *MongoProductStore) Create(ctx context.Context, p models.Product) (*models.Product, error) {
	now := now()
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Thumbnails == nil {
		p.Thumbnails = []string{}
	}
	if _, err := s.Collection.InsertOne(ctx, p); err != nil {
		return nil, errors.Wrap(err, "insert product")
	}
	return &p, nil
}

func (s *MongoProductStore) Update(ctx context.Context, id primitive.ObjectID, u models.ProductUpdate) (*models.Product, error) {
	set, err := toSetDocument(u)
	if err != nil {
		return nil, err
	}
	set["updatedAt"] = now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product models.Product
	err = s.Collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "update product %s", id.Hex())
	}
	return &product, nil
}

func (s *MongoProductStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrapf(err, "delete product %s", id.Hex())
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoProductStore) Ping(ctx context.Context) error {
	return s.Collection.Database().Client().Ping(ctx, nil)
}

// toSetDocument turns the non-nil fields of u into a $set document.
func toSetDocument(u models.ProductUpdate) (bson.M, error) {
	raw, err := bson.Marshal(u)
	if err != nil {
		return nil, errors.Wrap(err, "marshal product update")
	}
	set := bson.M{}
	if err := bson.Unmarshal(raw, &set); err != nil {
		return nil, errors.Wrap(err, "unmarshal product update")
	}
	return set, nil
}
