package store

import (
	"context"

	"go-ecommerce-carts/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when a cart or product id does not resolve.
var ErrNotFound = errors.New("not found")

// CartStore persists whole carts and their line-item lists.
type CartStore interface {
	Create(ctx context.Context) (*models.Cart, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Cart, error)
	GetAll(ctx context.Context) ([]models.Cart, error)
	// ReplaceLineItems overwrites the cart's line items in one update.
	ReplaceLineItems(ctx context.Context, id primitive.ObjectID, items []models.LineItem) (*models.Cart, error)
}

// ProductCatalog is the read side of the product store used by carts.
type ProductCatalog interface {
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	// GetMany returns the products found among ids, keyed by id. Missing ids are omitted.
	GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
}

// ProductStore is the full product catalog.
type ProductStore interface {
	ProductCatalog
	List(ctx context.Context, q models.ProductQuery) (*models.ProductPage, error)
	Create(ctx context.Context, p models.Product) (*models.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, u models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Pinger is implemented by stores backed by a remote server.
type Pinger interface {
	Ping(ctx context.Context) error
}
