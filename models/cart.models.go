package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LineItem is one product reference in a cart
type LineItem struct {
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// Cart is the persisted cart document
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Products  []LineItem         `bson:"products" json:"products"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IndexOf returns the position of the line item for productID, or -1.
func (c *Cart) IndexOf(productID primitive.ObjectID) int {
	for i, item := range c.Products {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// ProductIDs returns the distinct product ids referenced by the cart, in order.
func (c *Cart) ProductIDs() []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(c.Products))
	ids := make([]primitive.ObjectID, 0, len(c.Products))
	for _, item := range c.Products {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

// PopulatedLineItem is a line item with its product resolved from the catalog.
// Product is nil when the referenced product no longer exists.
type PopulatedLineItem struct {
	Product  *Product `json:"product"`
	Quantity int      `json:"quantity"`
}

// PopulatedCart is the read view of a cart returned to callers
type PopulatedCart struct {
	ID        primitive.ObjectID  `json:"id"`
	Products  []PopulatedLineItem `json:"products"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// Populate joins the cart's line items against products.
func (c *Cart) Populate(products map[primitive.ObjectID]Product) *PopulatedCart {
	items := make([]PopulatedLineItem, 0, len(c.Products))
	for _, item := range c.Products {
		var product *Product
		if p, ok := products[item.ProductID]; ok {
			product = &p
		}
		items = append(items, PopulatedLineItem{Product: product, Quantity: item.Quantity})
	}
	return &PopulatedCart{
		ID:        c.ID,
		Products:  items,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
