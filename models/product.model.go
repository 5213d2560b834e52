package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product represents a catalog entry
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Code        string             `bson:"code" json:"code"`
	Price       float64            `bson:"price" json:"price"`
	Status      bool               `bson:"status" json:"status"`
	Stock       int                `bson:"stock" json:"stock"`
	Category    string             `bson:"category" json:"category"`
	Thumbnails  []string           `bson:"thumbnails" json:"thumbnails"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProductUpdate carries the fields of a partial product update. Nil fields are left untouched.
type ProductUpdate struct {
	Title       *string   `bson:"title,omitempty" json:"title"`
	Description *string   `bson:"description,omitempty" json:"description"`
	Code        *string   `bson:"code,omitempty" json:"code"`
	Price       *float64  `bson:"price,omitempty" json:"price"`
	Status      *bool     `bson:"status,omitempty" json:"status"`
	Stock       *int      `bson:"stock,omitempty" json:"stock"`
	Category    *string   `bson:"category,omitempty" json:"category"`
	Thumbnails  *[]string `bson:"thumbnails,omitempty" json:"thumbnails"`
}

// Apply copies the set fields of u onto p.
func (u ProductUpdate) Apply(p *Product) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Code != nil {
		p.Code = *u.Code
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Thumbnails != nil {
		p.Thumbnails = *u.Thumbnails
	}
}

// ProductQuery selects a page of the catalog
type ProductQuery struct {
	Limit    int
	Page     int
	Sort     string // "asc" or "desc" by price, empty for natural order
	Category string
	Status   *bool
}

// ProductPage is one page of a product listing
type ProductPage struct {
	Docs        []Product
	TotalDocs   int64
	TotalPages  int
	Page        int
	PrevPage    *int
	NextPage    *int
	HasPrevPage bool
	HasNextPage bool
}

// NewProductPage computes the paging fields for docs at q.Page out of total.
func NewProductPage(docs []Product, total int64, q ProductQuery) *ProductPage {
	if docs == nil {
		docs = []Product{}
	}
	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	if totalPages < 1 {
		totalPages = 1
	}
	page := &ProductPage{
		Docs:        docs,
		TotalDocs:   total,
		TotalPages:  totalPages,
		Page:        q.Page,
		HasPrevPage: q.Page > 1,
		HasNextPage: q.Page < totalPages,
	}
	if page.HasPrevPage {
		prev := q.Page - 1
		page.PrevPage = &prev
	}
	if page.HasNextPage {
		next := q.Page + 1
		page.NextPage = &next
	}
	return page
}
