package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go-ecommerce-carts/models"
	"go-ecommerce-carts/store"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultPageLimit = 10
	defaultPage      = 1
)

// ProductController handles product-related requests
type ProductController struct {
	Store   store.ProductStore
	Log     logrus.FieldLogger
	Timeout time.Duration
}

// NewProductController creates a new ProductController
func NewProductController(products store.ProductStore, log logrus.FieldLogger, timeout time.Duration) *ProductController {
	return &ProductController{
		Store:   products,
		Log:     log,
		Timeout: timeout,
	}
}

type productListResponse struct {
	Status      string           `json:"status"`
	Payload     []models.Product `json:"payload"`
	TotalPages  int              `json:"totalPages"`
	PrevPage    *int             `json:"prevPage"`
	NextPage    *int             `json:"nextPage"`
	Page        int              `json:"page"`
	HasPrevPage bool             `json:"hasPrevPage"`
	HasNextPage bool             `json:"hasNextPage"`
	PrevLink    *string          `json:"prevLink"`
	NextLink    *string          `json:"nextLink"`
}

// CreateProduct handles adding a new product
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if strings.TrimSpace(product.Title) == "" {
		writeMessage(w, http.StatusBadRequest, "title is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pc.Timeout)
	defer cancel()

	created, err := pc.Store.Create(ctx, product)
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetProducts retrieves one page of products.
// Query parameters: limit, page, sort (asc|desc by price) and
// query (category:<name> or availability:true|false).
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	q := models.ProductQuery{
		Limit: positiveOr(values.Get("limit"), defaultPageLimit),
		Page:  positiveOr(values.Get("page"), defaultPage),
	}
	sort := values.Get("sort")
	if sort == "asc" || sort == "desc" {
		q.Sort = sort
	}
	query := values.Get("query")
	if key, value, ok := strings.Cut(query, ":"); ok {
		switch key {
		case "category":
			q.Category = value
		case "availability":
			available := value == "true"
			q.Status = &available
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), pc.Timeout)
	defer cancel()

	page, err := pc.Store.List(ctx, q)
	if err != nil {
		pc.Log.WithError(err).Error("list products")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "error": "internal server error"})
		return
	}

	resp := productListResponse{
		Status:      "success",
		Payload:     page.Docs,
		TotalPages:  page.TotalPages,
		PrevPage:    page.PrevPage,
		NextPage:    page.NextPage,
		Page:        page.Page,
		HasPrevPage: page.HasPrevPage,
		HasNextPage: page.HasNextPage,
	}
	if page.PrevPage != nil {
		link := pageLink(r, q.Limit, *page.PrevPage, q.Sort, query)
		resp.PrevLink = &link
	}
	if page.NextPage != nil {
		link := pageLink(r, q.Limit, *page.NextPage, q.Sort, query)
		resp.NextLink = &link
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetProductByID retrieves a single product by ID
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pc.Timeout)
	defer cancel()

	product, err := pc.Store.Get(ctx, id)
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// UpdateProduct applies a partial update to a product
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var update models.ProductUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pc.Timeout)
	defer cancel()

	product, err := pc.Store.Update(ctx, id, update)
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// DeleteProduct removes a product from the catalog. Carts that reference
// it keep their line items, which then populate with a null product.
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pc.Timeout)
	defer cancel()

	if err := pc.Store.Delete(ctx, id); err != nil {
		pc.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (pc *ProductController) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Product not found")
		return
	}
	writeError(w, r, pc.Log, err)
}

// productID parses the {pid} route variable. A malformed id is reported as not found.
func productID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["pid"])
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Product not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

func positiveOr(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func pageLink(r *http.Request, limit, page int, sort, query string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("page", strconv.Itoa(page))
	if sort != "" {
		params.Set("sort", sort)
	}
	if query != "" {
		params.Set("query", query)
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: params.Encode()}
	return u.String()
}
