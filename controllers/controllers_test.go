package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-ecommerce-carts/controllers"
	"go-ecommerce-carts/models"
	"go-ecommerce-carts/routes"
	"go-ecommerce-carts/services"
	"go-ecommerce-carts/store"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	router   *mux.Router
	products *store.MemoryProductStore
}

func newFixture(t *testing.T, checks ...store.Pinger) *fixture {
	t.Helper()

	log := logrus.New()
	log.Out = io.Discard

	products := store.NewMemoryProductStore()
	svc := services.NewCartService(store.NewMemoryCartStore(), products, log)

	router := mux.NewRouter()
	routes.RegisterRoutes(router, log,
		controllers.NewProductController(products, log, time.Second),
		controllers.NewCartController(svc, log, time.Second),
		controllers.NewHealthController(checks...),
	)
	return &fixture{router: router, products: products}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) product(t *testing.T) models.Product {
	t.Helper()
	p, err := f.products.Create(t.Context(), models.Product{
		Title:  gofakeit.ProductName(),
		Price:  gofakeit.Price(1, 100),
		Status: true,
	})
	require.NoError(t, err)
	return *p
}

func (f *fixture) cart(t *testing.T) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/carts", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var cart models.PopulatedCart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	return cart.ID.Hex()
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[map[string]string](t, rec)["error"]
}

func TestCreateAndGetCart(t *testing.T) {
	f := newFixture(t)
	cid := f.cart(t)

	rec := f.do(t, http.MethodGet, "/api/carts/"+cid, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	body := decode[map[string]any](t, rec)
	assert.Equal(t, cid, body["id"])
	assert.Equal(t, []any{}, body["products"])

	rec = f.do(t, http.MethodGet, "/api/carts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.PopulatedCart](t, rec), 1)
}

func TestCartNotFound(t *testing.T) {
	f := newFixture(t)

	for _, cid := range []string{primitive.NewObjectID().Hex(), "not-an-id"} {
		rec := f.do(t, http.MethodGet, "/api/carts/"+cid, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, cid)
		assert.Equal(t, "cart not found", errorMessage(t, rec))
	}
}

func TestAddToCart(t *testing.T) {
	f := newFixture(t)
	p := f.product(t)
	cid := f.cart(t)

	tests := []struct {
		name       string
		cid        string
		pid        string
		body       string
		wantStatus int
		wantQty    int
	}{
		{name: "no body adds one", cid: cid, pid: p.ID.Hex(), wantStatus: http.StatusOK, wantQty: 1},
		{name: "explicit quantity", cid: cid, pid: p.ID.Hex(), body: `{"quantity":3}`, wantStatus: http.StatusOK, wantQty: 4},
		{name: "string quantity", cid: cid, pid: p.ID.Hex(), body: `{"quantity":"2"}`, wantStatus: http.StatusOK, wantQty: 6},
		{name: "non-numeric counts as one", cid: cid, pid: p.ID.Hex(), body: `{"quantity":"abc"}`, wantStatus: http.StatusOK, wantQty: 7},
		{name: "negative quantity", cid: cid, pid: p.ID.Hex(), body: `{"quantity":-2}`, wantStatus: http.StatusBadRequest},
		{name: "malformed json", cid: cid, pid: p.ID.Hex(), body: `{"quantity":`, wantStatus: http.StatusBadRequest},
		{name: "malformed product id", cid: cid, pid: "xyz", wantStatus: http.StatusBadRequest},
		{name: "unknown product", cid: cid, pid: primitive.NewObjectID().Hex(), wantStatus: http.StatusNotFound},
		{name: "unknown cart", cid: primitive.NewObjectID().Hex(), pid: p.ID.Hex(), wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/carts/"+tt.cid+"/products/"+tt.pid, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}

			cart := decode[models.PopulatedCart](t, rec)
			require.Len(t, cart.Products, 1)
			require.NotNil(t, cart.Products[0].Product)
			assert.Equal(t, p.ID, cart.Products[0].Product.ID)
			assert.Equal(t, tt.wantQty, cart.Products[0].Quantity)
		})
	}
}

func TestReplaceCart(t *testing.T) {
	f := newFixture(t)
	p1, p2 := f.product(t), f.product(t)
	cid := f.cart(t)

	t.Run("not an array", func(t *testing.T) {
		for _, body := range []string{`{}`, `{"products":{"product":"x"}}`, `{"products":null}`, ``} {
			rec := f.do(t, http.MethodPut, "/api/carts/"+cid, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
			assert.Equal(t, "products must be an array", errorMessage(t, rec))
		}
	})

	t.Run("unknown product leaves cart untouched", func(t *testing.T) {
		body := `{"products":[{"product":"` + p1.ID.Hex() + `","quantity":1},{"product":"` + primitive.NewObjectID().Hex() + `","quantity":1}]}`
		rec := f.do(t, http.MethodPut, "/api/carts/"+cid, body)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = f.do(t, http.MethodGet, "/api/carts/"+cid, "")
		assert.Empty(t, decode[models.PopulatedCart](t, rec).Products)
	})

	t.Run("invalid quantity", func(t *testing.T) {
		body := `{"products":[{"product":"` + p1.ID.Hex() + `","quantity":-1}]}`
		rec := f.do(t, http.MethodPut, "/api/carts/"+cid, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("replaces", func(t *testing.T) {
		body := `{"products":[{"product":"` + p2.ID.Hex() + `","quantity":2},{"product":"` + p1.ID.Hex() + `"}]}`
		rec := f.do(t, http.MethodPut, "/api/carts/"+cid, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		cart := decode[models.PopulatedCart](t, rec)
		require.Len(t, cart.Products, 2)
		assert.Equal(t, p2.ID, cart.Products[0].Product.ID)
		assert.Equal(t, 2, cart.Products[0].Quantity)
		assert.Equal(t, p1.ID, cart.Products[1].Product.ID)
		assert.Equal(t, 1, cart.Products[1].Quantity)
	})
}

func TestUpdateQuantity(t *testing.T) {
	f := newFixture(t)
	p := f.product(t)
	cid := f.cart(t)
	path := "/api/carts/" + cid + "/products/" + p.ID.Hex()

	rec := f.do(t, http.MethodPut, path, `{"quantity":2}`)
	assert.Equal(t, http.StatusNotFound, rec.Code, "product not in cart yet")

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, path, "").Code)

	rec = f.do(t, http.MethodPut, path, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "quantity is required", errorMessage(t, rec))

	rec = f.do(t, http.MethodPut, path, `{"quantity":"many"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, path, `{"quantity":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decode[models.PopulatedCart](t, rec).Products[0].Quantity)
}

func TestRemoveAndClear(t *testing.T) {
	f := newFixture(t)
	p := f.product(t)
	cid := f.cart(t)
	path := "/api/carts/" + cid + "/products/" + p.ID.Hex()

	rec := f.do(t, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product not in cart", errorMessage(t, rec))

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, path, "").Code)
	rec = f.do(t, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[models.PopulatedCart](t, rec).Products)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, path, "").Code)
	rec = f.do(t, http.MethodDelete, "/api/carts/"+cid, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[models.PopulatedCart](t, rec).Products)

	rec = f.do(t, http.MethodDelete, "/api/carts/"+primitive.NewObjectID().Hex(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeletedProductIsNull(t *testing.T) {
	f := newFixture(t)
	p := f.product(t)
	cid := f.cart(t)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/carts/"+cid+"/products/"+p.ID.Hex(), "").Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, "/api/products/"+p.ID.Hex(), "").Code)

	rec := f.do(t, http.MethodGet, "/api/carts/"+cid, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Products []map[string]any `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Products, 1)
	assert.Nil(t, body.Products[0]["product"])
	assert.EqualValues(t, 1, body.Products[0]["quantity"])
}

func TestProductCRUD(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/products", `{"description":"no title"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/products", `{"title":"Lamp","price":12.5,"category":"Hogar","status":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[models.Product](t, rec)
	assert.False(t, created.ID.IsZero())

	path := "/api/products/" + created.ID.Hex()
	rec = f.do(t, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lamp", decode[models.Product](t, rec).Title)

	rec = f.do(t, http.MethodPut, path, `{"price":20}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[models.Product](t, rec)
	assert.Equal(t, 20.0, updated.Price)
	assert.Equal(t, "Lamp", updated.Title)

	rec = f.do(t, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "deleted", decode[map[string]string](t, rec)["status"])

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rec = f.do(t, method, path, `{}`)
		assert.Equal(t, http.StatusNotFound, rec.Code, method)
		assert.Equal(t, "Product not found", errorMessage(t, rec))
	}

	rec = f.do(t, http.MethodGet, "/api/products/bogus", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetProductsPagination(t *testing.T) {
	f := newFixture(t)
	for range 3 {
		f.product(t)
	}

	rec := f.do(t, http.MethodGet, "/api/products?limit=2&sort=asc", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var first struct {
		Status      string           `json:"status"`
		Payload     []models.Product `json:"payload"`
		TotalPages  int              `json:"totalPages"`
		Page        int              `json:"page"`
		PrevPage    *int             `json:"prevPage"`
		NextPage    *int             `json:"nextPage"`
		HasPrevPage bool             `json:"hasPrevPage"`
		HasNextPage bool             `json:"hasNextPage"`
		PrevLink    *string          `json:"prevLink"`
		NextLink    *string          `json:"nextLink"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, "success", first.Status)
	assert.Len(t, first.Payload, 2)
	assert.Equal(t, 2, first.TotalPages)
	assert.Equal(t, 1, first.Page)
	assert.Nil(t, first.PrevPage)
	assert.Nil(t, first.PrevLink)
	assert.False(t, first.HasPrevPage)
	require.NotNil(t, first.NextPage)
	assert.Equal(t, 2, *first.NextPage)
	require.NotNil(t, first.NextLink)
	assert.Equal(t, "http://example.com/api/products?limit=2&page=2&sort=asc", *first.NextLink)

	rec = f.do(t, http.MethodGet, "/api/products?limit=2&page=2&query=availability:true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[map[string]any](t, rec)
	assert.Len(t, second["payload"], 1)
	assert.Nil(t, second["nextLink"])
	assert.Equal(t, "http://example.com/api/products?limit=2&page=1&query=availability%3Atrue", second["prevLink"])

	rec = f.do(t, http.MethodGet, "/api/products?query=category:Nada", "")
	require.Equal(t, http.StatusOK, rec.Code)
	empty := decode[map[string]any](t, rec)
	assert.Equal(t, []any{}, empty["payload"])
	assert.EqualValues(t, 1, empty["totalPages"])
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := newFixture(t, ok).do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])

	rec = newFixture(t, ok, down).do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "unavailable", body["status"])
	assert.Equal(t, "connection refused", body["error"])
}
