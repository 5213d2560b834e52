package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go-ecommerce-carts/models"
	"go-ecommerce-carts/services"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// CartController handles cart-related requests
type CartController struct {
	Service *services.CartService
	Log     logrus.FieldLogger
	Timeout time.Duration
}

// NewCartController creates a new CartController
func NewCartController(service *services.CartService, log logrus.FieldLogger, timeout time.Duration) *CartController {
	return &CartController{
		Service: service,
		Log:     log,
		Timeout: timeout,
	}
}

type quantityRequest struct {
	Quantity models.Quantity `json:"quantity"`
}

// CreateCart creates an empty cart
func (cc *CartController) CreateCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), cc.Timeout)
	defer cancel()

	cart, err := cc.Service.CreateCart(ctx)
	if err != nil {
		writeError(w, r, cc.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, cart)
}

// GetCarts lists every cart
func (cc *CartController) GetCarts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), cc.Timeout)
	defer cancel()

	carts, err := cc.Service.GetCarts(ctx)
	if err != nil {
		writeError(w, r, cc.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, carts)
}

// GetCart retrieves one cart with its products populated
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), cc.Timeout)
	defer cancel()

	cart, err := cc.Service.GetCart(ctx, mux.Vars(r)["cid"])
	if err != nil {
		writeError(w, r, cc.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// AddToCart adds a product to the cart or increases its quantity
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeMessage(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), cc.Timeout)
	defer cancel()

	params := mux.Vars(r)
	cart, err := cc.Service.AddProduct(ctx, params["cid"], params["pid"], req.Quantity)
	if err != nil {
		writeError(w, r, cc.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// RemoveFromCart removes a product from the cart
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), cc.Timeout)
	defer cancel()

	params := mux.Vars(r)
	cart, err := cc.Service.RemoveProduct(ctx, params["cid"], params["pid"])
	if err != nil {
		writeError(w, r, cc.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// ReplaceCart replaces every product in the cart
func (cc *CartController) ReplaceCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Products json.RawMessage `json:"products"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeMessage(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if !bytes.HasPrefix(bytes.TrimSpace(req.Products), []byte("[")) {
		writeMessage(w, http.StatusBadRequest, "products must be an array")
		return
	}
	var items []models.LineItemInput
	if err := json.Unmarshal(req.Products, &items); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), cc.Timeout)
	defer cancel()

	cart, err := cc.Service.ReplaceProducts(ctx, mux.Vars(r)["cid"], items)
	if err != nil {
		writeError(w, r, cc.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// UpdateQuantity sets the quantity of one product in the cart
func (cc *CartController) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeMessage(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if !req.Quantity.Present() {
		writeMessage(w, http.StatusBadRequest, models.ErrQuantityRequired.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), cc.Timeout)
	defer cancel()

	params := mux.Vars(r)
	cart, err := cc.Service.UpdateQuantity(ctx, params["cid"], params["pid"], req.Quantity)
	if err != nil {
		writeError(w, r, cc.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// ClearCart removes every product from the cart
func (cc *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), cc.Timeout)
	defer cancel()

	cart, err := cc.Service.ClearCart(ctx, mux.Vars(r)["cid"])
	if err != nil {
		writeError(w, r, cc.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}
