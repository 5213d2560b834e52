package services

import (
	"context"

	"go-ecommerce-carts/models"
	"go-ecommerce-carts/store"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CartService validates cart mutations against the product catalog and
// commits them through the cart store. Every mutation reads the cart,
// computes the new line-item list and writes it back whole; concurrent
// writers to one cart can lose updates.
type CartService struct {
	carts    store.CartStore
	products store.ProductCatalog
	log      logrus.FieldLogger
	tracer   trace.Tracer
}

// NewCartService creates a CartService
func NewCartService(carts store.CartStore, products store.ProductCatalog, log logrus.FieldLogger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		log:      log,
		tracer:   otel.Tracer("cartservice"),
	}
}

// CreateCart creates an empty cart.
func (s *CartService) CreateCart(ctx context.Context) (_ *models.PopulatedCart, err error) {
	ctx, span := s.tracer.Start(ctx, "CreateCart")
	defer func() { endSpan(span, err) }()

	cart, err := s.carts.Create(ctx)
	if err != nil {
		return nil, err
	}
	s.log.WithField("cart_id", cart.ID.Hex()).Info("cart created")
	return cart.Populate(nil), nil
}

// GetCarts returns every cart, populated.
func (s *CartService) GetCarts(ctx context.Context) (_ []models.PopulatedCart, err error) {
	ctx, span := s.tracer.Start(ctx, "GetCarts")
	defer func() { endSpan(span, err) }()

	carts, err := s.carts.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var ids []primitive.ObjectID
	for i := range carts {
		ids = append(ids, carts[i].ProductIDs()...)
	}
	products, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.PopulatedCart, 0, len(carts))
	for i := range carts {
		out = append(out, *carts[i].Populate(products))
	}
	return out, nil
}

// GetCart returns one cart, populated.
func (s *CartService) GetCart(ctx context.Context, cartID string) (_ *models.PopulatedCart, err error) {
	ctx, span := s.tracer.Start(ctx, "GetCart", trace.WithAttributes(attribute.String("cart.id", cartID)))
	defer func() { endSpan(span, err) }()

	cid, err := parseCartID(cartID)
	if err != nil {
		return nil, err
	}
	cart, err := s.loadCart(ctx, cid)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, cart)
}

// AddProduct adds qty of productID to the cart, summing with any existing
// line for the product. An absent, non-numeric or zero qty counts as 1.
func (s *CartService) AddProduct(ctx context.Context, cartID, productID string, qty models.Quantity) (_ *models.PopulatedCart, err error) {
	ctx, span := s.tracer.Start(ctx, "AddProduct", trace.WithAttributes(
		attribute.String("cart.id", cartID),
		attribute.String("product.id", productID),
	))
	defer func() { endSpan(span, err) }()

	cid, err := parseCartID(cartID)
	if err != nil {
		return nil, err
	}
	pid, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}
	n, err := qty.OrDefault()
	if err != nil {
		return nil, newError(ErrInvalidInput, "%s", err)
	}
	if err := s.requireProduct(ctx, pid, "product not found"); err != nil {
		return nil, err
	}

	cart, err := s.loadCart(ctx, cid)
	if err != nil {
		return nil, err
	}
	if i := cart.IndexOf(pid); i >= 0 {
		cart.Products[i].Quantity += n
	} else {
		cart.Products = append(cart.Products, models.LineItem{ProductID: pid, Quantity: n})
	}

	s.log.WithFields(logrus.Fields{
		"cart_id":    cid.Hex(),
		"product_id": pid.Hex(),
		"quantity":   n,
	}).Debug("adding product to cart")
	return s.commit(ctx, cid, cart.Products)
}

// RemoveProduct drops the line for productID. It fails with
// ErrProductNotFound when the cart holds no such line.
func (s *CartService) RemoveProduct(ctx context.Context, cartID, productID string) (_ *models.PopulatedCart, err error) {
	ctx, span := s.tracer.Start(ctx, "RemoveProduct", trace.WithAttributes(
		attribute.String("cart.id", cartID),
		attribute.String("product.id", productID),
	))
	defer func() { endSpan(span, err) }()

	cid, err := parseCartID(cartID)
	if err != nil {
		return nil, err
	}
	pid, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.loadCart(ctx, cid)
	if err != nil {
		return nil, err
	}
	i := cart.IndexOf(pid)
	if i < 0 {
		return nil, newError(ErrProductNotFound, "product not in cart")
	}
	items := append(cart.Products[:i:i], cart.Products[i+1:]...)
	return s.commit(ctx, cid, items)
}

// ReplaceProducts swaps the cart's line items for items. Every entry is
// checked before anything is written. Repeated product ids are merged into
// one line, summing quantities, in order of first appearance.
func (s *CartService) ReplaceProducts(ctx context.Context, cartID string, items []models.LineItemInput) (_ *models.PopulatedCart, err error) {
	ctx, span := s.tracer.Start(ctx, "ReplaceProducts", trace.WithAttributes(
		attribute.String("cart.id", cartID),
		attribute.Int("items", len(items)),
	))
	defer func() { endSpan(span, err) }()

	cid, err := parseCartID(cartID)
	if err != nil {
		return nil, err
	}

	lines := make([]models.LineItem, 0, len(items))
	index := make(map[primitive.ObjectID]int, len(items))
	for _, item := range items {
		pid, err := primitive.ObjectIDFromHex(item.Product)
		if err != nil {
			return nil, newError(ErrInvalidInput, "invalid product id: %s", item.Product)
		}
		n, err := item.Quantity.OrDefault()
		if err != nil {
			return nil, newError(ErrInvalidInput, "%s: %s", err, item.Product)
		}
		if err := s.requireProduct(ctx, pid, "product not found: "+item.Product); err != nil {
			return nil, err
		}
		if i, ok := index[pid]; ok {
			lines[i].Quantity += n
			continue
		}
		index[pid] = len(lines)
		lines = append(lines, models.LineItem{ProductID: pid, Quantity: n})
	}

	if _, err := s.loadCart(ctx, cid); err != nil {
		return nil, err
	}
	return s.commit(ctx, cid, lines)
}

// UpdateQuantity sets the quantity of the line for productID. qty must be
// present, an integer and at least 1. A cart without a line for the product
// gives ErrNotFound, the same outcome as a missing cart.
func (s *CartService) UpdateQuantity(ctx context.Context, cartID, productID string, qty models.Quantity) (_ *models.PopulatedCart, err error) {
	ctx, span := s.tracer.Start(ctx, "UpdateQuantity", trace.WithAttributes(
		attribute.String("cart.id", cartID),
		attribute.String("product.id", productID),
	))
	defer func() { endSpan(span, err) }()

	cid, err := parseCartID(cartID)
	if err != nil {
		return nil, err
	}
	pid, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}
	n, err := qty.Required()
	if err != nil {
		return nil, newError(ErrInvalidInput, "%s", err)
	}

	cart, err := s.loadCart(ctx, cid)
	if err != nil {
		return nil, err
	}
	i := cart.IndexOf(pid)
	if i < 0 {
		return nil, newError(ErrNotFound, "cart or product not found")
	}
	cart.Products[i].Quantity = n
	return s.commit(ctx, cid, cart.Products)
}

// ClearCart empties the cart.
func (s *CartService) ClearCart(ctx context.Context, cartID string) (_ *models.PopulatedCart, err error) {
	ctx, span := s.tracer.Start(ctx, "ClearCart", trace.WithAttributes(attribute.String("cart.id", cartID)))
	defer func() { endSpan(span, err) }()

	cid, err := parseCartID(cartID)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadCart(ctx, cid); err != nil {
		return nil, err
	}
	return s.commit(ctx, cid, []models.LineItem{})
}

func (s *CartService) loadCart(ctx context.Context, id primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.carts.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return cart, err
}

func (s *CartService) requireProduct(ctx context.Context, id primitive.ObjectID, msg string) error {
	ok, err := s.products.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return newError(ErrProductNotFound, "%s", msg)
	}
	return nil
}

func (s *CartService) commit(ctx context.Context, id primitive.ObjectID, items []models.LineItem) (*models.PopulatedCart, error) {
	cart, err := s.carts.ReplaceLineItems(ctx, id, items)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, cart)
}

func (s *CartService) populate(ctx context.Context, cart *models.Cart) (*models.PopulatedCart, error) {
	products, err := s.products.GetMany(ctx, cart.ProductIDs())
	if err != nil {
		return nil, err
	}
	return cart.Populate(products), nil
}

func parseCartID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

func parseProductID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, newError(ErrInvalidInput, "invalid product id")
	}
	return oid, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
