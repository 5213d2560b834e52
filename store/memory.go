package store

import (
	"context"
	"sort"
	"sync"

	"go-ecommerce-carts/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryCartStore keeps carts in process memory.
type MemoryCartStore struct {
	mu    sync.RWMutex
	carts map[primitive.ObjectID]*models.Cart
	order []primitive.ObjectID
}

// NewMemoryCartStore creates an empty in-memory cart store
func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{
		carts: make(map[primitive.ObjectID]*models.Cart),
	}
}

func (s *MemoryCartStore) Create(ctx context.Context) (*models.Cart, error) {
	now := now()
	cart := &models.Cart{
		ID:        primitive.NewObjectID(),
		Products:  []models.LineItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[cart.ID] = cart
	s.order = append(s.order, cart.ID)
	return copyCart(cart), nil
}

func (s *MemoryCartStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, ok := s.carts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyCart(cart), nil
}

func (s *MemoryCartStore) GetAll(ctx context.Context) ([]models.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	carts := make([]models.Cart, 0, len(s.order))
	for _, id := range s.order {
		carts = append(carts, *copyCart(s.carts[id]))
	}
	return carts, nil
}

func (s *MemoryCartStore) ReplaceLineItems(ctx context.Context, id primitive.ObjectID, items []models.LineItem) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cart.Products = append([]models.LineItem{}, items...)
	cart.UpdatedAt = now()
	return copyCart(cart), nil
}

func copyCart(c *models.Cart) *models.Cart {
	out := *c
	out.Products = append([]models.LineItem{}, c.Products...)
	return &out
}

// MemoryProductStore keeps the catalog in process memory.
type MemoryProductStore struct {
	mu       sync.RWMutex
	products map[primitive.ObjectID]models.Product
	order    []primitive.ObjectID
}

// NewMemoryProductStore creates an in-memory catalog seeded with products.
// Seeded products without an id get a fresh one.
func NewMemoryProductStore(seed ...models.Product) *MemoryProductStore {
	s := &MemoryProductStore{
		products: make(map[primitive.ObjectID]models.Product),
	}
	for _, p := range seed {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		s.products[p.ID] = p
		s.order = append(s.order, p.ID)
	}
	return s
}

func (s *MemoryProductStore) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.products[id]
	return ok, nil
}

func (s *MemoryProductStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryProductStore) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make(map[primitive.ObjectID]models.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			found[id] = p
		}
	}
	return found, nil
}

func (s *MemoryProductStore) List(ctx context.Context, q models.ProductQuery) (*models.ProductPage, error) {
	s.mu.RLock()
	matched := make([]models.Product, 0, len(s.order))
	for _, id := range s.order {
		p := s.products[id]
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if q.Status != nil && p.Status != *q.Status {
			continue
		}
		matched = append(matched, p)
	}
	s.mu.RUnlock()

	switch q.Sort {
	case "asc":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price < matched[j].Price })
	case "desc":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price > matched[j].Price })
	}

	start := (q.Page - 1) * q.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	docs := append([]models.Product{}, matched[start:end]...)
	return models.NewProductPage(docs, int64(len(matched)), q), nil
}

func (s *MemoryProductStore) Create(ctx context.Context, p models.Product) (*models.Product, error) {
	now := now()
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Thumbnails == nil {
		p.Thumbnails = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	s.order = append(s.order, p.ID)
	return &p, nil
}

func (s *MemoryProductStore) Update(ctx context.Context, id primitive.ObjectID, u models.ProductUpdate) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.Apply(&p)
	p.UpdatedAt = now()
	s.products[id] = p
	return &p, nil
}

func (s *MemoryProductStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
