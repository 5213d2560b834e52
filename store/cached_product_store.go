package store

import (
	"context"
	"encoding/json"
	"time"

	"go-ecommerce-carts/models"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultProductCacheTTL = 10 * time.Minute

// CachedProductStore fronts a ProductStore with a Redis read-through cache
// of single products. Only hits are cached; a product created after a miss
// is seen on the next lookup. Update and Delete evict the entry.
type CachedProductStore struct {
	ProductStore
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

func NewCachedProductStore(next ProductStore, client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *CachedProductStore {
	if ttl <= 0 {
		ttl = DefaultProductCacheTTL
	}
	return &CachedProductStore{
		ProductStore: next,
		client:       client,
		ttl:          ttl,
		log:          log,
	}
}

func productKey(id primitive.ObjectID) string {
	return "product:" + id.Hex()
}

func (s *CachedProductStore) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	_, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *CachedProductStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	data, err := s.client.Get(ctx, productKey(id)).Bytes()
	if err == nil {
		var product models.Product
		if json.Unmarshal(data, &product) == nil {
			return &product, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.WithError(err).Warn("product cache read failed")
	}

	product, err := s.ProductStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.set(ctx, *product)
	return product, nil
}

func (s *CachedProductStore) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	found := make(map[primitive.ObjectID]models.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}

	var misses []primitive.ObjectID
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		s.log.WithError(err).Warn("product cache read failed")
		misses = ids
	} else {
		for i, v := range values {
			str, ok := v.(string)
			var product models.Product
			if !ok || json.Unmarshal([]byte(str), &product) != nil {
				misses = append(misses, ids[i])
				continue
			}
			found[ids[i]] = product
		}
	}
	if len(misses) == 0 {
		return found, nil
	}

	loaded, err := s.ProductStore.GetMany(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, product := range loaded {
		found[id] = product
		s.set(ctx, product)
	}
	return found, nil
}

func (s *CachedProductStore) Update(ctx context.Context, id primitive.ObjectID, u models.ProductUpdate) (*models.Product, error) {
	product, err := s.ProductStore.Update(ctx, id, u)
	if err != nil {
		return nil, err
	}
	s.evict(ctx, id)
	return product, nil
}

func (s *CachedProductStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.ProductStore.Delete(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, id)
	return nil
}

func (s *CachedProductStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis ping")
	}
	if p, ok := s.ProductStore.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *CachedProductStore) set(ctx context.Context, product models.Product) {
	data, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, productKey(product.ID), data, s.ttl).Err(); err != nil {
		s.log.WithError(err).Warn("product cache write failed")
	}
}

func (s *CachedProductStore) evict(ctx context.Context, id primitive.ObjectID) {
	if err := s.client.Del(ctx, productKey(id)).Err(); err != nil {
		s.log.WithError(err).WithField("product_id", id.Hex()).Warn("product cache evict failed")
	}
}
