package store_test

import (
	"io"
	"testing"
	"time"

	"go-ecommerce-carts/models"
	"go-ecommerce-carts/store"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type cachedProductStoreSuite struct {
	suite.Suite

	container *tcredis.RedisContainer
	client    *redis.Client
	backing   *store.MemoryProductStore
	cached    *store.CachedProductStore
}

func TestCachedProductStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	suite.Run(t, new(cachedProductStoreSuite))
}

func (suite *cachedProductStoreSuite) SetupSuite() {
	testcontainers.SkipIfProviderIsNotHealthy(suite.T())

	container, uri, err := startRedis(suite.T().Context())
	suite.Require().NoError(err)
	suite.container = container

	opts, err := redis.ParseURL(uri)
	suite.Require().NoError(err)
	suite.client = redis.NewClient(opts)
}

func (suite *cachedProductStoreSuite) TearDownSuite() {
	if suite.client != nil {
		suite.NoError(suite.client.Close())
	}
	if suite.container != nil {
		suite.NoError(testcontainers.TerminateContainer(suite.container))
	}
}

// before each test
func (suite *cachedProductStoreSuite) SetupTest() {
	suite.Require().NoError(suite.client.FlushAll(suite.T().Context()).Err())

	log := logrus.New()
	log.Out = io.Discard
	suite.backing = store.NewMemoryProductStore()
	suite.cached = store.NewCachedProductStore(suite.backing, suite.client, time.Minute, log)
}

func (suite *cachedProductStoreSuite) create() *models.Product {
	p, err := suite.backing.Create(suite.T().Context(), models.Product{
		Title: gofakeit.ProductName(),
		Price: gofakeit.Price(1, 100),
	})
	suite.Require().NoError(err)
	return p
}

func (suite *cachedProductStoreSuite) TestGetPopulatesCache() {
	t := suite.T()
	ctx := t.Context()
	p := suite.create()

	got, err := suite.cached.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Title, got.Title)

	ttl, err := suite.client.TTL(ctx, "product:"+p.ID.Hex()).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	// served from Redis once the backing entry is gone
	require.NoError(t, suite.backing.Delete(ctx, p.ID))
	got, err = suite.cached.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func (suite *cachedProductStoreSuite) TestMissIsNotCached() {
	t := suite.T()
	ctx := t.Context()
	id := primitive.NewObjectID()

	ok, err := suite.cached.Exists(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := suite.client.Exists(ctx, "product:"+id.Hex()).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func (suite *cachedProductStoreSuite) TestGetMany() {
	t := suite.T()
	ctx := t.Context()
	warm := suite.create()
	cold := suite.create()

	_, err := suite.cached.Get(ctx, warm.ID)
	require.NoError(t, err)

	found, err := suite.cached.GetMany(ctx, []primitive.ObjectID{warm.ID, cold.ID, primitive.NewObjectID()})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, cold.Title, found[cold.ID].Title)

	n, err := suite.client.Exists(ctx, "product:"+cold.ID.Hex()).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func (suite *cachedProductStoreSuite) TestDeleteEvicts() {
	t := suite.T()
	ctx := t.Context()
	p := suite.create()

	_, err := suite.cached.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, suite.cached.Delete(ctx, p.ID))

	ok, err := suite.cached.Exists(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := suite.cached.GetMany(ctx, []primitive.ObjectID{p.ID})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func (suite *cachedProductStoreSuite) TestUpdateEvicts() {
	t := suite.T()
	ctx := t.Context()
	p := suite.create()

	_, err := suite.cached.Get(ctx, p.ID)
	require.NoError(t, err)

	title := "renamed"
	_, err = suite.cached.Update(ctx, p.ID, models.ProductUpdate{Title: &title})
	require.NoError(t, err)

	got, err := suite.cached.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
}

func (suite *cachedProductStoreSuite) TestPing() {
	suite.NoError(suite.cached.Ping(suite.T().Context()))
}
