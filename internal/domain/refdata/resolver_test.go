package refdata

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbay/fulfillment/internal/domain/fault"
)

type mockRepo struct {
	mu     sync.Mutex
	values map[string]string // set:label -> id
	calls  int
}

func (m *mockRepo) FindByLabel(_ context.Context, set, label string) (*Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	id, ok := m.values[set+":"+label]
	if !ok {
		return nil, fault.Configuration("reference %s/%s not seeded", set, label)
	}
	return &Value{ID: id, Set: set, Label: label}, nil
}

func (m *mockRepo) FindByID(_ context.Context, set, id string) (*Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.values {
		if v == id {
			return &Value{ID: id, Set: set, Label: k[len(set)+1:]}, nil
		}
	}
	return nil, fault.NotFound("unknown %s id", set)
}

type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemCache() *memCache { return &memCache{data: map[string]string{}} }

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func TestResolve_MissPopulatesCache(t *testing.T) {
	repo := &mockRepo{values: map[string]string{"order_status:confirmed": "id-1"}}
	cache := newMemCache()
	r := NewResolver(repo, cache)

	id, err := r.Resolve(context.Background(), SetOrderStatus, OrderConfirmed)
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)
	assert.Equal(t, 1, repo.calls)

	// Second resolve is served from cache.
	id, err = r.Resolve(context.Background(), SetOrderStatus, OrderConfirmed)
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)
	assert.Equal(t, 1, repo.calls)
}

func TestResolve_MissingLabelIsConfigurationError(t *testing.T) {
	repo := &mockRepo{values: map[string]string{}}
	r := NewResolver(repo, newMemCache())

	_, err := r.Resolve(context.Background(), SetOrderStatus, "misspelled")
	require.Error(t, err)
	assert.Equal(t, fault.KindConfiguration, fault.KindOf(err))
}

func TestResolve_NilCache(t *testing.T) {
	repo := &mockRepo{values: map[string]string{"payment_type:cod": "pt-1"}}
	r := NewResolver(repo, nil)

	id, err := r.Resolve(context.Background(), SetPaymentType, PayTypeCOD)
	require.NoError(t, err)
	assert.Equal(t, "pt-1", id)

	_, err = r.Resolve(context.Background(), SetPaymentType, PayTypeCOD)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestInvalidate_ForcesRequery(t *testing.T) {
	repo := &mockRepo{values: map[string]string{"return_status:approved": "rs-1"}}
	cache := newMemCache()
	r := NewResolver(repo, cache)

	_, err := r.Resolve(context.Background(), SetReturnStatus, PostSaleApproved)
	require.NoError(t, err)

	require.NoError(t, r.Invalidate(context.Background(), SetReturnStatus, PostSaleApproved))

	repo.values["return_status:approved"] = "rs-2"
	id, err := r.Resolve(context.Background(), SetReturnStatus, PostSaleApproved)
	require.NoError(t, err)
	assert.Equal(t, "rs-2", id)
}

func TestResolve_ConcurrentMissesCollapse(t *testing.T) {
	repo := &mockRepo{values: map[string]string{"order_status:packed": "id-9"}}
	r := NewResolver(repo, newMemCache())

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := r.Resolve(context.Background(), SetOrderStatus, OrderPacked)
			assert.NoError(t, err)
			assert.Equal(t, "id-9", id)
		}()
	}
	wg.Wait()

	// Singleflight plus the cache keep repository traffic well below the
	// goroutine count; exact count depends on scheduling.
	assert.LessOrEqual(t, repo.calls, 16)
	assert.GreaterOrEqual(t, repo.calls, 1)
}
