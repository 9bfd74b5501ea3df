package postsale

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbay/fulfillment/internal/domain/fault"
	"github.com/marketbay/fulfillment/internal/domain/refdata"
)

type memExchanges struct {
	rows map[string]*Exchange
}

func (m *memExchanges) Create(_ context.Context, e *Exchange) error {
	m.rows[e.ID] = e
	return nil
}

func (m *memExchanges) GetByID(_ context.Context, id string) (*Exchange, error) {
	e, ok := m.rows[id]
	if !ok {
		return nil, fault.NotFound("exchange not found")
	}
	return e, nil
}

func (m *memExchanges) List(_ context.Context, f Filter, _ Page) ([]Exchange, error) {
	var out []Exchange
	for _, e := range m.rows {
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (m *memExchanges) UpdateStatus(_ context.Context, id, statusID string) (*Exchange, error) {
	e, ok := m.rows[id]
	if !ok {
		return nil, fault.NotFound("exchange not found")
	}
	e.StatusID = statusID
	return e, nil
}

func (m *memExchanges) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := m.rows[id]; !ok {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}

func newExchangeFixture(t *testing.T) (*ExchangeService, *memExchanges, *fakeOrderReader, *fakeMedia) {
	t.Helper()
	reader := &fakeOrderReader{
		items: map[string]*OrderItemInfo{
			testItem: {ID: testItem, OrderID: testOrder, ProductID: testProd, Quantity: 3},
		},
		orders: map[string]*OrderInfo{
			testOrder: {ID: testOrder, UserID: testUser, DeliveryDate: testNow.AddDate(0, 0, -2)},
		},
	}
	repo := &memExchanges{rows: map[string]*Exchange{}}
	store := &fakeMedia{}
	svc := NewExchangeService(repo, reader, staticRefs{}, store)
	svc.now = func() time.Time { return testNow }
	return svc, repo, reader, store
}

func TestExchangeCreate_Success(t *testing.T) {
	svc, repo, _, _ := newExchangeFixture(t)

	ex, err := svc.Create(context.Background(), CreateExchangeRequest{
		UserID:      testUser,
		OrderItemID: testItem,
		Reason:      "wrong size",
		NewQuantity: 2,
		NewSize:     "L",
	})
	require.NoError(t, err)

	assert.Equal(t, "ref-"+refdata.SetExchangeStatus+"-"+refdata.PostSaleApproved, ex.StatusID)
	assert.Equal(t, 2, ex.NewQuantity)
	assert.Equal(t, "L", ex.NewSize)
	assert.Len(t, repo.rows, 1)
}

func TestExchangeCreate_DefaultQuantity(t *testing.T) {
	svc, _, _, _ := newExchangeFixture(t)

	ex, err := svc.Create(context.Background(), CreateExchangeRequest{
		UserID: testUser, OrderItemID: testItem,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ex.NewQuantity)
}

func TestExchangeCreate_NoCumulativeCap(t *testing.T) {
	svc, repo, _, _ := newExchangeFixture(t)

	for i := 0; i < 5; i++ {
		_, err := svc.Create(context.Background(), CreateExchangeRequest{
			UserID: testUser, OrderItemID: testItem, NewQuantity: 3,
		})
		require.NoError(t, err)
	}
	assert.Len(t, repo.rows, 5)
}

func TestExchangeCreate_WindowExpired(t *testing.T) {
	svc, _, reader, _ := newExchangeFixture(t)
	reader.orders[testOrder].DeliveryDate = testNow.AddDate(0, 0, -8)

	_, err := svc.Create(context.Background(), CreateExchangeRequest{
		UserID: testUser, OrderItemID: testItem,
	})
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindInvalidInput))
}

func TestExchangeCreate_ForeignOrderForbidden(t *testing.T) {
	svc, _, _, _ := newExchangeFixture(t)

	_, err := svc.Create(context.Background(), CreateExchangeRequest{
		UserID: otherUser, OrderItemID: testItem,
	})
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindForbidden))
}

func TestExchangeAdminDelete_RemovesImage(t *testing.T) {
	svc, repo, _, store := newExchangeFixture(t)

	ex, err := svc.Create(context.Background(), CreateExchangeRequest{
		UserID:      testUser,
		OrderItemID: testItem,
		Image:       &Upload{Filename: "proof.png", Content: strings.NewReader("png")},
	})
	require.NoError(t, err)
	require.NotEmpty(t, ex.ImageURL)

	require.NoError(t, svc.AdminDelete(context.Background(), ex.ID))
	assert.Empty(t, repo.rows)
	assert.Equal(t, []string{ex.ImageURL}, store.deleted)
}

func TestExchangeAdminDelete_NotFound(t *testing.T) {
	svc, _, _, _ := newExchangeFixture(t)

	err := svc.AdminDelete(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindNotFound))
}
