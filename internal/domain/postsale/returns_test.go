package postsale

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbay/fulfillment/internal/domain/catalog"
	"github.com/marketbay/fulfillment/internal/domain/fault"
	"github.com/marketbay/fulfillment/internal/domain/refdata"
)

const (
	testUser  = "11111111-1111-1111-1111-111111111111"
	otherUser = "22222222-2222-2222-2222-222222222222"
	testOrder = "33333333-3333-3333-3333-333333333333"
	testItem  = "44444444-4444-4444-4444-444444444444"
	testProd  = "aaaaaaaa-0000-0000-0000-000000000001"
)

var testNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

type fakeOrderReader struct {
	items  map[string]*OrderItemInfo
	orders map[string]*OrderInfo
}

func (f *fakeOrderReader) OrderItem(_ context.Context, id string) (*OrderItemInfo, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, fault.NotFound("order item not found")
	}
	return it, nil
}

func (f *fakeOrderReader) Order(_ context.Context, id string) (*OrderInfo, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, fault.NotFound("order not found")
	}
	return o, nil
}

type memReturns struct {
	rows map[string]*Return
}

func (m *memReturns) Create(_ context.Context, r *Return) error {
	m.rows[r.ID] = r
	return nil
}

func (m *memReturns) GetByID(_ context.Context, id string) (*Return, error) {
	r, ok := m.rows[id]
	if !ok {
		return nil, fault.NotFound("return not found")
	}
	return r, nil
}

func (m *memReturns) List(_ context.Context, f Filter, _ Page) ([]Return, error) {
	var out []Return
	for _, r := range m.rows {
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (m *memReturns) ReturnedQuantity(_ context.Context, orderID, productID string) (int, error) {
	total := 0
	for _, r := range m.rows {
		if r.OrderID == orderID && r.ProductID == productID {
			total += r.Quantity
		}
	}
	return total, nil
}

func (m *memReturns) UpdateStatus(_ context.Context, id, statusID string) (*Return, error) {
	r, ok := m.rows[id]
	if !ok {
		return nil, fault.NotFound("return not found")
	}
	r.StatusID = statusID
	return r, nil
}

func (m *memReturns) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := m.rows[id]; !ok {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}

type fakeCatalog struct {
	price decimal.Decimal
}

func (f *fakeCatalog) GetByID(_ context.Context, id string) (*catalog.Product, error) {
	if id != testProd {
		return nil, fault.NotFound("product not found")
	}
	return &catalog.Product{ID: id, Name: "widget", Price: f.price, Quantity: 10}, nil
}

type staticRefs struct{}

func (staticRefs) Resolve(_ context.Context, set, label string) (string, error) {
	return "ref-" + set + "-" + label, nil
}

type fakeMedia struct {
	saved   []string
	deleted []string
}

func (f *fakeMedia) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	url := "/media/" + filename
	f.saved = append(f.saved, url)
	return url, nil
}

func (f *fakeMedia) Delete(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

func newReturnFixture(t *testing.T) (*ReturnService, *memReturns, *fakeOrderReader, *fakeMedia) {
	t.Helper()
	reader := &fakeOrderReader{
		items: map[string]*OrderItemInfo{
			testItem: {ID: testItem, OrderID: testOrder, ProductID: testProd, Quantity: 3},
		},
		orders: map[string]*OrderInfo{
			// Delivered 2 days ago, well within the window.
			testOrder: {ID: testOrder, UserID: testUser, DeliveryDate: testNow.AddDate(0, 0, -2)},
		},
	}
	repo := &memReturns{rows: map[string]*Return{}}
	store := &fakeMedia{}
	svc := NewReturnService(repo, reader, &fakeCatalog{price: decimal.NewFromFloat(19.99)}, staticRefs{}, store)
	svc.now = func() time.Time { return testNow }
	return svc, repo, reader, store
}

func TestReturnCreate_Success(t *testing.T) {
	svc, repo, _, store := newReturnFixture(t)

	ret, err := svc.Create(context.Background(), CreateReturnRequest{
		UserID:      testUser,
		OrderItemID: testItem,
		Quantity:    2,
		Reason:      "damaged",
		Image:       &Upload{Filename: "proof.jpg", Content: strings.NewReader("jpeg")},
	})
	require.NoError(t, err)

	// Amount uses the current product price times quantity.
	assert.Equal(t, "39.98", ret.Amount.StringFixed(2))
	assert.Equal(t, "ref-"+refdata.SetReturnStatus+"-"+refdata.PostSaleApproved, ret.StatusID)
	assert.Equal(t, "/media/proof.jpg", ret.ImageURL)
	assert.Len(t, repo.rows, 1)
	assert.Len(t, store.saved, 1)
}

func TestReturnCreate_CumulativeCap(t *testing.T) {
	svc, _, _, _ := newReturnFixture(t)

	_, err := svc.Create(context.Background(), CreateReturnRequest{
		UserID: testUser, OrderItemID: testItem, Quantity: 2,
	})
	require.NoError(t, err)

	// Only one unit of three remains returnable.
	_, err = svc.Create(context.Background(), CreateReturnRequest{
		UserID: testUser, OrderItemID: testItem, Quantity: 2,
	})
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindInvalidInput))
	assert.Contains(t, err.Error(), "only 1 items can be returned")

	_, err = svc.Create(context.Background(), CreateReturnRequest{
		UserID: testUser, OrderItemID: testItem, Quantity: 1,
	})
	require.NoError(t, err)

	// Line exhausted.
	_, err = svc.Create(context.Background(), CreateReturnRequest{
		UserID: testUser, OrderItemID: testItem, Quantity: 1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only 0 items can be returned")
}

func TestReturnCreate_WindowExpired(t *testing.T) {
	svc, _, reader, _ := newReturnFixture(t)
	reader.orders[testOrder].DeliveryDate = testNow.AddDate(0, 0, -8)

	_, err := svc.Create(context.Background(), CreateReturnRequest{
		UserID: testUser, OrderItemID: testItem, Quantity: 1,
	})
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindInvalidInput))
}

func TestReturnCreate_ForeignOrderForbidden(t *testing.T) {
	svc, _, _, _ := newReturnFixture(t)

	_, err := svc.Create(context.Background(), CreateReturnRequest{
		UserID: otherUser, OrderItemID: testItem, Quantity: 1,
	})
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindForbidden))
}

func TestReturnCreate_InvalidQuantity(t *testing.T) {
	svc, _, _, _ := newReturnFixture(t)

	_, err := svc.Create(context.Background(), CreateReturnRequest{
		UserID: testUser, OrderItemID: testItem, Quantity: 0,
	})
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindInvalidInput))
}

func TestReturnCreate_CorruptDeliveryDate(t *testing.T) {
	svc, _, reader, _ := newReturnFixture(t)
	reader.orders[testOrder].DeliveryDate = 12345

	_, err := svc.Create(context.Background(), CreateReturnRequest{
		UserID: testUser, OrderItemID: testItem, Quantity: 1,
	})
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindDataIntegrity))
}

func TestReturnGetMine_Ownership(t *testing.T) {
	svc, repo, _, _ := newReturnFixture(t)
	repo.rows["r1"] = &Return{ID: "r1", UserID: otherUser}

	_, err := svc.GetMine(context.Background(), "r1", testUser)
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindForbidden))
}

func TestReturnAdminDelete_NotFound(t *testing.T) {
	svc, _, _, _ := newReturnFixture(t)

	err := svc.AdminDelete(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindNotFound))
}
