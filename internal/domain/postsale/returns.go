package postsale

import (
	"context"
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketbay/fulfillment/internal/domain/catalog"
	"github.com/marketbay/fulfillment/internal/domain/fault"
	"github.com/marketbay/fulfillment/internal/domain/refdata"
	"github.com/marketbay/fulfillment/internal/media"
)

// Resolver is the reference-data dependency shared by both post-sale
// services.
type Resolver interface {
	Resolve(ctx context.Context, set, label string) (string, error)
}

// Upload is an optional supporting image attached to a request.
type Upload struct {
	Filename string
	Content  io.Reader
}

// CreateReturnRequest is the input for a return request.
type CreateReturnRequest struct {
	UserID      string
	OrderItemID string
	Quantity    int
	Reason      string
	Image       *Upload
}

// ReturnService implements the return flow on top of the shared window
// engine.
type ReturnService struct {
	returns  ReturnRepository
	orders   OrderReader
	products catalog.Repository
	refs     Resolver
	media    media.Store

	now func() time.Time
}

// NewReturnService creates a ReturnService.
func NewReturnService(
	returns ReturnRepository,
	orders OrderReader,
	products catalog.Repository,
	refs Resolver,
	mediaStore media.Store,
) *ReturnService {
	return &ReturnService{
		returns:  returns,
		orders:   orders,
		products: products,
		refs:     refs,
		media:    mediaStore,
		now:      time.Now,
	}
}

// Create files a return for an order line owned by the requesting user.
//
// The settlement amount uses the product's current listed price, not the
// price at order time. That matches the historical behaviour; it means the
// refund drifts when the price changes between order and return.
func (s *ReturnService) Create(ctx context.Context, req CreateReturnRequest) (*Return, error) {
	if req.Quantity <= 0 {
		return nil, fault.Invalid("quantity must be greater than 0")
	}

	line, err := s.orders.OrderItem(ctx, req.OrderItemID)
	if err != nil {
		return nil, errors.Wrap(err, "load order item")
	}
	o, err := s.orders.Order(ctx, line.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "load order")
	}
	if o.UserID != req.UserID {
		return nil, fault.Forbidden("forbidden")
	}

	deliveredOn, err := NormalizeDeliveryDate(o.DeliveryDate)
	if err != nil {
		return nil, err
	}
	if err := CheckWindow(s.now(), deliveredOn); err != nil {
		return nil, err
	}

	prior, err := s.returns.ReturnedQuantity(ctx, line.OrderID, line.ProductID)
	if err != nil {
		return nil, errors.Wrap(err, "sum returned quantity")
	}
	available := line.Quantity - prior
	if available < 0 {
		available = 0
	}
	if req.Quantity > available {
		return nil, fault.Invalid("only %d items can be returned for this order item", available)
	}

	prod, err := s.products.GetByID(ctx, line.ProductID)
	if err != nil {
		return nil, errors.Wrap(err, "load product")
	}
	amount := prod.Price.Mul(decimal.NewFromInt(int64(req.Quantity))).Round(2)

	var imageURL string
	if req.Image != nil {
		imageURL, err = s.media.Save(ctx, req.Image.Filename, req.Image.Content)
		if err != nil {
			return nil, errors.Wrap(err, "store return image")
		}
	}

	statusID, err := s.refs.Resolve(ctx, refdata.SetReturnStatus, refdata.PostSaleApproved)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	ret := &Return{
		ID:        uuid.New().String(),
		OrderID:   line.OrderID,
		ProductID: line.ProductID,
		StatusID:  statusID,
		UserID:    req.UserID,
		Reason:    req.Reason,
		ImageURL:  imageURL,
		Quantity:  req.Quantity,
		Amount:    amount,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.returns.Create(ctx, ret); err != nil {
		return nil, errors.Wrap(err, "create return")
	}
	return ret, nil
}

// ListMine returns the user's own returns.
func (s *ReturnService) ListMine(ctx context.Context, userID string, page Page) ([]Return, error) {
	return s.returns.List(ctx, Filter{UserID: userID}, clampPage(page))
}

// GetMine returns one return with ownership enforcement.
func (s *ReturnService) GetMine(ctx context.Context, id, userID string) (*Return, error) {
	ret, err := s.returns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ret.UserID != userID {
		return nil, fault.Forbidden("forbidden")
	}
	return ret, nil
}

// AdminList returns returns matching the filter.
func (s *ReturnService) AdminList(ctx context.Context, f Filter, page Page) ([]Return, error) {
	return s.returns.List(ctx, f, clampPage(page))
}

// AdminGet returns any return by id.
func (s *ReturnService) AdminGet(ctx context.Context, id string) (*Return, error) {
	return s.returns.GetByID(ctx, id)
}

// AdminUpdateStatus updates only the return status.
func (s *ReturnService) AdminUpdateStatus(ctx context.Context, id, statusID string) (*Return, error) {
	if statusID == "" {
		return nil, fault.Invalid("status_id is required")
	}
	return s.returns.UpdateStatus(ctx, id, statusID)
}

// AdminDelete removes a return.
func (s *ReturnService) AdminDelete(ctx context.Context, id string) error {
	ok, err := s.returns.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fault.NotFound("return not found")
	}
	return nil
}
