package postsale

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/marketbay/fulfillment/internal/domain/fault"
	"github.com/marketbay/fulfillment/internal/domain/refdata"
	"github.com/marketbay/fulfillment/internal/media"
)

// CreateExchangeRequest is the input for an exchange request. Unlike
// returns, exchanges carry the replacement quantity/size and are not capped
// against prior requests for the same line.
type CreateExchangeRequest struct {
	UserID      string
	OrderItemID string
	Reason      string
	NewQuantity int
	NewSize     string
	Image       *Upload
}

// ExchangeService implements the exchange flow on top of the shared window
// engine.
type ExchangeService struct {
	exchanges ExchangeRepository
	orders    OrderReader
	refs      Resolver
	media     media.Store

	now func() time.Time
}

// NewExchangeService creates an ExchangeService.
func NewExchangeService(
	exchanges ExchangeRepository,
	orders OrderReader,
	refs Resolver,
	mediaStore media.Store,
) *ExchangeService {
	return &ExchangeService{
		exchanges: exchanges,
		orders:    orders,
		refs:      refs,
		media:     mediaStore,
		now:       time.Now,
	}
}

// Create files an exchange for an order line owned by the requesting user.
func (s *ExchangeService) Create(ctx context.Context, req CreateExchangeRequest) (*Exchange, error) {
	if req.NewQuantity <= 0 {
		req.NewQuantity = 1
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

	statusID, err := s.refs.Resolve(ctx, refdata.SetExchangeStatus, refdata.PostSaleApproved)
	if err != nil {
		return nil, err
	}

	var imageURL string
	if req.Image != nil {
		imageURL, err = s.media.Save(ctx, req.Image.Filename, req.Image.Content)
		if err != nil {
			return nil, errors.Wrap(err, "store exchange image")
		}
	}

	now := s.now().UTC()
	ex := &Exchange{
		ID:          uuid.New().String(),
		OrderID:     line.OrderID,
		ProductID:   line.ProductID,
		StatusID:    statusID,
		UserID:      req.UserID,
		Reason:      req.Reason,
		ImageURL:    imageURL,
		NewQuantity: req.NewQuantity,
		NewSize:     req.NewSize,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.exchanges.Create(ctx, ex); err != nil {
		return nil, errors.Wrap(err, "create exchange")
	}
	return ex, nil
}

// ListMine returns the user's own exchanges.
func (s *ExchangeService) ListMine(ctx context.Context, userID string, page Page) ([]Exchange, error) {
	return s.exchanges.List(ctx, Filter{UserID: userID}, clampPage(page))
}

// GetMine returns one exchange with ownership enforcement.
func (s *ExchangeService) GetMine(ctx context.Context, id, userID string) (*Exchange, error) {
	ex, err := s.exchanges.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ex.UserID != userID {
		return nil, fault.Forbidden("forbidden")
	}
	return ex, nil
}

// AdminList returns exchanges matching the filter.
func (s *ExchangeService) AdminList(ctx context.Context, f Filter, page Page) ([]Exchange, error) {
	return s.exchanges.List(ctx, f, clampPage(page))
}

// AdminGet returns any exchange by id.
func (s *ExchangeService) AdminGet(ctx context.Context, id string) (*Exchange, error) {
	return s.exchanges.GetByID(ctx, id)
}

// AdminUpdateStatus updates only the exchange status.
func (s *ExchangeService) AdminUpdateStatus(ctx context.Context, id, statusID string) (*Exchange, error) {
	if statusID == "" {
		return nil, fault.Invalid("status_id is required")
	}
	return s.exchanges.UpdateStatus(ctx, id, statusID)
}

// AdminDelete removes an exchange together with its stored image. Image
// removal is best-effort: a media failure does not resurrect the exchange.
func (s *ExchangeService) AdminDelete(ctx context.Context, id string) error {
	ex, err := s.exchanges.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ex.ImageURL != "" {
		_ = s.media.Delete(ctx, ex.ImageURL)
	}
	ok, err := s.exchanges.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fault.NotFound("exchange not found")
	}
	return nil
}
