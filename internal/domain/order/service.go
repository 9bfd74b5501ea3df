package order

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketbay/fulfillment/internal/domain/address"
	"github.com/marketbay/fulfillment/internal/domain/cart"
	"github.com/marketbay/fulfillment/internal/domain/fault"
	"github.com/marketbay/fulfillment/internal/domain/payment"
	"github.com/marketbay/fulfillment/internal/domain/refdata"
	"github.com/marketbay/fulfillment/internal/events"
)

// CardEncryptor encrypts card numbers before they reach storage.
type CardEncryptor interface {
	Encrypt(plaintext string) (string, error)
}

// PlaceOrderRequest holds the input for placing an order. PaymentDetails is
// the raw transport input; it is validated against the payment type before
// the transaction is entered.
type PlaceOrderRequest struct {
	UserID         string
	AddressID      string
	PaymentTypeID  string
	PaymentDetails payment.RawInput
}

// Service encapsulates order lifecycle business logic.
type Service struct {
	orders    Repository
	addresses AddressReader
	carts     cart.Repository
	refs      Resolver
	vault     CardEncryptor
	publisher events.Publisher

	now    func() time.Time
	genOTP func() string
}

// AddressReader is the narrow address-store dependency.
type AddressReader interface {
	Get(ctx context.Context, id, userID string) (*address.Snapshot, error)
}

// Resolver is the reference-data dependency.
type Resolver interface {
	Resolve(ctx context.Context, set, label string) (string, error)
	ResolveByID(ctx context.Context, set, id string) (*refdata.Value, error)
}

// NewService creates an order Service with the required dependencies.
func NewService(
	orders Repository,
	addresses AddressReader,
	carts cart.Repository,
	refs Resolver,
	vault CardEncryptor,
	publisher events.Publisher,
) *Service {
	return &Service{
		orders:    orders,
		addresses: addresses,
		carts:     carts,
		refs:      refs,
		vault:     vault,
		publisher: publisher,
		now:       time.Now,
		genOTP:    GenerateOTP,
	}
}

// GenerateOTP returns a cryptographically random zero-padded 6-digit code.
func GenerateOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		// crypto/rand failing means the platform RNG is broken.
		panic(errors.Wrap(err, "generate otp"))
	}
	return fmt.Sprintf("%06d", n.Int64())
}

// PlaceOrder turns the user's cart into a committed order.
//
// Validation (address ownership, payment type and details, non-empty cart)
// runs before the transaction. Inside one atomic transaction: per-line stock
// reservation, order + items + payment (+ card/upi detail) inserts, and cart
// clearing. Any failure aborts the transaction; no partial state, including
// stock decrements, survives.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	snap, err := s.addresses.Get(ctx, req.AddressID, req.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve address")
	}

	payType, err := s.refs.ResolveByID(ctx, refdata.SetPaymentType, req.PaymentTypeID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve payment type")
	}
	details, err := payment.ForType(payType.Label, req.PaymentDetails)
	if err != nil {
		return nil, err
	}

	paymentStatusLabel := refdata.PaymentSuccess
	if _, isCod := details.(payment.Cod); isCod {
		paymentStatusLabel = refdata.PaymentPending
	}
	paymentStatusID, err := s.refs.Resolve(ctx, refdata.SetPaymentStatus, paymentStatusLabel)
	if err != nil {
		return nil, err
	}

	// Orders are auto-accepted; there is no pending-approval state.
	confirmedID, err := s.refs.Resolve(ctx, refdata.SetOrderStatus, refdata.OrderConfirmed)
	if err != nil {
		return nil, err
	}

	userCart, err := s.carts.GetByUser(ctx, req.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	lines, err := s.carts.Items(ctx, userCart.ID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart items")
	}
	if len(lines) == 0 {
		return nil, fault.Invalid("cart is empty")
	}

	// Encrypt card data before entering the transaction; a vault failure
	// must not leave partial writes behind.
	var encryptedCardNo string
	if card, ok := details.(payment.Card); ok {
		encryptedCardNo, err = s.vault.Encrypt(card.Number)
		if err != nil {
			return nil, errors.Wrap(err, "encrypt card number")
		}
	}

	now := s.now().UTC()
	o := &Order{
		ID:           uuid.New().String(),
		UserID:       req.UserID,
		Address:      *snap,
		StatusID:     confirmedID,
		DeliveryDate: startOfDay(now.AddDate(0, 0, DeliveryLeadDays)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.orders.InTx(ctx, func(tx Tx) error {
		// Reserve stock per line and accumulate the total. Rounding happens
		// once at the end to avoid compounding per-line error.
		total := decimal.Zero
		for _, line := range lines {
			price, err := tx.Reserve(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
		o.Total = total.Round(2)

		if err := tx.InsertOrder(ctx, o); err != nil {
			return errors.Wrap(err, "insert order")
		}

		items := make([]Item, len(lines))
		for i, line := range lines {
			items[i] = Item{
				ID:        uuid.New().String(),
				OrderID:   o.ID,
				UserID:    req.UserID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Size:      line.Size,
			}
		}
		if err := tx.InsertItems(ctx, items); err != nil {
			return errors.Wrap(err, "insert order items")
		}

		pay := &Payment{
			ID:              uuid.New().String(),
			OrderID:         o.ID,
			UserID:          req.UserID,
			PaymentTypeID:   payType.ID,
			PaymentStatusID: paymentStatusID,
			InvoiceNo:       "INV-" + o.ID,
			DeliveryFee:     DeliveryFee,
			Amount:          o.Total,
		}
		if err := tx.InsertPayment(ctx, pay); err != nil {
			return errors.Wrap(err, "insert payment")
		}

		switch d := details.(type) {
		case payment.Card:
			if err := tx.InsertCardDetail(ctx, pay.ID, d.Name, encryptedCardNo); err != nil {
				return errors.Wrap(err, "insert card detail")
			}
		case payment.Upi:
			if err := tx.InsertUpiDetail(ctx, pay.ID, d.Handle); err != nil {
				return errors.Wrap(err, "insert upi detail")
			}
		}

		if err := tx.ClearCart(ctx, userCart.ID); err != nil {
			return errors.Wrap(err, "clear cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.TypeOrderPlaced, o.ID, events.OrderPlacedPayload{
		OrderID: o.ID,
		UserID:  o.UserID,
		Total:   o.Total.StringFixed(2),
		Items:   len(lines),
	})
	return o, nil
}

// ListMine returns the user's own orders, newest first.
func (s *Service) ListMine(ctx context.Context, userID string, page Page) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID, clampPage(page))
}

// GetMine returns one order with ownership enforcement.
func (s *Service) GetMine(ctx context.Context, id, userID string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, fault.Forbidden("forbidden")
	}
	return o, nil
}

// CancelMine cancels the user's own order. The guard is a single conditional
// update matching (id, owner, status in {placed, confirmed, packed}); when
// it matches nothing, a follow-up read classifies the failure as NotFound,
// Forbidden or InvalidTransition, in that precedence order.
func (s *Service) CancelMine(ctx context.Context, id, userID string) (*Order, error) {
	eligible := make([]string, 0, 3)
	for _, label := range []string{refdata.OrderPlaced, refdata.OrderConfirmed, refdata.OrderPacked} {
		statusID, err := s.refs.Resolve(ctx, refdata.SetOrderStatus, label)
		if err != nil {
			return nil, err
		}
		eligible = append(eligible, statusID)
	}
	cancelledID, err := s.refs.Resolve(ctx, refdata.SetOrderStatus, refdata.OrderCancelled)
	if err != nil {
		return nil, err
	}

	o, err := s.orders.CancelOwn(ctx, id, userID, eligible, cancelledID)
	if err != nil {
		return nil, err
	}
	if o != nil {
		s.publisher.Publish(events.TypeOrderCancelled, o.ID, events.StatusChangedPayload{
			OrderID:  o.ID,
			UserID:   o.UserID,
			StatusID: cancelledID,
			Status:   refdata.OrderCancelled,
		})
		return o, nil
	}

	existing, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, fault.Forbidden("forbidden")
	}
	return nil, fault.InvalidTransition("order cannot be cancelled at its current status")
}

// AdminGet returns any order by id.
func (s *Service) AdminGet(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// AdminList returns orders matching the filter.
func (s *Service) AdminList(ctx context.Context, f ListFilter) ([]Order, error) {
	f.Page = clampPage(f.Page)
	return s.orders.List(ctx, f)
}

// AdminUpdateStatus sets the order status to any target status. Transitions
// are deliberately unrestricted here: this is the operational override path.
// Entering out-for-delivery issues a fresh 6-digit OTP; entering delivered
// clears it. The delivery date may be overridden in the same update.
func (s *Service) AdminUpdateStatus(ctx context.Context, id, statusID string, deliveryDate *time.Time) (*Order, error) {
	if statusID == "" {
		return nil, fault.Invalid("status_id is required")
	}

	status, err := s.refs.ResolveByID(ctx, refdata.SetOrderStatus, statusID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve order status")
	}

	u := StatusUpdate{StatusID: status.ID, DeliveryDate: deliveryDate}
	switch normalizeStatusLabel(status.Label) {
	case refdata.OrderOutForDelivery:
		otp := s.genOTP()
		u.OTP = &otp
	case refdata.OrderDelivered:
		u.ClearOTP = true
	}

	o, err := s.orders.UpdateStatus(ctx, id, u)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(events.TypeOrderStatusChanged, o.ID, events.StatusChangedPayload{
		OrderID:  o.ID,
		UserID:   o.UserID,
		StatusID: status.ID,
		Status:   status.Label,
	})
	return o, nil
}

// AdminDelete removes an order and its dependent rows.
func (s *Service) AdminDelete(ctx context.Context, id string) (*DeleteStats, error) {
	return s.orders.DeleteCascade(ctx, id)
}

// normalizeStatusLabel folds the label spellings seen in historical seed
// data ("out for delivery", "out-for-delivery") onto the canonical form.
func normalizeStatusLabel(label string) string {
	l := strings.ToLower(strings.TrimSpace(label))
	l = strings.ReplaceAll(l, " ", "_")
	return strings.ReplaceAll(l, "-", "_")
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clampPage(p Page) Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	if p.Limit > 200 {
		p.Limit = 200
	}
	return p
}
