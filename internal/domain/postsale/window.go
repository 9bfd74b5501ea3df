package postsale

import (
	"time"

	"github.com/marketbay/fulfillment/internal/domain/fault"
)

// WindowDays is the post-delivery period during which returns and exchanges
// may be requested. The window is inclusive of day 7.
const WindowDays = 7

// NormalizeDeliveryDate turns whichever representation the store holds —
// timestamp, date-only timestamp, or ISO string — into a UTC date. Anything
// else is a fault.KindDataIntegrity error: the stored order is corrupt.
func NormalizeDeliveryDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return time.Time{}, fault.DataIntegrity("order has no delivery date")
		}
		return startOfDay(d), nil
	case string:
		if d == "" {
			return time.Time{}, fault.DataIntegrity("order has no delivery date")
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, d); err == nil {
				return startOfDay(t), nil
			}
		}
		return time.Time{}, fault.DataIntegrity("stored delivery date is not a valid ISO date")
	case nil:
		return time.Time{}, fault.DataIntegrity("order has no delivery date")
	default:
		return time.Time{}, fault.DataIntegrity("stored delivery date has an invalid type")
	}
}

// CheckWindow enforces the post-delivery window. A future delivery date is a
// data inconsistency reported as invalid input, matching how the window
// expiry is reported.
func CheckWindow(now, deliveryDate time.Time) error {
	elapsed := int(startOfDay(now).Sub(startOfDay(deliveryDate)).Hours() / 24)
	if elapsed < 0 {
		return fault.Invalid("delivery date cannot be in the future")
	}
	if elapsed > WindowDays {
		return fault.Invalid("window expired (delivery + %d days)", WindowDays)
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
