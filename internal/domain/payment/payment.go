// Package payment models payment details as a tagged variant validated
// before the placement transaction is entered.
package payment

import (
	"regexp"
	"strings"

	"github.com/marketbay/fulfillment/internal/domain/fault"
	"github.com/marketbay/fulfillment/internal/domain/refdata"
)

// Details is the tagged payment variant: exactly one of Cod, Card or Upi.
type Details interface {
	isDetails()
}

// Cod is cash on delivery; it carries no extra fields and the payment status
// starts as "pending".
type Cod struct{}

// Card carries the cardholder name and the normalized card number. The
// number is encrypted before it ever reaches storage.
type Card struct {
	Name   string
	Number string
}

// Upi carries a validated UPI handle.
type Upi struct {
	Handle string
}

func (Cod) isDetails()  {}
func (Card) isDetails() {}
func (Upi) isDetails()  {}

// upiRe matches local-part@bank with a bank code of at least two letters.
var upiRe = regexp.MustCompile(`^[a-zA-Z0-9.\-_]{2,}@[a-zA-Z]{2,}$`)

// RawInput is the untyped payment-detail input from the transport layer.
type RawInput struct {
	CardName string
	CardNo   string
	UpiID    string
}

// ForType validates raw input against the payment type label and returns the
// matching variant. All failures are fault.KindInvalidInput and occur before
// any write.
func ForType(typeLabel string, in RawInput) (Details, error) {
	switch strings.ToLower(strings.TrimSpace(typeLabel)) {
	case refdata.PayTypeCOD:
		return Cod{}, nil
	case refdata.PayTypeCard:
		return validateCard(in.CardName, in.CardNo)
	case refdata.PayTypeUPI:
		return validateUpi(in.UpiID)
	default:
		return nil, fault.Invalid("unsupported payment type")
	}
}

func validateCard(name, number string) (Details, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fault.Invalid("card_name is required for card payments")
	}
	if strings.TrimSpace(number) == "" {
		return nil, fault.Invalid("card_no is required for card payments")
	}
	num := strings.ReplaceAll(number, " ", "")
	if len(num) < 12 || len(num) > 19 || !isDigits(num) {
		return nil, fault.Invalid("invalid card_no (must be 12-19 digits)")
	}
	return Card{Name: strings.TrimSpace(name), Number: num}, nil
}

func validateUpi(handle string) (Details, error) {
	val := strings.TrimSpace(handle)
	if val == "" {
		return nil, fault.Invalid("upi_id is required for upi payments")
	}
	if !upiRe.MatchString(val) {
		return nil, fault.Invalid("invalid upi format (expected something@bank)")
	}
	return Upi{Handle: val}, nil
}

func isDigits(s string) bool {
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
