package checkout

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/go-faster/errors"
)

var (
	// ErrSubmitted is returned by every operation on a submitted session.
	ErrSubmitted = errors.New("checkout already submitted")
	// ErrEmptyCart is returned by Submit when the bound cart has no items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrUnknownDistrict is returned for a district outside Districts.
	ErrUnknownDistrict = errors.New("unknown district")
	// ErrUnknownPaymentMethod is returned for an unsupported payment method.
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
)

// TransitionError reports an operation attempted from a step that does not
// allow it.
type TransitionError struct {
	Op   string
	From Step
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s from step %q", e.Op, e.From)
}

// Field names reported by ValidationError.
const (
	FieldFullName      = "fullName"
	FieldPhone         = "phone"
	FieldDistrict      = "district"
	FieldAddress       = "address"
	FieldPaymentMethod = "paymentMethod"
	FieldWalletNumber  = "walletNumber"
	FieldTransactionID = "transactionId"
)

// ValidationError carries per-field messages for display next to the form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	return "invalid checkout: " + strings.Join(keys, ", ")
}
