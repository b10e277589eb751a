// Package apperr classifies storefront failures into validation, not-found,
// conflict and persistence errors, each carrying a stable numeric code.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the broad class of a failure.
type Kind int

const (
	Persistence Kind = iota
	Validation
	NotFound
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	default:
		return "persistence"
	}
}

// Error codes
const (
	CodeOK            = 0
	CodeError         = 1
	CodeInvalidParams = 2

	CodeAuth              = 10001
	CodeAuthTokenInvalid  = 10002
	CodeAuthTokenExpired  = 10003
	CodeInvalidCredential = 10004
	CodeForbidden         = 10005

	CodeEmailTaken       = 20001
	CodeInvalidEmail     = 20002
	CodePasswordMismatch = 20003
	CodeUnknownZip       = 20004
	CodeMissingFields    = 20005
	CodeCustomerNotFound = 20006
	CodeCustomerOrders   = 20007

	CodeProductNotFound   = 30001
	CodeStockNotEnough    = 30002
	CodeSellerNotFound    = 30003
	CodeSellerIDExhausted = 30004

	CodeEmptyCart    = 40001
	CodeCartLine     = 40002
	CodeCartQuantity = 40003

	CodeOrderNotFound    = 50001
	CodeOrderStatus      = 50002
	CodeReviewIncomplete = 50003
	CodeReviewScore      = 50004
)

var msgFlags = map[int]string{
	CodeOK:            "ok",
	CodeError:         "internal error",
	CodeInvalidParams: "invalid request parameters",

	CodeAuth:              "authentication required",
	CodeAuthTokenInvalid:  "token invalid",
	CodeAuthTokenExpired:  "token expired",
	CodeInvalidCredential: "invalid username or password",
	CodeForbidden:         "portal not allowed",

	CodeEmailTaken:       "email already registered",
	CodeInvalidEmail:     "invalid email address",
	CodePasswordMismatch: "passwords do not match",
	CodeUnknownZip:       "unknown zip code",
	CodeMissingFields:    "all fields are required",
	CodeCustomerNotFound: "customer not found",
	CodeCustomerOrders:   "customer has orders",

	CodeProductNotFound:   "product not found",
	CodeStockNotEnough:    "insufficient stock",
	CodeSellerNotFound:    "seller not found",
	CodeSellerIDExhausted: "no seller id available",

	CodeEmptyCart:    "cart is empty",
	CodeCartLine:     "cart line index out of range",
	CodeCartQuantity: "quantity out of range",

	CodeOrderNotFound:    "order not found",
	CodeOrderStatus:      "order status does not allow this change",
	CodeReviewIncomplete: "review score and comment are required",
	CodeReviewScore:      "review score must be between 1 and 5",
}

// Msg returns the message registered for code.
func Msg(code int) string {
	if msg, ok := msgFlags[code]; ok {
		return msg
	}
	return msgFlags[CodeError]
}

// Error is a classified failure. Sentinels of this type are compared with
// errors.Is by identity.
type Error struct {
	Kind    Kind
	Code    int
	Message string
}

// New builds an Error using the registered message for code.
func New(kind Kind, code int) *Error {
	return &Error{Kind: kind, Code: code, Message: Msg(code)}
}

func (e *Error) Error() string { return e.Message }

// Wrapf attaches detail to a classified sentinel while keeping it matchable.
func Wrapf(sentinel *Error, format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)
}

// KindOf classifies err. Unclassified errors are persistence failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Persistence
}

// CodeOf returns the code carried by err, or CodeError.
func CodeOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeError
}
