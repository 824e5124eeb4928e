package payments

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound = errors.New("payment session not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrUnauthorized    = errors.New("invalid gateway api key")
)

// validationError is a malformed or inconsistent request, surfaced as a 400.
type validationError struct {
	Reason string
}

func (e validationError) Error() string {
	return e.Reason
}

// IsValidation reports whether err is a request validation rejection.
func IsValidation(err error) bool {
	var ve validationError
	return errors.As(err, &ve)
}

// conflictError covers the "somebody else got here first or the inputs do not
// line up" class: amount mismatch, session already processed, confirmation
// already in flight. Surfaced to callers, never retried.
type conflictError struct {
	Reason string
}

func (e conflictError) Error() string {
	return e.Reason
}

// IsConflict reports whether err is a conflict rejection.
func IsConflict(err error) bool {
	var ce conflictError
	return errors.As(err, &ce)
}

type productNotFoundError struct {
	ProductID string
}

func (e productNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

type insufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e insufficientStockError) Error() string {
	return fmt.Sprintf("product %s out of stock: available %d, requested %d", e.ProductID, e.Available, e.Requested)
}

type priceMismatchError struct {
	ProductID string
	Locked    float64
	Current   float64
}

func (e priceMismatchError) Error() string {
	return fmt.Sprintf("product %s price changed: locked %.2f, current %.2f", e.ProductID, e.Locked, e.Current)
}

// pricingIntegrityError means the session's recorded totals do not survive
// recomputation. Fatal to the confirmation attempt; requires manual review.
type pricingIntegrityError struct {
	Detail string
}

func (e pricingIntegrityError) Error() string {
	return "pricing integrity violation: " + e.Detail
}

// IsIntegrityViolation reports whether err is a pricing recomputation
// mismatch, which needs manual review rather than a retry.
func IsIntegrityViolation(err error) bool {
	var e pricingIntegrityError
	return errors.As(err, &e)
}

// IsValidationFailure reports whether err is one of the permanent order
// factory rejections that leave the session paid without an order number.
func IsValidationFailure(err error) bool {
	var (
		notFound  productNotFoundError
		stock     insufficientStockError
		price     priceMismatchError
		integrity pricingIntegrityError
	)
	return errors.As(err, &notFound) ||
		errors.As(err, &stock) ||
		errors.As(err, &price) ||
		errors.As(err, &integrity)
}
