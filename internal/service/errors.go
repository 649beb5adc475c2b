package service

import (
	"errors"
	"fmt"
)

// Validation failures surface straight to the actor and are never retried.
var (
	ErrDuplicateUsername    = errors.New("username already taken")
	ErrReservedIdentity     = errors.New("username is reserved")
	ErrWeakPassword         = errors.New("password must be at least 4 characters")
	ErrInvalidUsername      = errors.New("username is required")
	ErrInvalidAmount        = errors.New("top-up amount is not offered")
	ErrInvalidMethod        = errors.New("payment method is not supported")
	ErrInvalidAccountType   = errors.New("account type must be SHARING or PRIVATE")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrInvalidPlan          = errors.New("invalid plan")
)

// Authentication failures.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrWrongPassword   = errors.New("wrong password")
	ErrAdminAuthDenied = errors.New("admin authentication denied")
	ErrAuthRequired    = errors.New("login required")
	ErrAdminOnly       = errors.New("admin session required")
	ErrAdminPurchase   = errors.New("admin sessions cannot purchase")
)

var (
	ErrOutOfStock        = errors.New("out of stock")
	ErrPlanNotFound      = errors.New("plan not found")
	ErrTopUpNotFound     = errors.New("top-up request not found")
	ErrTopUpResolved     = errors.New("top-up request already resolved")
	ErrExportDisabled    = errors.New("ledger export is not configured")
	ErrSessionNotFound   = errors.New("session not found")
	ErrAdminNotSpendable = errors.New("admin wallet cannot be debited")
)

// InsufficientBalanceError reports how much the buyer is missing for a purchase.
type InsufficientBalanceError struct {
	Price     int64
	Balance   int64
	Shortfall int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: price %d, balance %d, shortfall %d", e.Price, e.Balance, e.Shortfall)
}
