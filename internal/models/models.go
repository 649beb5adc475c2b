package models

import (
	"errors"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type TransactionType string

const (
	TransactionTopUp    TransactionType = "TOPUP"
	TransactionPurchase TransactionType = "PURCHASE"
)

type TransactionStatus string

const (
	StatusPending TransactionStatus = "PENDING"
	StatusSuccess TransactionStatus = "SUCCESS"
	StatusFailed  TransactionStatus = "FAILED"
)

type AccountType string

const (
	AccountSharing AccountType = "SHARING"
	AccountPrivate AccountType = "PRIVATE"
)

// AccountTypes lists every selectable account variant in display order.
var AccountTypes = []AccountType{AccountSharing, AccountPrivate}

func (t AccountType) Valid() bool {
	return t == AccountSharing || t == AccountPrivate
}

type PaymentMethod string

const (
	PaymentDANA      PaymentMethod = "DANA"
	PaymentGoPay     PaymentMethod = "GOPAY"
	PaymentOVO       PaymentMethod = "OVO"
	PaymentShopeePay PaymentMethod = "SHOPEEPAY"
	PaymentQRIS      PaymentMethod = "QRIS"
)

var PaymentMethods = []PaymentMethod{PaymentDANA, PaymentGoPay, PaymentOVO, PaymentShopeePay, PaymentQRIS}

func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// PasswordSentinel marks credentials that are accessed through a link instead of a password.
const PasswordSentinel = "-"

type User struct {
	Username     string        `json:"username"`
	Password     string        `json:"-"`
	Balance      int64         `json:"balance"`
	Role         Role          `json:"role"`
	CreatedAt    time.Time     `json:"created_at"`
	Transactions []Transaction `json:"transactions"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type Credentials struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	AccessLink string `json:"access_link,omitempty"`
	ExpiresAt  string `json:"expires_at"`
}

type Transaction struct {
	ID            string            `json:"id"`
	Username      string            `json:"username"`
	Type          TransactionType   `json:"type"`
	PlanID        string            `json:"plan_id,omitempty"`
	Amount        int64             `json:"amount"`
	Timestamp     time.Time         `json:"timestamp"`
	Status        TransactionStatus `json:"status"`
	PaymentMethod PaymentMethod     `json:"payment_method,omitempty"`
	AccountType   AccountType       `json:"account_type,omitempty"`
	Credentials   *Credentials      `json:"credentials,omitempty"`
}

type StockItem struct {
	Email string `json:"email"`
	Link  string `json:"link"`
}

type Announcement struct {
	Text     string `json:"text"`
	IsActive bool   `json:"is_active"`
}

type DeveloperLedger struct {
	Balance      int64         `json:"balance"`
	Transactions []Transaction `json:"transactions"`
}

var (
	ErrNoPrice          = errors.New("no price configured for plan")
	ErrOfferUnavailable = errors.New("account type not offered for plan")
)

type PriceOffer struct {
	Enabled       bool   `json:"enabled"`
	Amount        int64  `json:"amount"`
	StrikeThrough *int64 `json:"strike_through,omitempty"`
}

type Plan struct {
	ID          string                      `json:"id"`
	Name        string                      `json:"name"`
	Duration    string                      `json:"duration"`
	Features    []string                    `json:"features"`
	Recommended bool                        `json:"recommended"`
	Base        PriceOffer                  `json:"base"`
	Offers      map[AccountType]*PriceOffer `json:"offers,omitempty"`
}

// Price resolves the amount charged for an account type. A configured variant wins;
// the base offer is used only when the variant is absent or carries no amount.
func (p Plan) Price(accountType AccountType) (int64, error) {
	if offer, ok := p.Offers[accountType]; ok && offer != nil {
		if !offer.Enabled {
			return 0, ErrOfferUnavailable
		}
		if offer.Amount > 0 {
			return offer.Amount, nil
		}
	}
	if p.Base.Amount > 0 {
		return p.Base.Amount, nil
	}
	return 0, ErrNoPrice
}

// Validate checks that at least one account type resolves to a price and that every
// enabled variant can be charged.
func (p Plan) Validate() error {
	if p.ID == "" {
		return errors.New("plan id is required")
	}
	if p.Name == "" {
		return errors.New("plan name is required")
	}
	if p.Base.Amount < 0 {
		return errors.New("base price must not be negative")
	}
	resolvable := 0
	for _, t := range AccountTypes {
		offer := p.Offers[t]
		if offer != nil && offer.Amount < 0 {
			return errors.New("offer price must not be negative")
		}
		_, err := p.Price(t)
		switch {
		case err == nil:
			resolvable++
		case errors.Is(err, ErrOfferUnavailable):
		default:
			if offer != nil && offer.Enabled {
				return err
			}
		}
	}
	if resolvable == 0 {
		return ErrNoPrice
	}
	return nil
}
