package order

import (
	"time"

	"github.com/google/uuid"
)

// CreditCard is the locally stored card record. Number and VerificationValue
// are only populated while a card is being tokenized; once the provider
// profile ids are set, charges use the payment profile token and raw card
// data is never sent again.
type CreditCard struct {
	ID                uuid.UUID
	OrderID           uuid.UUID
	Brand             string
	Last4             string
	ExpMonth          int
	ExpYear           int
	Name              string
	Number            string
	VerificationValue string

	// Provider-issued tokens. A non-empty customer profile id marks the
	// card as already registered with the provider.
	GatewayCustomerProfileID string
	GatewayPaymentProfileID  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasCustomerProfile reports whether the card is already registered with
// the provider.
func (c *CreditCard) HasCustomerProfile() bool {
	return c.GatewayCustomerProfileID != ""
}

// HasPaymentProfile reports whether a stored-card token exists for charges.
func (c *CreditCard) HasPaymentProfile() bool {
	return c.GatewayPaymentProfileID != ""
}
