package order

import (
	"time"

	"github.com/google/uuid"
)

// Order represents a checkout order from the storefront.
// The gateway only reads orders: it needs the number for charge
// descriptions and the email/billing address for profile creation.
type Order struct {
	ID          uuid.UUID
	Number      string
	Email       string
	Currency    string
	BillAddress *Address
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasBillAddress reports whether the order carries a billing address.
func (o *Order) HasBillAddress() bool {
	return o.BillAddress != nil
}

// Address is a billing address attached to an order. StateName and
// CountryName are empty when the storefront could not resolve them;
// street fields are always present, possibly empty.
type Address struct {
	ID          uuid.UUID
	Address1    string
	Address2    string
	City        string
	Zip         string
	StateName   string
	CountryName string
}
