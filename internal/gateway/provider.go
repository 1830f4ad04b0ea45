package gateway

import (
	"context"

	"github.com/cassiomorais/cardgateway/internal/domain/order"
)

// Provider is the external card-processing service. Implementations own
// the wire format, request signing, retries and timeouts; business
// declines come back as a Response with Success == false, while
// network/auth/serialization failures are returned as errors.
type Provider interface {
	Purchase(ctx context.Context, amount int64, source CardSource, opts Options) (*Response, error)
	Authorize(ctx context.Context, amount int64, source CardSource, opts Options) (*Response, error)
	Capture(ctx context.Context, amount int64, responseCode string, opts Options) (*Response, error)
	Refund(ctx context.Context, amount int64, responseCode string, opts Options) (*Response, error)
	Void(ctx context.Context, responseCode string, opts Options) (*Response, error)
	Store(ctx context.Context, card *order.CreditCard, opts Options) (*Response, error)
}

// CardSource is the card argument of a charge: either a stored-card
// token or the raw card record, never both. When Token is set the raw
// card must not be sent to the provider.
type CardSource struct {
	Token string
	Card  *order.CreditCard
}

// TokenSource returns a CardSource referencing a stored payment profile.
func TokenSource(token string) CardSource {
	return CardSource{Token: token}
}

// RawCardSource returns a CardSource carrying raw card data.
func RawCardSource(card *order.CreditCard) CardSource {
	return CardSource{Card: card}
}

// Options carries the auxiliary fields of a provider call. Zero-valued
// fields are omitted from the outgoing request; Address nil means the
// request carries no address at all, not an empty one.
type Options struct {
	Email       string
	Login       string
	Description string
	Currency    string
	Customer    string
	Address     *AddressOptions
}

// AddressOptions is the provider's flat address shape. Address1,
// Address2, City and Zip are always sent, even when empty; Country and
// State are sent only when non-empty because the provider validates
// them more strictly than street fields.
type AddressOptions struct {
	Address1 string
	Address2 string
	City     string
	Zip      string
	Country  string
	State    string
}

// Response is the provider's answer to any call. Profile is populated
// only by Store.
type Response struct {
	Success       bool
	Message       string
	TransactionID string
	Profile       *CustomerProfile
}

// CustomerProfile is the structured payload of a successful Store call:
// the new customer id, the id of its default card, and every card record
// the provider holds for the customer.
type CustomerProfile struct {
	ID          string
	DefaultCard string
	Cards       []CardRecord
}

// CardRecord is one card entry inside a customer profile.
type CardRecord struct {
	ID       string
	Brand    string
	Last4    string
	ExpMonth int
	ExpYear  int
	Name     string
}
