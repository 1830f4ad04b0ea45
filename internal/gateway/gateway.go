package gateway

import (
	"context"

	"github.com/cassiomorais/cardgateway/internal/domain/order"
	"github.com/rs/zerolog"
)

// Credentials holds the provider credentials the adapter is constructed
// with. SecretKey doubles as the login field on profile creation.
type Credentials struct {
	SecretKey      string
	PublishableKey string
}

// RequestContext carries the per-request fields of a charge: the order
// the payment belongs to and the currency it is denominated in.
type RequestContext struct {
	OrderNumber string
	Currency    string
}

// Gateway translates the local payment model into provider calls. It is
// stateless and synchronous: every operation is a single blocking round
// trip through the injected Provider, with no retry, caching or timeout
// logic of its own.
type Gateway struct {
	provider Provider
	creds    Credentials
	logger   zerolog.Logger
}

// New creates a Gateway backed by the given provider.
func New(provider Provider, creds Credentials, logger zerolog.Logger) *Gateway {
	return &Gateway{
		provider: provider,
		creds:    creds,
		logger:   logger.With().Str("component", "gateway").Logger(),
	}
}

// Purchase charges the card immediately. The decimal amount is converted
// to minor units; the provider result passes through uninterpreted.
func (g *Gateway) Purchase(ctx context.Context, amount float64, card *order.CreditCard, rc RequestContext) (*Response, error) {
	source, opts := g.chargeArguments(card, rc)
	g.logger.Debug().Str("order", rc.OrderNumber).Int64("amount_cents", ToMinorUnits(amount)).Msg("dispatching purchase")
	return g.provider.Purchase(ctx, ToMinorUnits(amount), source, opts)
}

// Authorize places a hold on the card without capturing funds. Argument
// building is identical to Purchase.
func (g *Gateway) Authorize(ctx context.Context, amount float64, card *order.CreditCard, rc RequestContext) (*Response, error) {
	source, opts := g.chargeArguments(card, rc)
	g.logger.Debug().Str("order", rc.OrderNumber).Int64("amount_cents", ToMinorUnits(amount)).Msg("dispatching authorize")
	return g.provider.Authorize(ctx, ToMinorUnits(amount), source, opts)
}

// Capture settles a previous authorization. The amount is already in
// minor units at this entry point (capture replays the integer amount
// stored at authorization time) and is forwarded unchanged.
func (g *Gateway) Capture(ctx context.Context, amount int64, responseCode string, rc RequestContext) (*Response, error) {
	g.logger.Debug().Str("order", rc.OrderNumber).Str("response_code", responseCode).Msg("dispatching capture")
	return g.provider.Capture(ctx, amount, responseCode, Options{Currency: rc.Currency})
}

// Credit refunds a settled charge. Gateway options are not forwarded:
// refund requests carry no merchant metadata.
func (g *Gateway) Credit(ctx context.Context, amount int64, card *order.CreditCard, responseCode string, rc RequestContext) (*Response, error) {
	g.logger.Debug().Str("order", rc.OrderNumber).Str("response_code", responseCode).Msg("dispatching credit")
	return g.provider.Refund(ctx, amount, responseCode, Options{})
}

// Void cancels an uncaptured charge identified by its response code.
func (g *Gateway) Void(ctx context.Context, responseCode string, card *order.CreditCard, rc RequestContext) (*Response, error) {
	g.logger.Debug().Str("order", rc.OrderNumber).Str("response_code", responseCode).Msg("dispatching void")
	return g.provider.Void(ctx, responseCode, Options{})
}

// chargeArguments builds the (source, options) pair for purchase and
// authorize. A stored payment profile token substitutes the raw card:
// when a token exists, raw card fields are never sent. The customer
// profile id rides along as the customer option when present.
func (g *Gateway) chargeArguments(card *order.CreditCard, rc RequestContext) (CardSource, Options) {
	opts := Options{
		Description: "Order ID: " + rc.OrderNumber,
		Currency:    rc.Currency,
	}
	if card.HasCustomerProfile() {
		opts.Customer = card.GatewayCustomerProfileID
	}

	if card.HasPaymentProfile() {
		return TokenSource(card.GatewayPaymentProfileID), opts
	}
	return RawCardSource(card), opts
}
