package gateway

import (
	"context"

	"github.com/cassiomorais/cardgateway/internal/domain/order"
)

// CreateProfile registers the card with the provider and writes the
// resulting customer/card tokens back onto the local card record. The
// operation is idempotent at this layer: a card that already carries a
// customer profile id is never re-submitted.
//
// Brand normalization happens before the provider call and is kept even
// when the call fails; it is a local data-hygiene fix independent of the
// remote outcome. The profile fields themselves are written
// all-or-nothing: on any failure the card's profile ids stay untouched.
func (g *Gateway) CreateProfile(ctx context.Context, ord *order.Order, card *order.CreditCard) error {
	if card.HasCustomerProfile() {
		return nil
	}

	opts := Options{
		Email: ord.Email,
		Login: g.creds.SecretKey,
	}
	// Merge only adds the address; identity fields are never overwritten.
	opts.Address = FormatAddress(ord)

	card.Brand = NormalizeBrand(card.Brand)

	resp, err := g.provider.Store(ctx, card, opts)
	if err != nil {
		// Transport failure, propagated unchanged.
		return err
	}

	if !resp.Success {
		g.logger.Warn().Str("order", ord.Number).Str("message", resp.Message).Msg("profile creation declined")
		return &BusinessError{Message: resp.Message}
	}

	profile := resp.Profile
	active := findActiveCard(profile)
	if active == nil {
		g.logger.Error().Str("customer", profile.ID).Str("default_card", profile.DefaultCard).
			Msg("provider returned profile without matching default card")
		return &ProfileConsistencyError{CustomerID: profile.ID, DefaultCard: profile.DefaultCard}
	}

	applyProfileResult(card, profile.ID, active)
	g.logger.Info().Str("order", ord.Number).Str("customer", profile.ID).Str("card", active.ID).
		Msg("customer profile created")
	return nil
}

// findActiveCard locates the card record whose id equals the profile's
// default card id. A nil return is a data-consistency fault from the
// provider, not a lookup miss to be papered over.
func findActiveCard(profile *CustomerProfile) *CardRecord {
	if profile == nil {
		return nil
	}
	for i := range profile.Cards {
		if profile.Cards[i].ID == profile.DefaultCard {
			return &profile.Cards[i]
		}
	}
	return nil
}

// applyProfileResult writes the complete profile result onto the card in
// one step. Callers must have validated the response first so that a
// partial write is never observable.
func applyProfileResult(card *order.CreditCard, customerID string, active *CardRecord) {
	card.GatewayCustomerProfileID = customerID
	card.GatewayPaymentProfileID = active.ID
	card.Last4 = active.Last4
	card.ExpMonth = active.ExpMonth
	card.ExpYear = active.ExpYear
	card.Name = active.Name
}
