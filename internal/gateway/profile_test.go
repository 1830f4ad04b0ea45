package gateway_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cassiomorais/cardgateway/internal/domain/order"
	"github.com/cassiomorais/cardgateway/internal/gateway"
	"github.com/cassiomorais/cardgateway/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(p gateway.Provider) *gateway.Gateway {
	return gateway.New(p, gateway.Credentials{SecretKey: "sk_test_secret", PublishableKey: "pk_test"}, zerolog.Nop())
}

func storeResponse() *gateway.Response {
	return &gateway.Response{
		Success: true,
		Profile: &gateway.CustomerProfile{
			ID:          "cus_FOO",
			DefaultCard: "card_BAR",
			Cards: []gateway.CardRecord{
				{ID: "card_OTHER", Brand: "visa", Last4: "1111", ExpMonth: 6, ExpYear: 2028, Name: "Someone Else"},
				{ID: "card_BAR", Brand: "visa", Last4: "4242", ExpMonth: 1, ExpYear: 2019, Name: "Mister Spree"},
			},
		},
	}
}

func TestCreateProfile_Success_AppliesActiveCard(t *testing.T) {
	provider := testutil.NewStubProvider()
	provider.StoreFunc = func(_ context.Context, _ *order.CreditCard, _ gateway.Options) (*gateway.Response, error) {
		return storeResponse(), nil
	}
	gw := newGateway(provider)

	ord := testutil.NewTestOrder()
	card := testutil.NewTestCard(ord.ID)

	err := gw.CreateProfile(context.Background(), ord, card)
	require.NoError(t, err)

	assert.Equal(t, "cus_FOO", card.GatewayCustomerProfileID)
	assert.Equal(t, "card_BAR", card.GatewayPaymentProfileID)
	assert.Equal(t, "4242", card.Last4)
	assert.Equal(t, 1, card.ExpMonth)
	assert.Equal(t, 2019, card.ExpYear)
	assert.Equal(t, "Mister Spree", card.Name)
	assert.Equal(t, "visa", card.Brand, "brand is normalized before the provider call")
}

func TestCreateProfile_IdempotentSkip(t *testing.T) {
	provider := testutil.NewStubProvider()
	gw := newGateway(provider)

	ord := testutil.NewTestOrder()
	card := testutil.NewTokenizedCard(ord.ID)

	err := gw.CreateProfile(context.Background(), ord, card)
	require.NoError(t, err)
	assert.Empty(t, provider.Calls(), "a card with a customer profile must not be re-submitted")
}

func TestCreateProfile_OptionsCarryEmailLoginAndAddress(t *testing.T) {
	provider := testutil.NewStubProvider()
	provider.StoreFunc = func(_ context.Context, _ *order.CreditCard, _ gateway.Options) (*gateway.Response, error) {
		return storeResponse(), nil
	}
	gw := newGateway(provider)

	ord := testutil.NewTestOrder()
	card := testutil.NewTestCard(ord.ID)
	require.NoError(t, gw.CreateProfile(context.Background(), ord, card))

	call := provider.LastCall()
	require.NotNil(t, call)
	assert.Equal(t, "store", call.Op)
	assert.Equal(t, ord.Email, call.Options.Email)
	assert.Equal(t, "sk_test_secret", call.Options.Login)
	require.NotNil(t, call.Options.Address)
	assert.Equal(t, "Herndon", call.Options.Address.City)
}

func TestCreateProfile_NoBillAddress_OmitsAddress(t *testing.T) {
	provider := testutil.NewStubProvider()
	provider.StoreFunc = func(_ context.Context, _ *order.CreditCard, _ gateway.Options) (*gateway.Response, error) {
		return storeResponse(), nil
	}
	gw := newGateway(provider)

	ord := testutil.NewTestOrderWithoutAddress()
	card := testutil.NewTestCard(ord.ID)
	require.NoError(t, gw.CreateProfile(context.Background(), ord, card))

	call := provider.LastCall()
	require.NotNil(t, call)
	assert.Nil(t, call.Options.Address, "payload must carry no address key, not an empty object")
}

func TestCreateProfile_Declined_ReturnsBusinessError(t *testing.T) {
	provider := testutil.NewStubProvider()
	provider.StoreFunc = func(_ context.Context, _ *order.CreditCard, _ gateway.Options) (*gateway.Response, error) {
		return &gateway.Response{Success: false, Message: "Your card was declined."}, nil
	}
	gw := newGateway(provider)

	ord := testutil.NewTestOrder()
	card := testutil.NewTestCard(ord.ID)

	err := gw.CreateProfile(context.Background(), ord, card)
	var bizErr *gateway.BusinessError
	require.ErrorAs(t, err, &bizErr)
	assert.Equal(t, "Your card was declined.", bizErr.Message)

	// Profile ids stay untouched; the brand normalization is kept.
	assert.Empty(t, card.GatewayCustomerProfileID)
	assert.Empty(t, card.GatewayPaymentProfileID)
	assert.Equal(t, "visa", card.Brand)
}

func TestCreateProfile_TransportError_PassesThrough(t *testing.T) {
	transportErr := errors.New("connection reset by peer")
	provider := testutil.NewStubProvider()
	provider.StoreFunc = func(_ context.Context, _ *order.CreditCard, _ gateway.Options) (*gateway.Response, error) {
		return nil, transportErr
	}
	gw := newGateway(provider)

	ord := testutil.NewTestOrder()
	card := testutil.NewTestCard(ord.ID)

	err := gw.CreateProfile(context.Background(), ord, card)
	assert.ErrorIs(t, err, transportErr)
	assert.Empty(t, card.GatewayCustomerProfileID)
}

func TestCreateProfile_DefaultCardMismatch_ConsistencyError(t *testing.T) {
	provider := testutil.NewStubProvider()
	provider.StoreFunc = func(_ context.Context, _ *order.CreditCard, _ gateway.Options) (*gateway.Response, error) {
		resp := storeResponse()
		resp.Profile.DefaultCard = "card_MISSING"
		return resp, nil
	}
	gw := newGateway(provider)

	ord := testutil.NewTestOrder()
	card := testutil.NewTestCard(ord.ID)

	err := gw.CreateProfile(context.Background(), ord, card)
	var consErr *gateway.ProfileConsistencyError
	require.ErrorAs(t, err, &consErr)
	assert.Equal(t, "cus_FOO", consErr.CustomerID)
	assert.Equal(t, "card_MISSING", consErr.DefaultCard)

	// No partial write.
	assert.Empty(t, card.GatewayCustomerProfileID)
	assert.Empty(t, card.GatewayPaymentProfileID)
	assert.Equal(t, "4242", card.Last4)
}
