package gateway

import (
	"testing"

	"github.com/cassiomorais/cardgateway/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderWithAddress(addr *order.Address) *order.Order {
	return &order.Order{Number: "R1", Email: "a@b.c", BillAddress: addr}
}

func TestFormatAddress_NoBillAddress(t *testing.T) {
	got := FormatAddress(orderWithAddress(nil))
	assert.Nil(t, got, "orders without a bill address must produce no address at all")
}

func TestFormatAddress_Complete(t *testing.T) {
	got := FormatAddress(orderWithAddress(&order.Address{
		Address1:    "10 Lovely Street",
		Address2:    "Northwest",
		City:        "Herndon",
		Zip:         "20170",
		StateName:   "Virginia",
		CountryName: "United States",
	}))

	require.NotNil(t, got)
	assert.Equal(t, &AddressOptions{
		Address1: "10 Lovely Street",
		Address2: "Northwest",
		City:     "Herndon",
		Zip:      "20170",
		Country:  "United States",
		State:    "Virginia",
	}, got)
}

func TestFormatAddress_UnresolvableCountryAndState(t *testing.T) {
	got := FormatAddress(orderWithAddress(&order.Address{
		Address1: "10 Lovely Street",
		City:     "Herndon",
		Zip:      "20170",
	}))

	require.NotNil(t, got)
	// Street fields are always present, even when empty.
	assert.Equal(t, "10 Lovely Street", got.Address1)
	assert.Equal(t, "", got.Address2)
	assert.Equal(t, "Herndon", got.City)
	assert.Equal(t, "20170", got.Zip)
	// Country and state are omitted exactly when unresolvable.
	assert.Empty(t, got.Country)
	assert.Empty(t, got.State)
}

func TestFormatAddress_OnlyStateResolvable(t *testing.T) {
	got := FormatAddress(orderWithAddress(&order.Address{
		Address1:  "10 Lovely Street",
		City:      "Herndon",
		Zip:       "20170",
		StateName: "Virginia",
	}))

	require.NotNil(t, got)
	assert.Equal(t, "Virginia", got.State)
	assert.Empty(t, got.Country)
}
