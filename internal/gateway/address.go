package gateway

import "github.com/cassiomorais/cardgateway/internal/domain/order"

// FormatAddress maps an order's billing address into the provider's
// address shape. It returns nil when the order has no billing address;
// callers must then omit the address from the provider payload entirely
// rather than sending an empty object, which providers reject
// inconsistently. Country and State are filled only when the storefront
// resolved them.
func FormatAddress(ord *order.Order) *AddressOptions {
	if !ord.HasBillAddress() {
		return nil
	}

	addr := ord.BillAddress
	opts := &AddressOptions{
		Address1: addr.Address1,
		Address2: addr.Address2,
		City:     addr.City,
		Zip:      addr.Zip,
	}
	if addr.CountryName != "" {
		opts.Country = addr.CountryName
	}
	if addr.StateName != "" {
		opts.State = addr.StateName
	}
	return opts
}
