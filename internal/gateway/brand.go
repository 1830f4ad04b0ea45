package gateway

// brandMapping maps the storefront's card brand labels to the provider's
// canonical identifiers. Brands the provider already understands (or that
// we have never seen) pass through unchanged.
var brandMapping = map[string]string{
	"American Express": "american_express",
	"Diners Club":      "diners_club",
	"Visa":             "visa",
}

// NormalizeBrand maps a local card-brand label to the provider's
// canonical identifier. Unknown input is valid input and is returned
// as-is; there is no error case.
func NormalizeBrand(rawBrand string) string {
	if canonical, ok := brandMapping[rawBrand]; ok {
		return canonical
	}
	return rawBrand
}
