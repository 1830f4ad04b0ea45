package gateway

import "fmt"

// BusinessError is a provider-reported failure (card declined, invalid
// address). It is recoverable and safe to show to the user; the message
// comes from the provider response.
type BusinessError struct {
	Message string
}

func (e *BusinessError) Error() string {
	return e.Message
}

// ProfileConsistencyError reports a provider-contract violation: a
// successful Store response whose default card id matches none of the
// returned card records. It is surfaced distinctly from a decline so
// operators can tell provider bugs from user-facing failures.
type ProfileConsistencyError struct {
	CustomerID  string
	DefaultCard string
}

func (e *ProfileConsistencyError) Error() string {
	return fmt.Sprintf("customer profile %s references default card %q not present in card list", e.CustomerID, e.DefaultCard)
}
