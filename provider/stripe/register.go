package stripe

import "github.com/mstgnz/donate/provider"

// Register Stripe adapter with the gateway registry
func init() {
	provider.Register("stripe", NewAdapter)
}
