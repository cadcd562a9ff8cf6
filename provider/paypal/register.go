package paypal

import "github.com/mstgnz/donate/provider"

// Register PayPal adapter with the gateway registry
func init() {
	provider.Register("paypal", NewAdapter)
}
