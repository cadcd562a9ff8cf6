package gocardless

import "github.com/mstgnz/donate/provider"

// Register GoCardless adapter with the gateway registry
func init() {
	provider.Register("gocardless", NewAdapter)
}
