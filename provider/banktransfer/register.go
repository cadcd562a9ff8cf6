package banktransfer

import "github.com/mstgnz/donate/provider"

// Register bank transfer adapter with the gateway registry
func init() {
	provider.Register("banktransfer", NewAdapter)
}
