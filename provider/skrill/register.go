package skrill

import "github.com/mstgnz/donate/provider"

// Register Skrill adapter with the gateway registry
func init() {
	provider.Register("skrill", NewAdapter)
}
