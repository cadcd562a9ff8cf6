package bitpay

import "github.com/mstgnz/donate/provider"

// Register BitPay adapter with the gateway registry
func init() {
	provider.Register("bitpay", NewAdapter)
}
