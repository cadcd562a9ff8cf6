package provider

import (
	"context"

	"github.com/mstgnz/donate/infra/config"
)

// CheckoutContext carries everything an adapter needs to start a payment.
type CheckoutContext struct {
	Request  *DonationRequest
	Donation *Donation
	Account  config.Account
	Form     *config.FormConfig
	Mode     string

	// ReturnURL is the confirm endpoint for this provider, already
	// carrying the session request token. Empty for synchronous flows.
	ReturnURL string

	ClientIP string
}

// ConfirmContext carries the rehydrated donation and the provider's
// callback parameters for the second leg of a redirect flow.
type ConfirmContext struct {
	Donation *Donation
	Account  config.Account
	Form     *config.FormConfig
	Mode     string

	// FlowID is the provider correlation id stored at Initiate time.
	FlowID string

	// Params are the query/form parameters of the provider's return call.
	Params map[string]string
}

// InitiateResult is the outcome of an adapter's first leg.
type InitiateResult struct {
	// Completed is true for synchronous providers: the payment is done
	// and the finalizer runs inline.
	Completed bool

	// Reference is the bank transfer reference number, when applicable.
	Reference string

	// RedirectURL sends the donor to the provider's hosted page.
	RedirectURL string

	// FlowID is the provider correlation id to stash for the confirm leg.
	FlowID string

	// PaymentID is a provider payment identifier returned to the client
	// when its SDK drives the redirect itself.
	PaymentID string

	VendorIDs VendorIDs
}

// ConfirmResult is the outcome of an adapter's confirm leg.
type ConfirmResult struct {
	VendorIDs VendorIDs
}

// PaymentAdapter is the contract every payment provider implements.
// Synchronous providers complete inside Initiate; redirect providers
// return a RedirectURL and finish inside Confirm.
type PaymentAdapter interface {
	// Name returns the provider key used in settings and routing.
	Name() string

	// RequiredConfig returns the credential fields a complete account
	// bundle must carry for this provider.
	RequiredConfig() []string

	// Initiate starts the payment.
	Initiate(ctx context.Context, checkout *CheckoutContext) (*InitiateResult, error)

	// Confirm settles a redirect flow after the donor returns. Synchronous
	// providers return a replay error.
	Confirm(ctx context.Context, confirm *ConfirmContext) (*ConfirmResult, error)
}

// AdapterFactory is a function type that creates a new PaymentAdapter
type AdapterFactory func() PaymentAdapter
