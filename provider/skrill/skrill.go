// Package skrill implements the e-wallet hosted payment flow: a prepare
// call yields a session id, the donor pays on the Skrill page and returns
// with the transaction id.
package skrill

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mstgnz/donate/infra/config"
	"github.com/mstgnz/donate/provider"
)

const providerName = "skrill"

const payURL = "https://pay.skrill.com"

// Adapter drives the Skrill Quick Checkout API. Skrill has no separate
// sandbox host; test merchant accounts behave as sandbox.
type Adapter struct {
	client func(mode string) *provider.ProviderHTTPClient
}

// NewAdapter creates a new Skrill adapter
func NewAdapter() provider.PaymentAdapter {
	return &Adapter{
		client: func(mode string) *provider.ProviderHTTPClient {
			return provider.NewProviderHTTPClient(
				provider.CreateHTTPClientConfig(payURL, mode == provider.ModeLive, 30*time.Second))
		},
	}
}

func (a *Adapter) Name() string {
	return providerName
}

func (a *Adapter) RequiredConfig() []string {
	return config.RequiredAccountFields(providerName)
}

// Initiate prepares a checkout session and returns the hosted page URL.
// Monthly donations use Skrill's recurring billing fields on the same call.
func (a *Adapter) Initiate(ctx context.Context, checkout *provider.CheckoutContext) (*provider.InitiateResult, error) {
	donation := checkout.Donation
	client := a.client(checkout.Mode)

	form := map[string]string{
		"prepare_only":        "1",
		"pay_to_email":        checkout.Account["merchant_account"],
		"amount":              provider.FormatAmount(donation.AmountCents),
		"currency":            donation.Currency,
		"language":            strings.ToUpper(donation.Language),
		"pay_from_email":      donation.Email,
		"firstname":           donation.Name,
		"detail1_description": "Donation:",
		"detail1_text":        donation.Form,
		"return_url":          checkout.ReturnURL,
		"cancel_url":          checkout.ReturnURL + "&cancel=1",
		"transaction_id":      sessionID(donation),
	}

	if donation.Frequency == provider.FrequencyMonthly {
		form["rec_amount"] = provider.FormatAmount(donation.AmountCents)
		form["rec_period"] = "1"
		form["rec_cycle"] = "month"
	}

	httpResp, err := client.SendForm(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: "/",
		FormData: form,
	})
	if err != nil {
		return nil, err
	}

	sid := strings.TrimSpace(httpResp.RawBody)
	if sid == "" {
		return nil, provider.NewError(provider.KindUnavailable, "Skrill did not return a session id")
	}

	return &provider.InitiateResult{
		RedirectURL: payURL + "/?sid=" + sid,
		FlowID:      sessionID(donation),
	}, nil
}

// Confirm accepts the donor's return from the Skrill page. Skrill settles
// asynchronously through its status URL; the return leg only proves the
// donor completed the checkout, so the session transaction id is recorded
// as the vendor reference.
func (a *Adapter) Confirm(ctx context.Context, confirm *provider.ConfirmContext) (*provider.ConfirmResult, error) {
	if confirm.Params["cancel"] != "" {
		return nil, provider.NewError(provider.KindDeclined, "Payment was cancelled")
	}

	result := &provider.ConfirmResult{}
	result.VendorIDs.TransactionID = confirm.FlowID
	if confirm.Donation.Frequency == provider.FrequencyMonthly {
		result.VendorIDs.SubscriptionID = confirm.FlowID
	}
	return result, nil
}

// sessionID derives a stable per-donation transaction id for Skrill.
func sessionID(donation *provider.Donation) string {
	return "donate-" + donation.Form + "-" + donation.Time
}
