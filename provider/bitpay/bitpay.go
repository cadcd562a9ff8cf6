// Package bitpay implements the crypto invoice flow: an invoice is created
// and the donor pays it on the BitPay-hosted page; the confirm leg polls
// the invoice and accepts any paid-equivalent status.
package bitpay

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mstgnz/donate/infra/config"
	"github.com/mstgnz/donate/provider"
)

const providerName = "bitpay"

const (
	apiBaseLive    = "https://bitpay.com"
	apiBaseSandbox = "https://test.bitpay.com"
)

// paidStatuses are the invoice states that count as settled. An invoice
// reaches "paid" before full confirmation; the donation is accepted at
// that point and BitPay's own risk handling covers the rest.
var paidStatuses = map[string]bool{
	"paid":      true,
	"confirmed": true,
	"complete":  true,
}

// Adapter drives the BitPay invoice API.
type Adapter struct {
	client func(mode string) *provider.ProviderHTTPClient
}

// NewAdapter creates a new BitPay adapter
func NewAdapter() provider.PaymentAdapter {
	return &Adapter{
		client: func(mode string) *provider.ProviderHTTPClient {
			base := apiBaseSandbox
			if mode == provider.ModeLive {
				base = apiBaseLive
			}
			return provider.NewProviderHTTPClient(
				provider.CreateHTTPClientConfig(base, mode == provider.ModeLive, 30*time.Second))
		},
	}
}

func (a *Adapter) Name() string {
	return providerName
}

func (a *Adapter) RequiredConfig() []string {
	return config.RequiredAccountFields(providerName)
}

type invoiceResponse struct {
	Data struct {
		ID     string `json:"id"`
		URL    string `json:"url"`
		Status string `json:"status"`
	} `json:"data"`
	Error string `json:"error"`
}

// Initiate creates an invoice and sends the donor to its hosted page.
// Monthly donations are not supported by the invoice flow.
func (a *Adapter) Initiate(ctx context.Context, checkout *provider.CheckoutContext) (*provider.InitiateResult, error) {
	donation := checkout.Donation
	if donation.Frequency == provider.FrequencyMonthly {
		return nil, provider.NewError(provider.KindValidation, "Monthly donations are not supported for this payment method")
	}

	client := a.client(checkout.Mode)

	httpResp, err := client.SendJSON(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: "/invoices",
		Headers: map[string]string{
			"X-Accept-Version": "2.0.0",
		},
		Body: map[string]any{
			"token":             checkout.Account["pairing_code"],
			"price":             provider.FormatAmount(donation.AmountCents),
			"currency":          donation.Currency,
			"redirectURL":       checkout.ReturnURL,
			"notificationEmail": donation.Email,
			"posData":           donation.Form,
		},
	})
	if err != nil {
		return nil, err
	}

	var resp invoiceResponse
	if err := client.ParseJSONResponse(httpResp, &resp); err != nil {
		return nil, provider.WrapError(provider.KindUnavailable, "invalid BitPay response", err)
	}
	if resp.Error != "" {
		return nil, provider.NewError(provider.KindDeclined, resp.Error)
	}

	return &provider.InitiateResult{
		RedirectURL: resp.Data.URL,
		FlowID:      resp.Data.ID,
	}, nil
}

// Confirm fetches the invoice and checks it reached a paid-equivalent state.
func (a *Adapter) Confirm(ctx context.Context, confirm *provider.ConfirmContext) (*provider.ConfirmResult, error) {
	client := a.client(confirm.Mode)

	httpResp, err := client.SendRaw(ctx, &provider.HTTPRequest{
		Method:   http.MethodGet,
		Endpoint: "/invoices/" + confirm.FlowID,
		Headers: map[string]string{
			"X-Accept-Version": "2.0.0",
		},
		QueryParams: map[string]string{
			"token": confirm.Account["pairing_code"],
		},
	})
	if err != nil {
		return nil, err
	}

	var resp invoiceResponse
	if err := client.ParseJSONResponse(httpResp, &resp); err != nil {
		return nil, provider.WrapError(provider.KindUnavailable, "invalid BitPay response", err)
	}

	if !paidStatuses[resp.Data.Status] {
		return nil, provider.NewError(provider.KindDeclined,
			fmt.Sprintf("Invoice not paid (status %s)", resp.Data.Status))
	}

	result := &provider.ConfirmResult{}
	result.VendorIDs.TransactionID = resp.Data.ID
	return result, nil
}
