// Package gocardless implements the direct debit redirect flow: a redirect
// flow resource sends the donor to the GoCardless mandate pages, and the
// confirm leg completes the flow and creates the payment or subscription.
package gocardless

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mstgnz/donate/infra/config"
	"github.com/mstgnz/donate/provider"
)

const providerName = "gocardless"

const (
	apiBaseLive    = "https://api.gocardless.com"
	apiBaseSandbox = "https://api-sandbox.gocardless.com"

	apiVersion = "2015-07-06"
)

// Adapter drives the GoCardless Pro API.
type Adapter struct {
	client func(mode string) *provider.ProviderHTTPClient
	now    func() time.Time
}

// NewAdapter creates a new GoCardless adapter
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
		now: time.Now,
	}
}

func (a *Adapter) Name() string {
	return providerName
}

func (a *Adapter) RequiredConfig() []string {
	return config.RequiredAccountFields(providerName)
}

type redirectFlowResponse struct {
	RedirectFlows struct {
		ID          string `json:"id"`
		RedirectURL string `json:"redirect_url"`
		Links       struct {
			Customer string `json:"customer"`
			Mandate  string `json:"mandate"`
		} `json:"links"`
	} `json:"redirect_flows"`
}

type paymentResponse struct {
	Payments struct {
		ID string `json:"id"`
	} `json:"payments"`
}

type subscriptionResponse struct {
	Subscriptions struct {
		ID string `json:"id"`
	} `json:"subscriptions"`
}

// Initiate creates a redirect flow. The session token ties the confirm leg
// to this donor; the request token doubles as that value.
func (a *Adapter) Initiate(ctx context.Context, checkout *provider.CheckoutContext) (*provider.InitiateResult, error) {
	body := map[string]any{
		"redirect_flows": map[string]any{
			"description":          fmt.Sprintf("Donation %s", checkout.Donation.Form),
			"session_token":        sessionToken(checkout.Donation),
			"success_redirect_url": checkout.ReturnURL,
		},
	}

	var resp redirectFlowResponse
	if err := a.call(ctx, checkout.Account, checkout.Mode, "/redirect_flows", body, &resp); err != nil {
		return nil, err
	}

	return &provider.InitiateResult{
		RedirectURL: resp.RedirectFlows.RedirectURL,
		FlowID:      resp.RedirectFlows.ID,
	}, nil
}

// Confirm completes the redirect flow, then creates the one-off payment or
// the monthly subscription against the new mandate.
func (a *Adapter) Confirm(ctx context.Context, confirm *provider.ConfirmContext) (*provider.ConfirmResult, error) {
	donation := confirm.Donation

	body := map[string]any{
		"data": map[string]any{
			"session_token": sessionToken(donation),
		},
	}

	var flow redirectFlowResponse
	endpoint := fmt.Sprintf("/redirect_flows/%s/actions/complete", confirm.FlowID)
	if err := a.call(ctx, confirm.Account, confirm.Mode, endpoint, body, &flow); err != nil {
		return nil, err
	}

	mandate := flow.RedirectFlows.Links.Mandate
	result := &provider.ConfirmResult{}
	result.VendorIDs.CustomerID = flow.RedirectFlows.Links.Customer

	if donation.Frequency == provider.FrequencyMonthly {
		subBody := map[string]any{
			"subscriptions": map[string]any{
				"amount":        donation.AmountCents,
				"currency":      donation.Currency,
				"interval_unit": "monthly",
				"charge_date":   firstCollectionDate(a.now()).Format("2006-01-02"),
				"links":         map[string]string{"mandate": mandate},
				"metadata":      map[string]string{"form": donation.Form},
			},
		}
		var sub subscriptionResponse
		if err := a.call(ctx, confirm.Account, confirm.Mode, "/subscriptions", subBody, &sub); err != nil {
			return nil, err
		}
		result.VendorIDs.SubscriptionID = sub.Subscriptions.ID
		return result, nil
	}

	payBody := map[string]any{
		"payments": map[string]any{
			"amount":   donation.AmountCents,
			"currency": donation.Currency,
			"links":    map[string]string{"mandate": mandate},
			"metadata": map[string]string{"form": donation.Form},
		},
	}
	var payment paymentResponse
	if err := a.call(ctx, confirm.Account, confirm.Mode, "/payments", payBody, &payment); err != nil {
		return nil, err
	}
	result.VendorIDs.TransactionID = payment.Payments.ID
	return result, nil
}

func (a *Adapter) call(ctx context.Context, account config.Account, mode, endpoint string, body map[string]any, target any) error {
	client := a.client(mode)

	httpResp, err := client.SendJSON(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: endpoint,
		Headers: map[string]string{
			"Authorization":      "Bearer " + account["access_token"],
			"GoCardless-Version": apiVersion,
		},
		Body: body,
	})
	if err != nil {
		return err
	}

	if err := client.ParseJSONResponse(httpResp, target); err != nil {
		return provider.WrapError(provider.KindUnavailable, "invalid GoCardless response", err)
	}
	return nil
}

// sessionToken derives the flow's session token from the donation itself
// so both legs present the same value to GoCardless.
func sessionToken(donation *provider.Donation) string {
	return fmt.Sprintf("donate-%s-%s", donation.Form, donation.Time)
}

// firstCollectionDate is seven days out, except when that lands on the
// 29th to 31st: short months make those days unreliable, so the collection
// snaps to the 1st of the following month.
func firstCollectionDate(now time.Time) time.Time {
	date := now.AddDate(0, 0, 7)
	if date.Day() >= 29 {
		date = time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location()).AddDate(0, 1, 0)
	}
	return date
}
