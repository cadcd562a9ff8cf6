// Package paypal implements the redirect flow against the PayPal Adaptive
// Payments API: a Pay (or Preapproval, for monthly donations) call yields a
// key, the donor approves it on the PayPal page and the confirm leg checks
// the resulting status.
package paypal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mstgnz/donate/infra/config"
	"github.com/mstgnz/donate/provider"
)

const providerName = "paypal"

const (
	apiBaseLive    = "https://svcs.paypal.com"
	apiBaseSandbox = "https://svcs.sandbox.paypal.com"

	approveBaseLive    = "https://www.paypal.com/cgi-bin/webscr"
	approveBaseSandbox = "https://www.sandbox.paypal.com/cgi-bin/webscr"
)

// Adapter drives PayPal Adaptive Payments.
type Adapter struct {
	client func(mode string) *provider.ProviderHTTPClient
}

// NewAdapter creates a new PayPal adapter
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

type responseEnvelope struct {
	Ack string `json:"ack"`
}

type payResponse struct {
	ResponseEnvelope responseEnvelope `json:"responseEnvelope"`
	PayKey           string           `json:"payKey"`
	PreapprovalKey   string           `json:"preapprovalKey"`
	PaymentExecState string           `json:"paymentExecStatus"`
	Error            []struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Initiate creates a Pay request (or a monthly Preapproval) and returns
// the PayPal approval URL.
func (a *Adapter) Initiate(ctx context.Context, checkout *provider.CheckoutContext) (*provider.InitiateResult, error) {
	donation := checkout.Donation
	amount := provider.FormatAmount(donation.AmountCents)

	var endpoint string
	var body map[string]any
	if donation.Frequency == provider.FrequencyMonthly {
		endpoint = "/AdaptivePayments/Preapproval"
		body = map[string]any{
			"requestEnvelope":     map[string]string{"errorLanguage": "en_US"},
			"currencyCode":        donation.Currency,
			"startingDate":        time.Now().UTC().Format(time.RFC3339),
			"maxAmountPerPayment": amount,
			"returnUrl":           checkout.ReturnURL,
			"cancelUrl":           checkout.ReturnURL + "&cancel=1",
		}
	} else {
		endpoint = "/AdaptivePayments/Pay"
		body = map[string]any{
			"requestEnvelope": map[string]string{"errorLanguage": "en_US"},
			"actionType":      "PAY",
			"currencyCode":    donation.Currency,
			"receiverList": map[string]any{
				"receiver": []map[string]string{
					{"amount": amount, "email": checkout.Account["email_id"]},
				},
			},
			"returnUrl": checkout.ReturnURL,
			"cancelUrl": checkout.ReturnURL + "&cancel=1",
		}
	}

	resp, err := a.call(ctx, checkout.Account, checkout.Mode, endpoint, body)
	if err != nil {
		return nil, err
	}

	approveBase := approveBaseSandbox
	if checkout.Mode == provider.ModeLive {
		approveBase = approveBaseLive
	}

	if donation.Frequency == provider.FrequencyMonthly {
		return &provider.InitiateResult{
			RedirectURL: fmt.Sprintf("%s?cmd=_ap-preapproval&preapprovalkey=%s", approveBase, resp.PreapprovalKey),
			FlowID:      resp.PreapprovalKey,
		}, nil
	}

	return &provider.InitiateResult{
		RedirectURL: fmt.Sprintf("%s?cmd=_ap-payment&paykey=%s", approveBase, resp.PayKey),
		FlowID:      resp.PayKey,
		PaymentID:   resp.PayKey,
	}, nil
}

// Confirm checks that the donor approved the key on the PayPal side.
func (a *Adapter) Confirm(ctx context.Context, confirm *provider.ConfirmContext) (*provider.ConfirmResult, error) {
	if confirm.Params["cancel"] != "" {
		return nil, provider.NewError(provider.KindDeclined, "Payment was cancelled")
	}

	if confirm.Donation.Frequency == provider.FrequencyMonthly {
		body := map[string]any{
			"requestEnvelope": map[string]string{"errorLanguage": "en_US"},
			"preapprovalKey":  confirm.FlowID,
		}
		// The Ack check inside call is the approval signal for preapprovals.
		if _, err := a.call(ctx, confirm.Account, confirm.Mode, "/AdaptivePayments/PreapprovalDetails", body); err != nil {
			return nil, err
		}
		result := &provider.ConfirmResult{}
		result.VendorIDs.SubscriptionID = confirm.FlowID
		return result, nil
	}

	body := map[string]any{
		"requestEnvelope": map[string]string{"errorLanguage": "en_US"},
		"payKey":          confirm.FlowID,
	}
	resp, err := a.call(ctx, confirm.Account, confirm.Mode, "/AdaptivePayments/PaymentDetails", body)
	if err != nil {
		return nil, err
	}

	if resp.PaymentExecState != "COMPLETED" {
		return nil, provider.NewError(provider.KindDeclined,
			fmt.Sprintf("Payment not completed (status %s)", resp.PaymentExecState))
	}

	result := &provider.ConfirmResult{}
	result.VendorIDs.TransactionID = confirm.FlowID
	return result, nil
}

func (a *Adapter) call(ctx context.Context, account config.Account, mode, endpoint string, body map[string]any) (*payResponse, error) {
	client := a.client(mode)

	httpResp, err := client.SendJSON(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: endpoint,
		Headers: map[string]string{
			"X-PAYPAL-SECURITY-USERID":      account["api_username"],
			"X-PAYPAL-SECURITY-PASSWORD":    account["api_password"],
			"X-PAYPAL-SECURITY-SIGNATURE":   account["api_signature"],
			"X-PAYPAL-APPLICATION-ID":       account["application_id"],
			"X-PAYPAL-REQUEST-DATA-FORMAT":  "JSON",
			"X-PAYPAL-RESPONSE-DATA-FORMAT": "JSON",
		},
		Body: body,
	})
	if err != nil {
		return nil, err
	}

	var resp payResponse
	if err := client.ParseJSONResponse(httpResp, &resp); err != nil {
		return nil, provider.WrapError(provider.KindUnavailable, "invalid PayPal response", err)
	}

	if resp.ResponseEnvelope.Ack != "Success" {
		message := "PayPal request failed"
		if len(resp.Error) > 0 {
			message = resp.Error[0].Message
		}
		return nil, provider.NewError(provider.KindDeclined, message)
	}

	return &resp, nil
}
