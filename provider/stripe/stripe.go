// Package stripe implements the synchronous card charge flow.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	stripeapi "github.com/stripe/stripe-go/v82"

	"github.com/mstgnz/donate/infra/config"
	"github.com/mstgnz/donate/provider"
)

const providerName = "stripe"

// Adapter charges cards through the Stripe API. The flow is synchronous:
// the card token arrives with the donation request and the charge (or
// subscription) completes inside Initiate.
type Adapter struct {
	newClient func(key string) *stripeapi.Client
}

// NewAdapter creates a new Stripe adapter
func NewAdapter() provider.PaymentAdapter {
	return &Adapter{
		newClient: func(key string) *stripeapi.Client {
			return stripeapi.NewClient(key)
		},
	}
}

func (a *Adapter) Name() string {
	return providerName
}

func (a *Adapter) RequiredConfig() []string {
	return config.RequiredAccountFields(providerName)
}

// Initiate creates a customer from the card token, then either a one-time
// charge or a monthly subscription on a per-amount plan.
func (a *Adapter) Initiate(ctx context.Context, checkout *provider.CheckoutContext) (*provider.InitiateResult, error) {
	token := checkout.Request.Extra["stripe_token"]
	if token == "" {
		return nil, provider.NewError(provider.KindValidation, "Missing card token")
	}

	donation := checkout.Donation
	sc := a.newClient(checkout.Account["secret_key"])

	customer, err := sc.V1Customers.Create(ctx, &stripeapi.CustomerCreateParams{
		Email:       stripeapi.String(donation.Email),
		Description: stripeapi.String(donation.Name),
		Source:      stripeapi.String(token),
	})
	if err != nil {
		return nil, mapStripeError(err)
	}

	result := &provider.InitiateResult{Completed: true}
	result.VendorIDs.CustomerID = customer.ID

	currency := strings.ToLower(donation.Currency)

	if donation.Frequency == provider.FrequencyMonthly {
		plan, err := a.findOrCreatePlan(ctx, sc, currency, donation.AmountCents)
		if err != nil {
			return nil, err
		}

		subscription, err := sc.V1Subscriptions.Create(ctx, &stripeapi.SubscriptionCreateParams{
			Customer: stripeapi.String(customer.ID),
			Items: []*stripeapi.SubscriptionCreateItemParams{
				{Plan: stripeapi.String(plan.ID)},
			},
		})
		if err != nil {
			return nil, mapStripeError(err)
		}
		result.VendorIDs.SubscriptionID = subscription.ID
		return result, nil
	}

	charge, err := sc.V1Charges.Create(ctx, &stripeapi.ChargeCreateParams{
		Amount:      stripeapi.Int64(donation.AmountCents),
		Currency:    stripeapi.String(currency),
		Customer:    stripeapi.String(customer.ID),
		Description: stripeapi.String(fmt.Sprintf("Donation %s", donation.Form)),
	})
	if err != nil {
		return nil, mapStripeError(err)
	}
	result.VendorIDs.TransactionID = charge.ID

	return result, nil
}

// Confirm is never reached for the synchronous card flow.
func (a *Adapter) Confirm(ctx context.Context, confirm *provider.ConfirmContext) (*provider.ConfirmResult, error) {
	return nil, provider.NewError(provider.KindReplay, "No matching donation in progress")
}

// findOrCreatePlan looks up the per-currency-and-amount monthly plan,
// creating it on first use. Plan IDs are deterministic so concurrent
// donors converge on the same plan.
func (a *Adapter) findOrCreatePlan(ctx context.Context, sc *stripeapi.Client, currency string, cents int64) (*stripeapi.Plan, error) {
	planID := fmt.Sprintf("donation-month-%s-%s", currency, provider.FormatAmount(cents))

	plan, err := sc.V1Plans.Retrieve(ctx, planID, nil)
	if err == nil {
		return plan, nil
	}
	if !isMissingResource(err) {
		return nil, mapStripeError(err)
	}

	plan, err = sc.V1Plans.Create(ctx, &stripeapi.PlanCreateParams{
		ID:       stripeapi.String(planID),
		Amount:   stripeapi.Int64(cents),
		Currency: stripeapi.String(currency),
		Interval: stripeapi.String(string(stripeapi.PlanIntervalMonth)),
		Product: &stripeapi.PlanCreateProductParams{
			Name: stripeapi.String(fmt.Sprintf("Monthly donation (%s %s)", strings.ToUpper(currency), provider.FormatAmount(cents))),
		},
	})
	if err != nil {
		return nil, mapStripeError(err)
	}
	return plan, nil
}

func isMissingResource(err error) bool {
	var stripeErr *stripeapi.Error
	return errors.As(err, &stripeErr) && stripeErr.Code == stripeapi.ErrorCodeResourceMissing
}

// mapStripeError converts Stripe errors to the flow taxonomy. Card errors
// carry the provider's own message since it is useful to the donor.
func mapStripeError(err error) error {
	var stripeErr *stripeapi.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.Type == stripeapi.ErrorTypeCard {
			return provider.WrapError(provider.KindDeclined, stripeErr.Msg, err)
		}
		return provider.WrapError(provider.KindUnavailable, "Stripe request failed", err)
	}
	return provider.WrapError(provider.KindUnavailable, "Stripe unreachable", err)
}
