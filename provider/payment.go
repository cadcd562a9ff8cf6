package provider

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Donation frequency values
const (
	FrequencyOnce    = "once"
	FrequencyMonthly = "monthly"
)

// Operating modes
const (
	ModeSandbox = "sandbox"
	ModeLive    = "live"
)

// VendorIDs holds the identifiers a provider assigns after confirmation.
type VendorIDs struct {
	CustomerID     string `json:"vendor_customer_id,omitempty"`
	TransactionID  string `json:"vendor_transaction_id,omitempty"`
	SubscriptionID string `json:"vendor_subscription_id,omitempty"`
}

// Donation is the canonical donation record. The json-tagged fields form
// the flattened record sent to webhooks, written to the audit log and
// substituted into emails; fields tagged "-" are internal and stripped by
// the finalizer's clean step.
type Donation struct {
	Form        string `json:"form"`
	Mode        string `json:"mode"`
	Language    string `json:"language,omitempty"`
	Time        string `json:"time"`
	Currency    string `json:"currency"`
	Amount      string `json:"amount"`
	Frequency   string `json:"frequency"`
	PaymentType string `json:"type"`
	Purpose     string `json:"purpose,omitempty"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	Zip         string `json:"zip,omitempty"`
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
	Comment     string `json:"comment,omitempty"`
	Anonymous   string `json:"anonymous,omitempty"`
	MailingList string `json:"mailinglist,omitempty"`
	TaxReceipt  string `json:"tax_receipt,omitempty"`
	Account     string `json:"account,omitempty"`
	Reference   string `json:"reference,omitempty"`

	VendorIDs

	// Internal state, never part of the flattened record.
	AmountCents    int64  `json:"-"`
	FlowID         string `json:"-"`
	CountryCode    string `json:"-"`
	AnonymousFlag  bool   `json:"-"`
	MailingFlag    bool   `json:"-"`
	TaxReceiptFlag bool   `json:"-"`
	Cleaned        bool   `json:"-"`
}

// DonationRequest carries the submitted form fields of one donation attempt.
type DonationRequest struct {
	Form        string `json:"form" validate:"required"`
	Mode        string `json:"mode" validate:"required,oneof=sandbox live"`
	Language    string `json:"language,omitempty"`
	Payment     string `json:"payment" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
	AmountOther string `json:"amount_other,omitempty"`
	Currency    string `json:"currency" validate:"required,len=3"`
	Frequency   string `json:"frequency" validate:"required,oneof=once monthly"`
	Email       string `json:"email" validate:"required,email"`
	Name        string `json:"name" validate:"required"`
	Address     string `json:"address,omitempty"`
	Zip         string `json:"zip,omitempty"`
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
	Purpose     string `json:"purpose,omitempty"`
	Comment     string `json:"comment,omitempty"`
	Anonymous   bool   `json:"anonymous,omitempty"`
	MailingList bool   `json:"mailinglist,omitempty"`
	TaxReceipt  bool   `json:"tax_receipt,omitempty"`
	Account     string `json:"account,omitempty"`

	// ConfirmEmail is a honey-pot. The rendered form hides it; a human
	// donor never fills it in.
	ConfirmEmail string `json:"confirm_email,omitempty"`

	// IdempotencyToken guards the synchronous providers against double
	// submission. Optional; redirect flows are guarded by the session
	// token instead.
	IdempotencyToken string `json:"idempotency_token,omitempty"`

	// Extra carries provider-specific fields such as the card token.
	Extra map[string]string `json:"extra,omitempty"`
}

// AmountCents parses the requested amount into minor units. When the amount
// select is set to "other" the free-text field carries the value.
func (r *DonationRequest) AmountCents() (int64, error) {
	raw := r.Amount
	if strings.EqualFold(raw, "other") {
		raw = r.AmountOther
	}
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, NewError(KindValidation, "Invalid amount")
	}
	if value <= 0 {
		return 0, NewError(KindValidation, "Amount must be positive")
	}
	if value > maxDonationAmount {
		return 0, NewError(KindValidation, "Amount is too large")
	}

	return int64(math.Round(value * 100)), nil
}

// maxDonationAmount bounds the major-unit amount so the cent conversion
// stays well inside int64 range.
const maxDonationAmount = 1e11

// NewDonation builds the pending donation record from a validated request.
func NewDonation(r *DonationRequest, cents int64) *Donation {
	return &Donation{
		Form:           r.Form,
		Mode:           r.Mode,
		Language:       r.Language,
		Time:           time.Now().UTC().Format(time.RFC3339),
		Currency:       strings.ToUpper(r.Currency),
		Amount:         FormatAmount(cents),
		Frequency:      r.Frequency,
		PaymentType:    r.Payment,
		Purpose:        r.Purpose,
		Email:          r.Email,
		Name:           r.Name,
		Address:        r.Address,
		Zip:            r.Zip,
		City:           r.City,
		Comment:        r.Comment,
		Account:        r.Account,
		AmountCents:    cents,
		CountryCode:    strings.ToUpper(r.Country),
		AnonymousFlag:  r.Anonymous,
		MailingFlag:    r.MailingList,
		TaxReceiptFlag: r.TaxReceipt,
	}
}

// FormatAmount renders minor units as a major-unit decimal string.
func FormatAmount(cents int64) string {
	if cents%100 == 0 {
		return strconv.FormatInt(cents/100, 10)
	}
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
