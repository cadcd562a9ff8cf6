package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mstgnz/donate/infra/config"
)

// SessionStore keeps in-flight donations between the two legs of a
// redirect flow and remembers idempotency tokens for synchronous flows.
type SessionStore interface {
	Stash(cookie, token string, donation *Donation)
	Take(cookie, token string) (*Donation, string, error)
	Drop(cookie string)
	Seen(token string) bool
	MarkSeen(token string)
}

// InitiateOutcome is what the donation endpoints return to the client.
type InitiateOutcome struct {
	Completed   bool
	Reference   string
	RedirectURL string
	Token       string
	PaymentID   string
}

// DonationService orchestrates the donation flow: settings resolution,
// credential lookup, adapter calls, session handling and finalization.
type DonationService struct {
	forms     *config.Store
	sessions  SessionStore
	finalizer *Finalizer
	registry  *AdapterRegistry
	flowLog   FlowLogger
	baseURL   string
}

// NewDonationService creates the service. A nil flowLog disables flow
// logging; a nil registry uses the default registry.
func NewDonationService(forms *config.Store, sessions SessionStore, finalizer *Finalizer, registry *AdapterRegistry, flowLog FlowLogger, baseURL string) *DonationService {
	if registry == nil {
		registry = DefaultRegistry
	}
	if flowLog == nil {
		flowLog = NoopFlowLogger{}
	}
	return &DonationService{
		forms:     forms,
		sessions:  sessions,
		finalizer: finalizer,
		registry:  registry,
		flowLog:   flowLog,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// Initiate starts a donation. Synchronous providers finish inside this
// call, including the finalizer; redirect providers stash the pending
// donation and return the URL the donor must visit.
func (s *DonationService) Initiate(ctx context.Context, cookie string, req *DonationRequest, clientIP string) (*InitiateOutcome, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	cents, err := req.AmountCents()
	if err != nil {
		return nil, err
	}

	form, err := s.forms.LoadForm(req.Form)
	if err != nil {
		return nil, mapConfigError(err)
	}

	account, err := config.ResolveAccount(form, req.Payment, req.Mode, req.TaxReceipt, req.Currency, req.Country)
	if err != nil {
		return nil, mapConfigError(err)
	}

	adapter, err := s.registry.CreateAdapter(req.Payment)
	if err != nil {
		return nil, err
	}

	if req.IdempotencyToken != "" && s.sessions.Seen(req.IdempotencyToken) {
		return nil, NewError(KindReplay, "Duplicate submission")
	}

	donation := NewDonation(req, cents)
	if donation.Language == "" {
		donation.Language = form.Language
	}

	token := uuid.New().String()
	checkout := &CheckoutContext{
		Request:   req,
		Donation:  donation,
		Account:   account,
		Form:      form,
		Mode:      req.Mode,
		ReturnURL: fmt.Sprintf("%s/v1/confirm/%s?req=%s", s.baseURL, adapter.Name(), token),
		ClientIP:  clientIP,
	}

	result, err := adapter.Initiate(ctx, checkout)
	if err != nil {
		s.flowLog.LogStage(ctx, "initiate", donation, err)
		return nil, err
	}

	if result.Completed {
		donation.Reference = result.Reference
		donation.VendorIDs = result.VendorIDs
		// The token is recorded only now: a declined attempt may be
		// retried with the same token, a completed one may not.
		s.sessions.MarkSeen(req.IdempotencyToken)
		s.flowLog.LogStage(ctx, "initiate", donation, nil)
		s.finalizer.Finalize(ctx, donation, form)
		return &InitiateOutcome{Completed: true, Reference: result.Reference}, nil
	}

	donation.FlowID = result.FlowID
	s.sessions.Stash(cookie, token, donation)
	s.flowLog.LogStage(ctx, "initiate", donation, nil)

	return &InitiateOutcome{
		RedirectURL: result.RedirectURL,
		Token:       token,
		PaymentID:   result.PaymentID,
	}, nil
}

// Confirm settles the second leg of a redirect flow. The request token is
// verified and rotated before anything else; a mismatch means a replayed
// or stray confirm call and the flow stops there.
func (s *DonationService) Confirm(ctx context.Context, cookie, providerName, reqToken string, params map[string]string) (*Donation, error) {
	donation, _, err := s.sessions.Take(cookie, reqToken)
	if err != nil {
		return nil, NewError(KindReplay, "No matching donation in progress")
	}

	if donation.PaymentType != providerName {
		return nil, NewError(KindReplay, "No matching donation in progress")
	}

	form, err := s.forms.LoadForm(donation.Form)
	if err != nil {
		return nil, mapConfigError(err)
	}

	account, err := config.ResolveAccount(form, donation.PaymentType, donation.Mode,
		donation.TaxReceiptFlag, donation.Currency, donation.CountryCode)
	if err != nil {
		return nil, mapConfigError(err)
	}

	adapter, err := s.registry.CreateAdapter(providerName)
	if err != nil {
		return nil, err
	}

	result, err := adapter.Confirm(ctx, &ConfirmContext{
		Donation: donation,
		Account:  account,
		Form:     form,
		Mode:     donation.Mode,
		FlowID:   donation.FlowID,
		Params:   params,
	})
	if err != nil {
		s.flowLog.LogStage(ctx, "confirm", donation, err)
		return nil, err
	}

	donation.VendorIDs = result.VendorIDs
	s.flowLog.LogStage(ctx, "confirm", donation, nil)
	s.finalizer.Finalize(ctx, donation, form)
	s.sessions.Drop(cookie)

	return donation, nil
}

// Forms exposes the settings store for the read-only endpoints.
func (s *DonationService) Forms() *config.Store {
	return s.forms
}

// mapConfigError converts settings-layer errors to the config kind so the
// handler boundary shows the donor a generic message while the detail is
// kept for logs.
func mapConfigError(err error) error {
	var accErr *config.AccountError
	if errors.As(err, &accErr) {
		return WrapError(KindConfig, "No valid payment settings", err)
	}
	if errors.Is(err, config.ErrFormNotFound) || errors.Is(err, config.ErrCircularInheritance) {
		return WrapError(KindConfig, "Form configuration error", err)
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return WrapError(KindConfig, "Configuration error", err)
}
