package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/mstgnz/donate/infra/middle"
	"github.com/mstgnz/donate/infra/response"
	"github.com/mstgnz/donate/infra/session"
	"github.com/mstgnz/donate/provider"
)

// donorCookie correlates the two legs of a redirect flow. It is scoped to
// the API and carries no donor data, only a random id.
const donorCookie = "donate_flow"

// DonationServiceInterface defines the operations the donation handlers need
type DonationServiceInterface interface {
	Initiate(ctx context.Context, cookie string, req *provider.DonationRequest, clientIP string) (*provider.InitiateOutcome, error)
	Confirm(ctx context.Context, cookie, providerName, reqToken string, params map[string]string) (*provider.Donation, error)
}

// DonationHandler handles the donor-facing donation endpoints
type DonationHandler struct {
	service DonationServiceInterface
}

// NewDonationHandler creates a new donation handler
func NewDonationHandler(service DonationServiceInterface) *DonationHandler {
	return &DonationHandler{service: service}
}

// redirectProviders complete via the donor's return leg; they must use the
// redirect endpoint so the client receives the checkout URL.
var redirectProviders = map[string]bool{
	"paypal":     true,
	"gocardless": true,
	"bitpay":     true,
	"skrill":     true,
}

// Donate handles synchronous donations: the provider settles inside the
// request and the response carries the reference number.
func (h *DonationHandler) Donate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	if redirectProviders[req.Payment] {
		writeDonationError(w, provider.NewError(provider.KindValidation,
			"This payment method requires the redirect flow"))
		return
	}

	outcome, err := h.service.Initiate(ctx, flowCookie(w, r), req, middle.GetClientIP(r))
	if err != nil {
		writeDonationError(w, err)
		return
	}

	response.Success(w, response.DonationResult{Reference: outcome.Reference})
}

// Redirect handles redirect donations: the donation is stashed and the
// response tells the client where to send the donor.
func (h *DonationHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	outcome, err := h.service.Initiate(ctx, flowCookie(w, r), req, middle.GetClientIP(r))
	if err != nil {
		writeDonationError(w, err)
		return
	}

	if outcome.Completed {
		// Synchronous provider posted to the redirect endpoint; answer
		// with the reference the same way the donate endpoint would.
		response.Success(w, response.DonationResult{Reference: outcome.Reference})
		return
	}

	response.Success(w, response.DonationResult{
		URL:       outcome.RedirectURL,
		Token:     outcome.Token,
		PaymentID: outcome.PaymentID,
	})
}

func (h *DonationHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (*provider.DonationRequest, bool) {
	var req provider.DonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.DonorError(w, http.StatusBadRequest, "Invalid request format")
		return nil, false
	}
	return &req, true
}

// flowCookie returns the donor correlation cookie, minting one when the
// donor does not have one yet.
func flowCookie(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(donorCookie); err == nil && c.Value != "" {
		return c.Value
	}
	value := session.NewToken()
	http.SetCookie(w, &http.Cookie{
		Name:     donorCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   int((2 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return value
}

// writeDonationError maps a flow error to the flat donor envelope. The
// status reflects the kind; the body never carries internal detail.
func writeDonationError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch provider.KindOf(err) {
	case provider.KindValidation:
		status = http.StatusBadRequest
	case provider.KindDeclined:
		status = http.StatusPaymentRequired
	case provider.KindReplay:
		status = http.StatusConflict
	case provider.KindConfig:
		status = http.StatusInternalServerError
	}
	response.DonorError(w, status, provider.MessageOf(err))
}
