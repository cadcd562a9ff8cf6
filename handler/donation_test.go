package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstgnz/donate/provider"
)

// mockDonationService scripts service behavior per test.
type mockDonationService struct {
	initiateFunc func(ctx context.Context, cookie string, req *provider.DonationRequest, clientIP string) (*provider.InitiateOutcome, error)
	confirmFunc  func(ctx context.Context, cookie, providerName, reqToken string, params map[string]string) (*provider.Donation, error)
}

func (m *mockDonationService) Initiate(ctx context.Context, cookie string, req *provider.DonationRequest, clientIP string) (*provider.InitiateOutcome, error) {
	if m.initiateFunc != nil {
		return m.initiateFunc(ctx, cookie, req, clientIP)
	}
	return &provider.InitiateOutcome{Completed: true, Reference: "REF-1234"}, nil
}

func (m *mockDonationService) Confirm(ctx context.Context, cookie, providerName, reqToken string, params map[string]string) (*provider.Donation, error) {
	if m.confirmFunc != nil {
		return m.confirmFunc(ctx, cookie, providerName, reqToken, params)
	}
	return &provider.Donation{Form: "main", Reference: "REF-1234"}, nil
}

func donationBody() string {
	return `{
		"form": "main", "mode": "live", "payment": "stripe",
		"amount": "25", "currency": "EUR", "frequency": "once",
		"email": "donor@example.org", "name": "Jane Donor"
	}`
}

func TestDonate_Success(t *testing.T) {
	h := NewDonationHandler(&mockDonationService{})

	req := httptest.NewRequest(http.MethodPost, "/v1/donate", strings.NewReader(donationBody()))
	w := httptest.NewRecorder()
	h.Donate(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "REF-1234", result["reference"])
}

func TestDonate_RejectsRedirectProvider(t *testing.T) {
	called := false
	h := NewDonationHandler(&mockDonationService{
		initiateFunc: func(ctx context.Context, cookie string, req *provider.DonationRequest, clientIP string) (*provider.InitiateOutcome, error) {
			called = true
			return &provider.InitiateOutcome{}, nil
		},
	})

	body := strings.Replace(donationBody(), `"payment": "stripe"`, `"payment": "paypal"`, 1)
	req := httptest.NewRequest(http.MethodPost, "/v1/donate", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Donate(w, req)

	// Rejected before the flow starts: nothing stashed, no provider call
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, called)

	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, false, result["success"])
	assert.Contains(t, result["error"], "redirect flow")
}

func TestDonate_SetsFlowCookie(t *testing.T) {
	h := NewDonationHandler(&mockDonationService{})

	req := httptest.NewRequest(http.MethodPost, "/v1/donate", strings.NewReader(donationBody()))
	w := httptest.NewRecorder()
	h.Donate(w, req)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, donorCookie, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestDonate_ReusesExistingCookie(t *testing.T) {
	var seen string
	h := NewDonationHandler(&mockDonationService{
		initiateFunc: func(ctx context.Context, cookie string, req *provider.DonationRequest, clientIP string) (*provider.InitiateOutcome, error) {
			seen = cookie
			return &provider.InitiateOutcome{Completed: true, Reference: "REF-1234"}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/donate", strings.NewReader(donationBody()))
	req.AddCookie(&http.Cookie{Name: donorCookie, Value: "existing-cookie"})
	w := httptest.NewRecorder()
	h.Donate(w, req)

	assert.Equal(t, "existing-cookie", seen)
	assert.Empty(t, w.Result().Cookies())
}

func TestDonate_InvalidJSON(t *testing.T) {
	h := NewDonationHandler(&mockDonationService{})

	req := httptest.NewRequest(http.MethodPost, "/v1/donate", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.Donate(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, false, result["success"])
	assert.Contains(t, result["error"], "Please contact us.")
}

func TestDonate_ErrorEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			"validation shown verbatim",
			provider.NewError(provider.KindValidation, "Invalid email address"),
			http.StatusBadRequest,
			"Invalid email address. Please contact us.",
		},
		{
			"decline keeps provider message",
			provider.NewError(provider.KindDeclined, "Card was declined"),
			http.StatusPaymentRequired,
			"Your donation could not be processed: Card was declined. Please contact us.",
		},
		{
			"config stays generic",
			provider.NewError(provider.KindConfig, "missing secret_key for stripe"),
			http.StatusInternalServerError,
			"Your donation could not be processed. Please contact us.",
		},
		{
			"unavailable stays generic",
			provider.NewError(provider.KindUnavailable, "connection refused"),
			http.StatusBadGateway,
			"Your donation could not be processed. Please contact us.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewDonationHandler(&mockDonationService{
				initiateFunc: func(ctx context.Context, cookie string, req *provider.DonationRequest, clientIP string) (*provider.InitiateOutcome, error) {
					return nil, tt.err
				},
			})

			req := httptest.NewRequest(http.MethodPost, "/v1/donate", strings.NewReader(donationBody()))
			w := httptest.NewRecorder()
			h.Donate(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			var result map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
			assert.Equal(t, false, result["success"])
			assert.Equal(t, tt.wantError, result["error"])
		})
	}
}

func TestRedirect_ReturnsURLAndToken(t *testing.T) {
	h := NewDonationHandler(&mockDonationService{
		initiateFunc: func(ctx context.Context, cookie string, req *provider.DonationRequest, clientIP string) (*provider.InitiateOutcome, error) {
			return &provider.InitiateOutcome{
				RedirectURL: "https://pay.example.org/rf1",
				Token:       "tok-1",
				PaymentID:   "pay-1",
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/redirect", strings.NewReader(donationBody()))
	w := httptest.NewRecorder()
	h.Redirect(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "https://pay.example.org/rf1", result["url"])
	assert.Equal(t, "tok-1", result["token"])
	assert.Equal(t, "pay-1", result["paymentID"])
}

func confirmRequest(t *testing.T, target string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("provider", "gocardless")
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestHandleConfirm_Success(t *testing.T) {
	var gotToken, gotProvider string
	h := NewDonationHandler(&mockDonationService{
		confirmFunc: func(ctx context.Context, cookie, providerName, reqToken string, params map[string]string) (*provider.Donation, error) {
			gotToken = reqToken
			gotProvider = providerName
			return &provider.Donation{Form: "main", Reference: "REF-1234"}, nil
		},
	})

	req := confirmRequest(t, "/v1/confirm/gocardless?req=tok-1")
	req.AddCookie(&http.Cookie{Name: donorCookie, Value: "cookie-1"})
	w := httptest.NewRecorder()
	h.HandleConfirm(w, req)

	assert.Equal(t, "tok-1", gotToken)
	assert.Equal(t, "gocardless", gotProvider)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Empty(t, w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Body.String(), "showConfirmation('payment')")
}

func TestHandleConfirm_ReplayUnlocksSilently(t *testing.T) {
	h := NewDonationHandler(&mockDonationService{
		confirmFunc: func(ctx context.Context, cookie, providerName, reqToken string, params map[string]string) (*provider.Donation, error) {
			return nil, provider.NewError(provider.KindReplay, "No matching donation in progress")
		},
	})

	w := httptest.NewRecorder()
	h.HandleConfirm(w, confirmRequest(t, "/v1/confirm/gocardless?req=stale"))

	// Still a 200 with the closing script, but the unlock variant
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hideFrame()")
	assert.NotContains(t, w.Body.String(), "showConfirmation")
}

func TestHandleConfirm_DeclineShowsMessage(t *testing.T) {
	h := NewDonationHandler(&mockDonationService{
		confirmFunc: func(ctx context.Context, cookie, providerName, reqToken string, params map[string]string) (*provider.Donation, error) {
			return nil, provider.NewError(provider.KindDeclined, "Invoice not paid (status expired)")
		},
	})

	w := httptest.NewRecorder()
	h.HandleConfirm(w, confirmRequest(t, "/v1/confirm/gocardless?req=tok-1"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alertAndUnlock(")
	assert.Contains(t, w.Body.String(), "Invoice not paid")
}

func TestHandleConfirm_CancelUnlocksSilently(t *testing.T) {
	h := NewDonationHandler(&mockDonationService{
		confirmFunc: func(ctx context.Context, cookie, providerName, reqToken string, params map[string]string) (*provider.Donation, error) {
			return nil, provider.NewError(provider.KindDeclined, "Payment was cancelled")
		},
	})

	w := httptest.NewRecorder()
	h.HandleConfirm(w, confirmRequest(t, "/v1/confirm/gocardless?req=tok-1&cancel=1"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hideFrame()")
}

func TestConfirmParams_MergesQueryAndForm(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/confirm/skrill?req=tok-1&cancel=1",
		strings.NewReader("transaction_id=tx-9&cancel=form-wins"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	params := confirmParams(req)
	assert.Equal(t, "tok-1", params["req"])
	assert.Equal(t, "tx-9", params["transaction_id"])
	assert.Equal(t, "form-wins", params["cancel"])
}
