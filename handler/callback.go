package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mstgnz/donate/infra/logger"
	"github.com/mstgnz/donate/infra/response"
	"github.com/mstgnz/donate/provider"
)

// HandleConfirm settles the return leg of a redirect flow. The provider
// sends the donor's browser back here; whatever happens, the answer is the
// small closing-script document so the popup or iframe always hands
// control back to the donation page.
func (h *DonationHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	providerName := chi.URLParam(r, "provider")
	params := confirmParams(r)
	reqToken := params["req"]

	cookie := ""
	if c, err := r.Cookie(donorCookie); err == nil {
		cookie = c.Value
	}

	donation, err := h.service.Confirm(ctx, cookie, providerName, reqToken, params)
	if err != nil {
		logger.WithFormAndProvider("", providerName).
			AddField("error", err.Error()).
			AddField("kind", string(provider.KindOf(err))).
			Warn("Donation confirmation failed")
		response.ConfirmationScript(w, response.UnlockCall(confirmMessage(err)))
		return
	}

	logger.WithFormAndProvider(donation.Form, providerName).
		AddField("reference", donation.Reference).
		AddField("frequency", donation.Frequency).
		Info("Donation confirmed")
	response.ConfirmationScript(w, response.ShowConfirmationCall())
}

// confirmParams flattens query and form values into the parameter map the
// adapters inspect. Form values win when a key appears in both.
func confirmParams(r *http.Request) map[string]string {
	params := map[string]string{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	if err := r.ParseForm(); err == nil {
		for key, values := range r.PostForm {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}
	}
	return params
}

// confirmMessage picks the message shown by the unlock script. A stray or
// replayed confirm call unlocks silently; a cancelled payment likewise.
func confirmMessage(err error) string {
	kind := provider.KindOf(err)
	if kind == provider.KindReplay {
		return ""
	}
	if kind == provider.KindDeclined && isCancellation(err) {
		return ""
	}
	return provider.MessageOf(err)
}

func isCancellation(err error) bool {
	var typed *provider.Error
	if errors.As(err, &typed) {
		return typed.Message == "Payment was cancelled"
	}
	return false
}
