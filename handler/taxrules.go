package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mstgnz/donate/infra/config"
	"github.com/mstgnz/donate/infra/response"
)

// TaxRuleHandler serves tax-deduction labels: the resolved set the donation
// form shows to donors, and the raw tree for trusted consumers guarded by a
// shared secret in the path.
type TaxRuleHandler struct {
	forms    *config.Store
	resolver *config.TaxRuleResolver
	cfg      *config.AppConfig
}

// NewTaxRuleHandler creates a new tax-rule handler
func NewTaxRuleHandler(forms *config.Store, resolver *config.TaxRuleResolver, cfg *config.AppConfig) *TaxRuleHandler {
	return &TaxRuleHandler{forms: forms, resolver: resolver, cfg: cfg}
}

// ResolveLabels serves the effective label set for one donor context. The
// donation form fetches this when the donor changes country, provider or
// purpose.
func (h *TaxRuleHandler) ResolveLabels(w http.ResponseWriter, r *http.Request) {
	form, err := h.forms.LoadForm(r.URL.Query().Get("form"))
	if err != nil {
		response.DonorError(w, http.StatusNotFound, "Unknown form")
		return
	}

	q := r.URL.Query()
	labels := h.resolver.ResolveLabels(form,
		q.Get("country"), q.Get("payment"), q.Get("purpose"), q.Get("language"))
	if labels == nil {
		labels = map[string]string{}
	}

	_ = response.WriteJSON(w, http.StatusOK, labels)
}

// ShareLabels serves the raw label tree of a form. Sharing must be enabled
// and the caller must present the configured secret.
func (h *TaxRuleHandler) ShareLabels(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.TaxDeductionShare {
		response.DonorError(w, http.StatusForbidden, "Sharing is disabled")
		return
	}

	secret := chi.URLParam(r, "secret")
	if h.cfg.TaxDeductionKey == "" || secret != h.cfg.TaxDeductionKey {
		response.DonorError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	form, err := h.forms.LoadForm(r.URL.Query().Get("form"))
	if err != nil {
		response.DonorError(w, http.StatusNotFound, "Unknown form")
		return
	}

	tree := config.LocalLabelTree(form)
	if tree == nil {
		response.DonorError(w, http.StatusNotFound, "No tax deduction labels")
		return
	}

	_ = response.WriteJSON(w, http.StatusOK, tree)
}
