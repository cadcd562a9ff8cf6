package v1

import (
	"github.com/go-chi/chi/v5"

	"github.com/mstgnz/donate/handler"
	"github.com/mstgnz/donate/infra/config"
	"github.com/mstgnz/donate/provider"
)

// Dependencies carries the wired services the v1 routes need.
type Dependencies struct {
	Service  *provider.DonationService
	Forms    *config.Store
	Resolver *config.TaxRuleResolver
	Config   *config.AppConfig
	Logs     handler.LogSearcher
}

// Routes registers all v1 API routes
func Routes(r chi.Router, deps Dependencies) {
	donationHandler := handler.NewDonationHandler(deps.Service)
	taxRuleHandler := handler.NewTaxRuleHandler(deps.Forms, deps.Resolver, deps.Config)
	logsHandler := handler.NewLogsHandler(deps.Logs, deps.Config)

	// Donation routes
	r.Post("/donate", donationHandler.Donate)
	r.Post("/redirect", donationHandler.Redirect)

	// Return leg of the redirect providers; some send the donor back with
	// GET, others POST the result, so both are accepted.
	r.HandleFunc("/confirm/{provider}", donationHandler.HandleConfirm)

	// Tax-deduction labels: resolved set for the donation form, raw tree
	// for trusted consumers
	r.Get("/labels", taxRuleHandler.ResolveLabels)
	r.Get("/tax-deduction/{secret}", taxRuleHandler.ShareLabels)

	// Operator log queries, guarded by the admin secret
	r.Get("/logs/{provider}", logsHandler.ListLogs)
}
