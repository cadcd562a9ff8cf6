package router

import (
	"github.com/go-chi/chi/v5"

	v1 "github.com/mstgnz/donate/router/v1"

	// Import for side-effect registration
	_ "github.com/mstgnz/donate/provider/banktransfer"
	_ "github.com/mstgnz/donate/provider/bitpay"
	_ "github.com/mstgnz/donate/provider/gocardless"
	_ "github.com/mstgnz/donate/provider/paypal"
	_ "github.com/mstgnz/donate/provider/skrill"
	_ "github.com/mstgnz/donate/provider/stripe"
)

// Routes registers the versioned API routes
func Routes(r chi.Router, deps v1.Dependencies) {
	r.Route("/v1", func(r chi.Router) {
		v1.Routes(r, deps)
	})
}
