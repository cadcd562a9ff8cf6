// Package donate provides a multi-provider donation collection engine that
// abstracts several payment providers behind a single donation API. It owns
// the whole flow: form settings, credential resolution, provider checkout,
// the donor's return leg, and post-payment processing.
//
// # Overview
//
// Donation forms are embedded on campaign sites and differ in currencies,
// purposes, provider credentials and confirmation emails. Donate keeps all
// of that in per-form settings trees with inheritance, so one engine serves
// many campaigns with one consistent interface.
//
// # Architecture
//
// The donation flow follows this pattern:
//
//	┌─────────────────┐    ┌─────────────────┐    ┌─────────────────┐
//	│                 │    │                 │    │                 │
//	│ Campaign Sites  │◄──►│     Donate      │◄──►│    Payment      │
//	│ (embedded form) │    │    (engine)     │    │   Providers     │
//	│                 │    │                 │    │                 │
//	└─────────────────┘    └─────────────────┘    └─────────────────┘
//
// # Supported Providers
//
// Currently supported payment providers include:
//   - Stripe: card payments and monthly subscriptions, completed synchronously
//   - PayPal: redirect checkout with preapprovals for monthly donations
//   - GoCardless: direct debit mandates via the redirect flow
//   - BitPay: cryptocurrency invoices via the redirect flow
//   - Skrill: wallet payments via the redirect flow
//   - Bank transfer: no remote call, hands the donor a payment reference
//
// # Quick Start
//
// Basic usage example:
//
//	package main
//
//	import (
//	    "context"
//
//	    "github.com/mstgnz/donate/infra/config"
//	    "github.com/mstgnz/donate/infra/session"
//	    "github.com/mstgnz/donate/provider"
//	    _ "github.com/mstgnz/donate/provider/stripe" // Import to register adapter
//	)
//
//	func main() {
//	    storage, err := config.NewSQLiteStorage("data/donate.db")
//	    if err != nil {
//	        panic(err)
//	    }
//	    defer storage.Close()
//
//	    forms := config.NewStore(storage)
//	    sessions := session.NewStore(0)
//	    defer sessions.Close()
//
//	    finalizer := provider.NewFinalizer(storage, nil)
//	    service := provider.NewDonationService(forms, sessions, finalizer,
//	        nil, nil, "https://donate.example.org")
//
//	    outcome, err := service.Initiate(context.Background(), "", &provider.DonationRequest{
//	        Form:      "main",
//	        Mode:      "live",
//	        Payment:   "stripe",
//	        Amount:    "25",
//	        Currency:  "CHF",
//	        Frequency: "once",
//	        Email:     "donor@example.org",
//	        Name:      "Jane Donor",
//	    }, "203.0.113.7")
//	    if err != nil {
//	        panic(err)
//	    }
//
//	    if outcome.Completed {
//	        // Synchronous provider, donation is finished
//	        _ = outcome.Reference
//	    } else {
//	        // Redirect provider, send the donor to the checkout page
//	        _ = outcome.RedirectURL
//	    }
//	}
//
// # Environment Support
//
// Each form carries separate sandbox and live credentials per provider; the
// request's mode selects which bundle the account resolver cascades over
// (country, then currency, then default).
//
// # HTTP API
//
// Donate also provides a REST API used by the embedded forms:
//
//	# Synchronous donation (stripe, banktransfer)
//	POST /v1/donate
//	Content-Type: application/json
//
//	# Redirect donation (paypal, gocardless, bitpay, skrill)
//	POST /v1/redirect
//	Content-Type: application/json
//
//	# Donor return leg, always answers a frame-closing script
//	GET|POST /v1/confirm/{provider}?req={token}
//
//	# Resolved tax-deduction labels for a form
//	GET /v1/labels?form=main&country=CH&language=de
//
//	# Raw tax-deduction label tree for trusted consumers
//	GET /v1/tax-deduction/{secret}?form=main
//
//	# Operator flow-log queries (requires X-Admin-Key)
//	GET /v1/logs/{provider}?reference=TREE-4X7K
//
// Replay safety is built in: every redirect hands out a one-time token that
// is rotated on use, so a donor refreshing the confirmation page can never
// finalize the same donation twice.
package donate
