package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mstgnz/donate/infra/country"
)

// accountSchemas declares the credential fields each payment provider
// requires. A bundle missing any of these is incomplete and never selected.
var accountSchemas = map[string][]string{
	"stripe":       {"secret_key", "public_key"},
	"paypal":       {"email_id", "api_username", "api_password", "api_signature", "application_id"},
	"gocardless":   {"access_token"},
	"bitpay":       {"pairing_code"},
	"skrill":       {"merchant_account"},
	"banktransfer": {},
}

// RequiredAccountFields returns the credential schema of a provider.
func RequiredAccountFields(provider string) []string {
	return accountSchemas[provider]
}

// AccountError reports that no complete credential bundle could be resolved.
type AccountError struct {
	Provider string
	Mode     string
	Missing  []string
}

func (e *AccountError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("no valid settings for provider %s (%s): missing %s",
			e.Provider, e.Mode, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("no valid settings for provider %s (%s)", e.Provider, e.Mode)
}

// ResolveAccount picks the best-matching credential bundle for a donation.
// Precedence, most specific first:
//  1. country-qualified, only when a tax receipt is requested or the form
//     makes country selection compulsory
//  2. currency-qualified
//  3. country-of-currency, only when no tax receipt is needed, country is
//     not compulsory and no currency bundle exists; the currency's country
//     list is walked in declared order
//  4. unqualified default
func ResolveAccount(form *FormConfig, provider, mode string, taxReceipt bool, currency, countryCode string) (Account, error) {
	currency = strings.ToLower(currency)
	countryCode = strings.ToLower(countryCode)

	countryFirst := taxReceipt || form.Country.Mandatory

	if countryFirst && countryCode != "" {
		if acct, ok := completeAccount(form, provider+"_"+countryCode, mode); ok {
			return acct, nil
		}
	}

	acct, hasCurrency := completeAccount(form, provider+"_"+currency, mode)
	if hasCurrency {
		return acct, nil
	}

	if !taxReceipt && !form.Country.Mandatory && !hasCurrency {
		for _, code := range country.CodesByCurrency(currency) {
			if acct, ok := completeAccount(form, provider+"_"+strings.ToLower(code), mode); ok {
				return acct, nil
			}
		}
	}

	if acct, ok := completeAccount(form, provider, mode); ok {
		return acct, nil
	}

	return nil, &AccountError{
		Provider: provider,
		Mode:     mode,
		Missing:  missingFields(form, provider, mode),
	}
}

// completeAccount returns the bundle under a provider key when every
// schema-required field is present and non-empty.
func completeAccount(form *FormConfig, providerKey, mode string) (Account, bool) {
	modes, ok := form.Payment.Provider[providerKey]
	if !ok {
		return nil, false
	}
	acct, ok := modes[mode]
	if !ok {
		return nil, false
	}

	schema := accountSchemas[baseProvider(providerKey)]
	for _, field := range schema {
		if strings.TrimSpace(acct[field]) == "" {
			return nil, false
		}
	}
	return acct, true
}

// missingFields collects, across every bundle configured for the provider,
// the schema fields that are absent or empty. This is operator-facing
// detail; it never reaches the donor.
func missingFields(form *FormConfig, provider, mode string) []string {
	schema := accountSchemas[provider]
	seen := map[string]bool{}

	for providerKey, modes := range form.Payment.Provider {
		if baseProvider(providerKey) != provider {
			continue
		}
		acct := modes[mode]
		for _, field := range schema {
			if strings.TrimSpace(acct[field]) == "" {
				seen[field] = true
			}
		}
	}

	if len(seen) == 0 {
		// Nothing configured at all for this provider and mode.
		return append([]string{}, schema...)
	}

	missing := make([]string, 0, len(seen))
	for field := range seen {
		missing = append(missing, field)
	}
	sort.Strings(missing)
	return missing
}

// baseProvider strips the country/currency qualifier from a provider key,
// e.g. "paypal_ch" -> "paypal".
func baseProvider(providerKey string) string {
	if i := strings.IndexByte(providerKey, '_'); i > 0 {
		return providerKey[:i]
	}
	return providerKey
}
