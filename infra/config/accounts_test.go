package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stripeForm(providers map[string]ModeAccounts) *FormConfig {
	return &FormConfig{
		Name:    "main",
		Payment: PaymentSettings{Provider: providers},
	}
}

func TestResolveAccount_DefaultBundle(t *testing.T) {
	form := stripeForm(map[string]ModeAccounts{
		"stripe": {"live": {"secret_key": "sk_live", "public_key": "pk_live"}},
	})

	acct, err := ResolveAccount(form, "stripe", "live", false, "EUR", "")
	require.NoError(t, err)
	assert.Equal(t, "sk_live", acct["secret_key"])
}

func TestResolveAccount_CurrencyBeatsDefault(t *testing.T) {
	form := stripeForm(map[string]ModeAccounts{
		"stripe":     {"live": {"secret_key": "sk_default", "public_key": "pk"}},
		"stripe_chf": {"live": {"secret_key": "sk_chf", "public_key": "pk"}},
	})

	acct, err := ResolveAccount(form, "stripe", "live", false, "CHF", "")
	require.NoError(t, err)
	assert.Equal(t, "sk_chf", acct["secret_key"])
}

func TestResolveAccount_CountryBeatsCurrencyWithTaxReceipt(t *testing.T) {
	form := stripeForm(map[string]ModeAccounts{
		"stripe":     {"live": {"secret_key": "sk_default", "public_key": "pk"}},
		"stripe_chf": {"live": {"secret_key": "sk_chf", "public_key": "pk"}},
		"stripe_ch":  {"live": {"secret_key": "sk_ch", "public_key": "pk"}},
	})

	// Without a tax receipt the country-qualified bundle is not considered
	acct, err := ResolveAccount(form, "stripe", "live", false, "CHF", "CH")
	require.NoError(t, err)
	assert.Equal(t, "sk_chf", acct["secret_key"])

	// A tax receipt request makes the donor country the most specific axis
	acct, err = ResolveAccount(form, "stripe", "live", true, "CHF", "CH")
	require.NoError(t, err)
	assert.Equal(t, "sk_ch", acct["secret_key"])
}

func TestResolveAccount_MandatoryCountry(t *testing.T) {
	form := stripeForm(map[string]ModeAccounts{
		"stripe":    {"live": {"secret_key": "sk_default", "public_key": "pk"}},
		"stripe_de": {"live": {"secret_key": "sk_de", "public_key": "pk"}},
	})
	form.Country.Mandatory = true

	acct, err := ResolveAccount(form, "stripe", "live", false, "EUR", "DE")
	require.NoError(t, err)
	assert.Equal(t, "sk_de", acct["secret_key"])
}

func TestResolveAccount_CountryOfCurrencyFallback(t *testing.T) {
	// No currency bundle, no tax receipt: the currency's country list is
	// walked in declared order (CHF -> CH, LI).
	form := stripeForm(map[string]ModeAccounts{
		"stripe_li": {"live": {"secret_key": "sk_li", "public_key": "pk"}},
	})

	acct, err := ResolveAccount(form, "stripe", "live", false, "CHF", "")
	require.NoError(t, err)
	assert.Equal(t, "sk_li", acct["secret_key"])
}

func TestResolveAccount_CountryOfCurrencySkippedWithTaxReceipt(t *testing.T) {
	form := stripeForm(map[string]ModeAccounts{
		"stripe_li": {"live": {"secret_key": "sk_li", "public_key": "pk"}},
	})

	_, err := ResolveAccount(form, "stripe", "live", true, "CHF", "")
	assert.Error(t, err)
}

func TestResolveAccount_IncompleteBundleSkipped(t *testing.T) {
	// The currency bundle is missing its public key, so resolution falls
	// through to the default bundle.
	form := stripeForm(map[string]ModeAccounts{
		"stripe":     {"live": {"secret_key": "sk_default", "public_key": "pk"}},
		"stripe_chf": {"live": {"secret_key": "sk_chf"}},
	})

	acct, err := ResolveAccount(form, "stripe", "live", false, "CHF", "")
	require.NoError(t, err)
	assert.Equal(t, "sk_default", acct["secret_key"])
}

func TestResolveAccount_ModeIsolation(t *testing.T) {
	form := stripeForm(map[string]ModeAccounts{
		"stripe": {"sandbox": {"secret_key": "sk_test", "public_key": "pk_test"}},
	})

	acct, err := ResolveAccount(form, "stripe", "sandbox", false, "EUR", "")
	require.NoError(t, err)
	assert.Equal(t, "sk_test", acct["secret_key"])

	_, err = ResolveAccount(form, "stripe", "live", false, "EUR", "")
	assert.Error(t, err)
}

func TestResolveAccount_MissingFieldsNamed(t *testing.T) {
	form := stripeForm(map[string]ModeAccounts{
		"paypal": {"live": {"email_id": "pp@example.org"}},
	})

	_, err := ResolveAccount(form, "paypal", "live", false, "EUR", "")
	require.Error(t, err)

	var accErr *AccountError
	require.ErrorAs(t, err, &accErr)
	assert.Equal(t, "paypal", accErr.Provider)
	assert.Contains(t, accErr.Missing, "api_password")
	assert.Contains(t, accErr.Missing, "api_signature")
	assert.NotContains(t, accErr.Missing, "email_id")
}

func TestResolveAccount_BankTransferNeedsNoFields(t *testing.T) {
	form := stripeForm(map[string]ModeAccounts{
		"banktransfer": {"live": {}},
	})

	_, err := ResolveAccount(form, "banktransfer", "live", false, "EUR", "")
	assert.NoError(t, err)
}

func TestRequiredAccountFields(t *testing.T) {
	assert.Equal(t, []string{"secret_key", "public_key"}, RequiredAccountFields("stripe"))
	assert.Empty(t, RequiredAccountFields("banktransfer"))
	assert.Nil(t, RequiredAccountFields("unknown"))
}
