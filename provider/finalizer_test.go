package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstgnz/donate/infra/config"
)

type fakeStorage struct {
	mu          sync.Mutex
	fundraisers []string
	logs        []string
	maxRecords  int
}

func (s *fakeStorage) SaveFundraiserDonation(formName, campaign, donorName, currency, amount, frequency, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fundraisers = append(s.fundraisers, campaign+"/"+donorName)
	return nil
}

func (s *fakeStorage) SaveDonationLog(formName, record string, maxRecords int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, record)
	s.maxRecords = maxRecords
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []EmailMessage
}

func (m *fakeMailer) Send(ctx context.Context, msg EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func finishedDonation() *Donation {
	return &Donation{
		Form:           "main",
		Mode:           "live",
		Language:       "en",
		Currency:       "EUR",
		Amount:         "25",
		Frequency:      "once",
		PaymentType:    "stripe",
		Email:          "donor@example.org",
		Name:           "Jane Donor",
		Reference:      "TREE-4X7K",
		CountryCode:    "ch",
		AnonymousFlag:  false,
		MailingFlag:    true,
		TaxReceiptFlag: true,
	}
}

func TestClean(t *testing.T) {
	f := NewFinalizer(nil, nil)
	donation := finishedDonation()

	f.Clean(donation)

	assert.Equal(t, "no", donation.Anonymous)
	assert.Equal(t, "yes", donation.MailingList)
	assert.Equal(t, "yes", donation.TaxReceipt)
	assert.Equal(t, "Switzerland", donation.Country)
	assert.True(t, donation.Cleaned)
}

func TestClean_Idempotent(t *testing.T) {
	f := NewFinalizer(nil, nil)
	donation := finishedDonation()

	f.Clean(donation)
	donation.Country = "edited"
	f.Clean(donation)

	// A second run must not rewrite anything
	assert.Equal(t, "edited", donation.Country)
}

func TestFinalize_PersistsFundraiserAndLog(t *testing.T) {
	storage := &fakeStorage{}
	f := NewFinalizer(storage, nil)

	form := &config.FormConfig{
		Name:     "main",
		Campaign: "spring",
		Log:      config.AuditLogSettings{Enabled: true, Max: 20},
	}
	f.Finalize(context.Background(), finishedDonation(), form)

	require.Len(t, storage.fundraisers, 1)
	assert.Equal(t, "spring/Jane Donor", storage.fundraisers[0])
	require.Len(t, storage.logs, 1)
	assert.Equal(t, 20, storage.maxRecords)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(storage.logs[0]), &record))
	assert.Equal(t, "TREE-4X7K", record["reference"])
}

func TestFinalize_AnonymousDonorNameMasked(t *testing.T) {
	storage := &fakeStorage{}
	f := NewFinalizer(storage, nil)

	donation := finishedDonation()
	donation.AnonymousFlag = true
	f.Finalize(context.Background(), donation, &config.FormConfig{Name: "main", Campaign: "spring"})

	require.Len(t, storage.fundraisers, 1)
	assert.Equal(t, "spring/Anonymous", storage.fundraisers[0])
}

func TestFinalize_Webhooks(t *testing.T) {
	var mu sync.Mutex
	bodies := map[string]string{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies[r.URL.Path] = string(body)
		mu.Unlock()
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "Donate/"))
	}))
	defer server.Close()

	form := &config.FormConfig{
		Name: "main",
		WebHook: config.WebHookSettings{
			Logging:     map[string]string{"live": server.URL + "/log, not-a-url"},
			MailingList: map[string]string{"live": server.URL + "/subscribe"},
		},
	}

	f := NewFinalizer(nil, nil)
	f.Finalize(context.Background(), finishedDonation(), form)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, bodies["/log"], `"donation"`)
	assert.Contains(t, bodies["/log"], `"TREE-4X7K"`)
	assert.Contains(t, bodies["/subscribe"], `"subscription"`)
	assert.Contains(t, bodies["/subscribe"], `"donor@example.org"`)
}

func TestFinalize_MailingListWebhookSkippedWithoutOptIn(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	form := &config.FormConfig{
		Name: "main",
		WebHook: config.WebHookSettings{
			MailingList: map[string]string{"live": server.URL},
		},
	}

	donation := finishedDonation()
	donation.MailingFlag = false
	NewFinalizer(nil, nil).Finalize(context.Background(), donation, form)

	assert.Equal(t, 0, hits)
}

func TestFinalize_ConfirmationEmail(t *testing.T) {
	mailer := &fakeMailer{}
	f := NewFinalizer(nil, mailer)

	form := &config.FormConfig{
		Name: "main",
		Finish: config.FinishSettings{
			Email: map[string]config.EmailTemplate{
				"en": {
					Subject: "Thank you %name%",
					Text:    "We received %amount% %currency%, reference %reference_number%.",
					Sender:  "Donations",
					Address: "donations@example.org",
				},
			},
		},
	}
	f.Finalize(context.Background(), finishedDonation(), form)

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "donor@example.org", msg.To)
	assert.Equal(t, "Thank you Jane Donor", msg.Subject)
	assert.Equal(t, "We received 25 EUR, reference TREE-4X7K.", msg.Body)
	assert.Equal(t, "text/plain", msg.ContentType)
}

func TestFinalize_BankTransferEmailAccountBlock(t *testing.T) {
	mailer := &fakeMailer{}
	f := NewFinalizer(nil, mailer)

	donation := finishedDonation()
	donation.PaymentType = "banktransfer"
	donation.Account = "ch"

	form := &config.FormConfig{
		Name: "main",
		BankAccounts: map[string]map[string]string{
			"ch": {
				"IBAN":      "CH00 1234 5678",
				"Reference": "%reference_number%",
			},
		},
		Finish: config.FinishSettings{
			Email: map[string]config.EmailTemplate{
				"en": {Subject: "Thanks", Text: "Pay to:\n%bank_account_formatted%"},
			},
		},
	}
	f.Finalize(context.Background(), donation, form)

	require.Len(t, mailer.sent, 1)
	body := mailer.sent[0].Body
	assert.Contains(t, body, "IBAN: CH00 1234 5678")
	assert.Contains(t, body, "Reference: TREE-4X7K")
}

func TestFinalize_NotifyRules(t *testing.T) {
	mailer := &fakeMailer{}
	f := NewFinalizer(nil, mailer)

	form := &config.FormConfig{
		Name: "main",
		Finish: config.FinishSettings{
			Notify: map[string]map[string]string{
				"big@example.org":    {"frequency": "once", "currency": "EUR"},
				"other@example.org":  {"currency": "USD"},
				"nobody@example.org": {},
			},
		},
	}
	f.Finalize(context.Background(), finishedDonation(), form)

	// Only the fully-matching rule fires; empty condition sets never match
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "big@example.org", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Body, "reference: TREE-4X7K")
}

func TestSplitTargets(t *testing.T) {
	assert.Nil(t, splitTargets(""))
	assert.Nil(t, splitTargets("  "))
	assert.Equal(t, []string{"http://a", "http://b"}, splitTargets(" http://a , http://b ,"))
}
