package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mstgnz/donate/infra/config"
	"github.com/mstgnz/donate/infra/country"
	"github.com/mstgnz/donate/infra/logger"
)

// DonationStorage persists finalized donation records.
type DonationStorage interface {
	SaveFundraiserDonation(formName, campaign, donorName, currency, amount, frequency, comment string) error
	SaveDonationLog(formName, record string, maxRecords int) error
}

// EmailMessage is one outbound email decided by the finalizer. Delivery
// mechanics live behind the Mailer.
type EmailMessage struct {
	SenderName  string
	SenderEmail string
	To          string
	Subject     string
	Body        string
	ContentType string
}

// Mailer delivers finalizer emails.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// Finalizer runs the post-payment pipeline: clean, persist, webhooks,
// email. It runs at most once per confirmed donation; each step is
// best-effort and never fails the flow, since the payment has already
// been captured by the time it runs.
type Finalizer struct {
	storage   DonationStorage
	mailer    Mailer
	client    *http.Client
	userAgent string
}

// NewFinalizer creates a finalizer. storage and mailer may be nil; the
// corresponding steps are skipped.
func NewFinalizer(storage DonationStorage, mailer Mailer) *Finalizer {
	return &Finalizer{
		storage:   storage,
		mailer:    mailer,
		client:    &http.Client{Timeout: 15 * time.Second},
		userAgent: "Donate/" + config.Version + " webhook",
	}
}

// Finalize runs the pipeline in fixed order.
func (f *Finalizer) Finalize(ctx context.Context, donation *Donation, form *config.FormConfig) {
	f.Clean(donation)
	f.persist(donation, form)
	f.webhooks(ctx, donation, form)
	f.email(ctx, donation, form)
}

// Clean converts internal fields to their presentational form. Running it
// twice is harmless.
func (f *Finalizer) Clean(donation *Donation) {
	if donation.Cleaned {
		return
	}

	donation.Anonymous = yesNo(donation.AnonymousFlag)
	donation.MailingList = yesNo(donation.MailingFlag)
	donation.TaxReceipt = yesNo(donation.TaxReceiptFlag)
	if donation.CountryCode != "" {
		donation.Country = country.EnglishName(donation.CountryCode)
	}

	donation.Cleaned = true
}

func (f *Finalizer) persist(donation *Donation, form *config.FormConfig) {
	if f.storage == nil {
		return
	}

	if form.Campaign != "" {
		donorName := donation.Name
		if donation.AnonymousFlag {
			donorName = "Anonymous"
		}
		err := f.storage.SaveFundraiserDonation(form.Name, form.Campaign,
			donorName, donation.Currency, donation.Amount, donation.Frequency, donation.Comment)
		if err != nil {
			logger.Error("fundraiser record write failed", err, logger.LogContext{Form: form.Name})
		}
	}

	if form.Log.Enabled {
		record, err := json.Marshal(donation)
		if err == nil {
			err = f.storage.SaveDonationLog(form.Name, string(record), form.Log.Max)
		}
		if err != nil {
			logger.Error("donation log write failed", err, logger.LogContext{Form: form.Name})
		}
	}
}

func (f *Finalizer) webhooks(ctx context.Context, donation *Donation, form *config.FormConfig) {
	for _, target := range splitTargets(form.WebHook.Logging[donation.Mode]) {
		f.post(ctx, target, map[string]any{"donation": donation}, form.Name)
	}

	if donation.MailingFlag {
		subscription := map[string]string{
			"email":    donation.Email,
			"name":     donation.Name,
			"language": donation.Language,
		}
		for _, target := range splitTargets(form.WebHook.MailingList[donation.Mode]) {
			f.post(ctx, target, map[string]any{"subscription": subscription}, form.Name)
		}
	}
}

func (f *Finalizer) post(ctx context.Context, target string, payload any, formName string) {
	if _, err := url.ParseRequestURI(target); err != nil || !strings.HasPrefix(target, "http") {
		// Malformed targets are skipped, not reported.
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		logger.Warn("webhook delivery failed", logger.LogContext{
			Form:   formName,
			Fields: map[string]any{"target": target, "error": err.Error()},
		})
		return
	}
	resp.Body.Close()
}

func (f *Finalizer) email(ctx context.Context, donation *Donation, form *config.FormConfig) {
	if f.mailer == nil {
		return
	}

	fields := flattenDonation(donation)

	if tpl, ok := form.EmailTemplateFor(donation.Language); ok {
		body := substitute(tpl.Text, fields)
		if donation.PaymentType == "banktransfer" {
			body = strings.ReplaceAll(body, "%bank_account_formatted%",
				formatBankAccount(form.BankAccounts[donation.Account], donation.Reference))
		}

		msg := EmailMessage{
			SenderName:  tpl.Sender,
			SenderEmail: tpl.Address,
			To:          donation.Email,
			Subject:     substitute(tpl.Subject, fields),
			Body:        body,
			ContentType: tpl.ContentType,
		}
		if msg.ContentType == "" {
			msg.ContentType = "text/plain"
		}
		if err := f.mailer.Send(ctx, msg); err != nil {
			logger.Error("confirmation email failed", err, logger.LogContext{Form: form.Name})
		}
	}

	for recipient, conditions := range form.Finish.Notify {
		if matchesConditions(fields, conditions) {
			msg := EmailMessage{
				To:          recipient,
				Subject:     fmt.Sprintf("New donation for %s", form.Name),
				Body:        fieldDump(fields),
				ContentType: "text/plain",
			}
			if err := f.mailer.Send(ctx, msg); err != nil {
				logger.Error("notification email failed", err, logger.LogContext{Form: form.Name})
			}
		}
	}
}

// flattenDonation reduces the donation's record fields to a string map
// keyed by their json names.
func flattenDonation(donation *Donation) map[string]string {
	raw, err := json.Marshal(donation)
	if err != nil {
		return nil
	}

	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil
	}

	fields := make(map[string]string, len(generic))
	for key, value := range generic {
		switch v := value.(type) {
		case string:
			fields[key] = v
		default:
			fields[key] = fmt.Sprintf("%v", v)
		}
	}
	return fields
}

// substitute replaces %field% placeholders with donation field values.
func substitute(text string, fields map[string]string) string {
	for key, value := range fields {
		text = strings.ReplaceAll(text, "%"+key+"%", value)
	}
	text = strings.ReplaceAll(text, "%reference_number%", fields["reference"])
	return text
}

// formatBankAccount renders a labeled account block for the confirmation
// email. The %reference_number% placeholder inside account values receives
// the generated reference.
func formatBankAccount(account map[string]string, reference string) string {
	if len(account) == 0 {
		return ""
	}

	labels := make([]string, 0, len(account))
	for label := range account {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var b strings.Builder
	for _, label := range labels {
		value := strings.ReplaceAll(account[label], "%reference_number%", reference)
		fmt.Fprintf(&b, "%s: %s\n", label, value)
	}
	return b.String()
}

func matchesConditions(fields map[string]string, conditions map[string]string) bool {
	if len(conditions) == 0 {
		return false
	}
	for field, required := range conditions {
		if fields[field] != required {
			return false
		}
	}
	return true
}

func fieldDump(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		if fields[key] == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", key, fields[key])
	}
	return b.String()
}

func splitTargets(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	targets := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			targets = append(targets, trimmed)
		}
	}
	return targets
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
