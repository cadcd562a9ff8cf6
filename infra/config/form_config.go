package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrFormNotFound is returned when no settings document exists for a form name.
	ErrFormNotFound = errors.New("form not found")

	// ErrCircularInheritance is returned when a form inheritance chain loops.
	ErrCircularInheritance = errors.New("circular inheritance")
)

// wholesaleKeys are settings paths that a child form always replaces in full.
// These structures are selected by key or locale, never accumulated, so a
// partial merge would produce nonsense (e.g. a purpose list mixing two forms).
var wholesaleKeys = map[string]bool{
	"payment.purpose": true,
	"amount.currency": true,
	"finish.email":    true,
}

// Account is one credential bundle for a (provider, mode, qualifier) combination.
type Account map[string]string

// ModeAccounts maps an operating mode (sandbox, live) to its credential bundle.
type ModeAccounts map[string]Account

// CurrencyOption describes one supported donation currency.
type CurrencyOption struct {
	Pattern     string `json:"pattern,omitempty"`
	CountryFlag string `json:"country_flag,omitempty"`
}

// AmountSettings holds the donation amount step configuration.
type AmountSettings struct {
	Currency map[string]CurrencyOption `json:"currency,omitempty"`
}

// ReferencePrefix configures the human-readable prefix for bank transfer
// reference numbers, form-wide and per purpose.
type ReferencePrefix struct {
	Default  string            `json:"default,omitempty"`
	Purposes map[string]string `json:"purposes,omitempty"`
}

// LabelSettings holds the label trees attached to the payment step.
type LabelSettings struct {
	// TaxDeduction is a cascade over country, provider and purpose, each
	// level keyed by "default" or a specific value. Leaves are label maps
	// whose values are strings or locale maps.
	TaxDeduction map[string]any `json:"tax_deduction,omitempty"`
}

// PaymentSettings holds the payment step configuration.
type PaymentSettings struct {
	Purpose         []string                `json:"purpose,omitempty"`
	Provider        map[string]ModeAccounts `json:"provider,omitempty"`
	Labels          LabelSettings           `json:"labels,omitempty"`
	ReferencePrefix ReferencePrefix         `json:"reference_number_prefix,omitempty"`
}

// EmailTemplate is one localized confirmation email.
type EmailTemplate struct {
	Subject     string `json:"subject"`
	Text        string `json:"text"`
	Sender      string `json:"sender,omitempty"`
	Address     string `json:"address,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// FinishSettings holds the confirmation step configuration.
type FinishSettings struct {
	// Email maps a language code to its confirmation email template.
	Email map[string]EmailTemplate `json:"email,omitempty"`

	// Notify maps a recipient address to field-equality conditions; when a
	// donation matches every condition, the recipient gets a field dump.
	Notify map[string]map[string]string `json:"notify,omitempty"`
}

// WebHookSettings holds outbound notification targets, per mode, as
// comma-separated URL lists.
type WebHookSettings struct {
	Logging     map[string]string `json:"logging,omitempty"`
	MailingList map[string]string `json:"mailing_list,omitempty"`
}

// AuditLogSettings enables bounded per-form donation logging.
type AuditLogSettings struct {
	Enabled bool `json:"enabled,omitempty"`
	Max     int  `json:"max,omitempty"`
}

// CountrySettings holds donor country behavior for the form.
type CountrySettings struct {
	Mandatory bool `json:"mandatory,omitempty"`
}

// RemoteTaxSource configures consumption of a remote tax-deduction label set.
type RemoteTaxSource struct {
	Endpoint string `json:"endpoint"`
	Form     string `json:"form,omitempty"`
	TTL      int    `json:"ttl,omitempty"` // hours
}

// FormConfig is the resolved, typed settings tree of one campaign form.
type FormConfig struct {
	Name               string                       `json:"-"`
	Inherits           string                       `json:"inherits,omitempty"`
	Campaign           string                       `json:"campaign,omitempty"`
	Language           string                       `json:"language,omitempty"`
	Country            CountrySettings              `json:"country,omitempty"`
	Amount             AmountSettings               `json:"amount,omitempty"`
	Payment            PaymentSettings              `json:"payment,omitempty"`
	BankAccounts       map[string]map[string]string `json:"bank_accounts,omitempty"`
	WebHook            WebHookSettings              `json:"web_hook,omitempty"`
	Log                AuditLogSettings             `json:"log,omitempty"`
	Finish             FinishSettings               `json:"finish,omitempty"`
	TaxDeductionRemote *RemoteTaxSource             `json:"tax_deduction_remote,omitempty"`
}

// EmailTemplateFor picks the confirmation email for a donor language, falling
// back to the form's declared default language and then to the first template
// in language order.
func (f *FormConfig) EmailTemplateFor(language string) (EmailTemplate, bool) {
	if len(f.Finish.Email) == 0 {
		return EmailTemplate{}, false
	}
	if t, ok := f.Finish.Email[strings.ToLower(language)]; ok {
		return t, true
	}
	if t, ok := f.Finish.Email[strings.ToLower(f.Language)]; ok {
		return t, true
	}
	languages := make([]string, 0, len(f.Finish.Email))
	for l := range f.Finish.Email {
		languages = append(languages, l)
	}
	sort.Strings(languages)
	return f.Finish.Email[languages[0]], true
}

// ReferencePrefixFor returns the reference number prefix for a purpose,
// falling back to the form-wide default. Empty string means no prefix.
func (f *FormConfig) ReferencePrefixFor(purpose string) string {
	if purpose != "" {
		if p, ok := f.Payment.ReferencePrefix.Purposes[purpose]; ok && p != "" {
			return p
		}
	}
	return f.Payment.ReferencePrefix.Default
}

// FormSource provides raw settings documents, keyed by form name.
type FormSource interface {
	GetFormConfig(name string) (string, error)
	ListForms() ([]string, error)
}

// Store loads form settings, resolves inheritance and caches the result.
// Resolution is pure, so a racing re-resolution on a cache miss is harmless.
type Store struct {
	source   FormSource
	mu       sync.RWMutex
	resolved map[string]*FormConfig
}

// NewStore creates a settings store on top of a form source.
func NewStore(source FormSource) *Store {
	return &Store{
		source:   source,
		resolved: make(map[string]*FormConfig),
	}
}

// LoadForm returns the effective settings of a form with inheritance applied.
func (s *Store) LoadForm(name string) (*FormConfig, error) {
	s.mu.RLock()
	if cfg, ok := s.resolved[name]; ok {
		s.mu.RUnlock()
		return cfg, nil
	}
	s.mu.RUnlock()

	raw, err := s.resolveRaw(name, map[string]bool{})
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("form %s: %w", name, err)
	}
	cfg := &FormConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("form %s: invalid settings: %w", name, err)
	}
	cfg.Name = name

	s.mu.Lock()
	s.resolved[name] = cfg
	s.mu.Unlock()

	return cfg, nil
}

// Invalidate drops a cached form, forcing a reload on next access.
func (s *Store) Invalidate(name string) {
	s.mu.Lock()
	delete(s.resolved, name)
	s.mu.Unlock()
}

// resolveRaw walks the inheritance chain depth-first and merges child over
// parent. The visited set guards against cycles.
func (s *Store) resolveRaw(name string, visited map[string]bool) (map[string]any, error) {
	if visited[name] {
		return nil, fmt.Errorf("form %s: %w", name, ErrCircularInheritance)
	}
	visited[name] = true

	doc, err := s.source.GetFormConfig(name)
	if err != nil {
		return nil, fmt.Errorf("form %s: %w", name, ErrFormNotFound)
	}

	var own map[string]any
	if err := json.Unmarshal([]byte(doc), &own); err != nil {
		return nil, fmt.Errorf("form %s: malformed settings document: %w", name, err)
	}

	parentName, _ := own["inherits"].(string)
	if parentName == "" {
		return own, nil
	}

	parent, err := s.resolveRaw(parentName, visited)
	if err != nil {
		return nil, err
	}

	return mergeSettings(parent, own, ""), nil
}

// mergeSettings merges child over parent recursively. String-keyed structures
// merge key-wise; scalars, arrays and the designated wholesale keys replace
// the inherited value in full.
func mergeSettings(parent, child map[string]any, path string) map[string]any {
	result := make(map[string]any, len(parent)+len(child))
	for k, v := range parent {
		result[k] = v
	}
	for k, v := range child {
		keyPath := k
		if path != "" {
			keyPath = path + "." + k
		}

		childMap, childIsMap := v.(map[string]any)
		parentMap, parentIsMap := result[k].(map[string]any)
		if childIsMap && parentIsMap && !wholesaleKeys[keyPath] {
			result[k] = mergeSettings(parentMap, childMap, keyPath)
			continue
		}
		result[k] = v
	}
	return result
}
