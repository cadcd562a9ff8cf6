package config

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TaxRuleCache persists fetched remote label sets with their fetch time.
type TaxRuleCache interface {
	SaveTaxRuleCache(formName, payload string, fetchedAt time.Time) error
	GetTaxRuleCache(formName string) (string, time.Time, error)
}

// TaxRuleResolver resolves tax-deduction labels through the
// country x provider x purpose cascade, optionally overlaying a cached
// remote label set underneath the local settings.
type TaxRuleResolver struct {
	cache  TaxRuleCache
	client *http.Client
	now    func() time.Time
}

// NewTaxRuleResolver creates a resolver. The cache may be nil when no form
// consumes a remote label set.
func NewTaxRuleResolver(cache TaxRuleCache) *TaxRuleResolver {
	return &TaxRuleResolver{
		cache:  cache,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
}

// ResolveLabels returns the effective label set for a donor. More specific
// layers overwrite overlapping keys of more general ones; locale maps are
// reduced to a single string by the donor's language.
func (r *TaxRuleResolver) ResolveLabels(form *FormConfig, countryCode, provider, purpose, language string) map[string]string {
	tree := form.Payment.Labels.TaxDeduction

	if form.TaxDeductionRemote != nil {
		if remote := r.remoteTree(form); remote != nil {
			// Local settings always win over the remote overlay.
			tree = overlayMerge(remote, tree)
		}
	}
	if tree == nil {
		return nil
	}

	countryCode = strings.ToLower(countryCode)
	purpose = strings.ToLower(purpose)
	provider = strings.ToLower(provider)

	result := map[string]string{}
	for _, c := range cascadeSteps(countryCode) {
		countryLevel, ok := tree[c].(map[string]any)
		if !ok {
			continue
		}
		for _, p := range cascadeSteps(provider) {
			providerLevel, ok := countryLevel[p].(map[string]any)
			if !ok {
				continue
			}
			for _, u := range cascadeSteps(purpose) {
				labels, ok := providerLevel[u].(map[string]any)
				if !ok {
					continue
				}
				for key, value := range labels {
					result[key] = localizedLabel(value, language)
				}
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// LocalLabelTree returns the form's own tax-deduction tree, used by the
// sharing endpoint. Nil when the form has no tax-deduction configuration.
func LocalLabelTree(form *FormConfig) map[string]any {
	return form.Payment.Labels.TaxDeduction
}

// remoteTree returns the remote label set, refreshing the cache when the
// TTL has elapsed. A failed refresh serves the stale cache.
func (r *TaxRuleResolver) remoteTree(form *FormConfig) map[string]any {
	if r.cache == nil {
		return nil
	}

	remote := form.TaxDeductionRemote
	ttl := time.Duration(remote.TTL) * time.Hour
	if remote.TTL <= 0 {
		ttl = 24 * time.Hour
	}

	payload, fetchedAt, err := r.cache.GetTaxRuleCache(form.Name)
	stale := err != nil || r.now().Sub(fetchedAt) >= ttl

	if stale {
		if fresh, fetchErr := r.fetchRemote(remote); fetchErr == nil {
			payload = fresh
			_ = r.cache.SaveTaxRuleCache(form.Name, fresh, r.now())
		} else if err != nil {
			// No cache to fall back on.
			return nil
		}
	}

	var tree map[string]any
	if json.Unmarshal([]byte(payload), &tree) != nil {
		return nil
	}
	return tree
}

func (r *TaxRuleResolver) fetchRemote(remote *RemoteTaxSource) (string, error) {
	endpoint := remote.Endpoint
	if remote.Form != "" {
		u, err := url.Parse(endpoint)
		if err != nil {
			return "", fmt.Errorf("invalid remote endpoint: %w", err)
		}
		q := u.Query()
		q.Set("form", remote.Form)
		u.RawQuery = q.Encode()
		endpoint = u.String()
	}

	resp, err := r.client.Get(endpoint)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("remote tax rules returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// cascadeSteps yields the lookup keys for one axis: always "default" first,
// then the specific value when present.
func cascadeSteps(value string) []string {
	if value == "" || value == "default" {
		return []string{"default"}
	}
	return []string{"default", value}
}

// localizedLabel reduces a label value to a single string. Locale maps pick
// the donor language, falling back to the map's first entry in key order.
func localizedLabel(value any, language string) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v[strings.ToLower(language)].(string); ok {
			return s
		}
		first := ""
		for _, k := range sortedKeys(v) {
			if s, ok := v[k].(string); ok {
				first = s
				break
			}
		}
		return first
	default:
		return fmt.Sprintf("%v", value)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

// overlayMerge deep-merges local over remote, local winning on conflicts.
func overlayMerge(remote, local map[string]any) map[string]any {
	if local == nil {
		return remote
	}
	result := make(map[string]any, len(remote)+len(local))
	for k, v := range remote {
		result[k] = v
	}
	for k, v := range local {
		localMap, localIsMap := v.(map[string]any)
		remoteMap, remoteIsMap := result[k].(map[string]any)
		if localIsMap && remoteIsMap {
			result[k] = overlayMerge(remoteMap, localMap)
			continue
		}
		result[k] = v
	}
	return result
}
