package ratelimit

import (
	"os"
	"time"

	"emperror.dev/errors"
	"gopkg.in/yaml.v3"

	"portfolio/api/models"
)

// DefaultCategory is used for any category missing from the policy table.
const DefaultCategory = "api_general"

// Policy is the quota of one operation category.
type Policy struct {
	MaxRequests int
	Window      time.Duration
}

// Policies maps an operation category to its quota.
type Policies map[string]Policy

// DefaultPolicies returns the built-in table.
func DefaultPolicies() Policies {
	return Policies{
		"contact_send_message":  {MaxRequests: 5, Window: 5 * time.Minute},
		"contact_book_call":     {MaxRequests: 3, Window: 5 * time.Minute},
		"review_create":         {MaxRequests: 2, Window: time.Hour},
		"newsletter_subscribe":  {MaxRequests: 3, Window: time.Hour},
		"resume_download":       {MaxRequests: 10, Window: time.Hour},
		"admin_login":           {MaxRequests: 5, Window: 5 * time.Minute},
		"admin_change_password": {MaxRequests: 3, Window: time.Hour},
		DefaultCategory:         {MaxRequests: 100, Window: time.Hour},
	}
}

// Lookup returns the policy for category, falling back to the default category.
func (p Policies) Lookup(category string) Policy {
	if policy, ok := p[category]; ok {
		return policy
	}
	return p[DefaultCategory]
}

// Configs describes the table for the rate-limit stats report.
func (p Policies) Configs() map[string]models.PolicyConfig {
	out := make(map[string]models.PolicyConfig, len(p))
	for category, policy := range p {
		seconds := int(policy.Window / time.Second)
		out[category] = models.PolicyConfig{
			MaxRequests:   policy.MaxRequests,
			WindowSeconds: seconds,
			WindowMinutes: seconds / 60,
		}
	}
	return out
}

// Validate rejects tables without a default entry or with a non-positive quota.
func (p Policies) Validate() error {
	var errs error

	if _, ok := p[DefaultCategory]; !ok {
		errs = errors.Append(errs, errors.Errorf("policy %q is required", DefaultCategory))
	}

	for category, policy := range p {
		if policy.MaxRequests < 1 {
			errs = errors.Append(errs, errors.Errorf("policy %q: requests must be positive", category))
		}
		if policy.Window < time.Second {
			errs = errors.Append(errs, errors.Errorf("policy %q: window must be at least one second", category))
		}
	}

	return errs
}

type policyFileEntry struct {
	Requests int `yaml:"requests"`
	Window   int `yaml:"window"`
}

// LoadPolicies merges the YAML overrides in path over the default table.
// The file maps category names to {requests, window} with window in seconds.
func LoadPolicies(path string) (Policies, error) {
	policies := DefaultPolicies()
	if path == "" {
		return policies, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIf(err, "failed to read rate limit policy file")
	}

	var entries map[string]policyFileEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, errors.WrapIf(err, "failed to parse rate limit policy file")
	}

	for category, entry := range entries {
		policies[category] = Policy{
			MaxRequests: entry.Requests,
			Window:      time.Duration(entry.Window) * time.Second,
		}
	}

	if err := policies.Validate(); err != nil {
		return nil, err
	}

	return policies, nil
}
