package settings

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

const maxEnvironmentLen = 100

var reAPIKey = regexp.MustCompile(`^[A-Za-z0-9_-]{6,64}$`)

// ValidationError lists every rejected field of a settings save.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid settings: " + strings.Join(parts, "; ")
}

// Validate checks a candidate settings update. Keys missing from values
// keep their current value in current, which is used for cross-field rules.
func Validate(values, current map[string]string) error {
	fields := map[string]string{}

	merged := make(map[string]string, len(Defaults))
	for k, v := range Defaults {
		merged[k] = v
	}
	for k, v := range current {
		merged[k] = v
	}

	for k, v := range values {
		if _, ok := Defaults[k]; !ok {
			fields[k] = "unknown setting"
			continue
		}
		v = strings.TrimSpace(v)
		merged[k] = v

		if IsBool(k) {
			if _, err := ParseBool(v); err != nil {
				fields[k] = "must be a boolean"
			}
			continue
		}

		switch k {
		case KeyPHPAPIKey, KeyJSAPIKey:
			if v != "" && !reAPIKey.MatchString(v) {
				fields[k] = "malformed API key"
			}
		case KeyEndpoint, KeyAppEndpoint:
			if v != "" {
				u, err := url.Parse(v)
				if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
					fields[k] = "must be an absolute http(s) URL"
				}
			}
		case KeyEnvironmentName:
			if len(v) > maxEnvironmentLen {
				fields[k] = fmt.Sprintf("must be at most %d characters", maxEnvironmentLen)
			}
		}
	}

	if parseBool(merged[KeyPHPEnabled]) && merged[KeyPHPAPIKey] == "" {
		if _, taken := fields[KeyPHPAPIKey]; !taken {
			fields[KeyPHPAPIKey] = "required when PHP reporting is enabled"
		}
	}
	if parseBool(merged[KeyJSEnabled]) && merged[KeyJSAPIKey] == "" {
		if _, taken := fields[KeyJSAPIKey]; !taken {
			fields[KeyJSAPIKey] = "required when JavaScript reporting is enabled"
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Snapshot reads the raw value of every known key.
func Snapshot(ctx context.Context, store Store) (map[string]string, error) {
	out := make(map[string]string, len(Defaults))
	for _, key := range Keys() {
		v, err := store.Get(ctx, key, Defaults[key])
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", key, err)
		}
		out[key] = v
	}
	return out, nil
}

// Save validates values against the stored settings and writes them.
// Nothing is written when validation fails.
func Save(ctx context.Context, store Store, values map[string]string) error {
	current, err := Snapshot(ctx, store)
	if err != nil {
		return err
	}
	if err := Validate(values, current); err != nil {
		return err
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := store.Set(ctx, k, strings.TrimSpace(values[k])); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return nil
}
