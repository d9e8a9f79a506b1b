// Package enricher attaches request, platform and identity metadata to
// signals before they are delivered.
package enricher

import (
	"net/url"
	"runtime"
	"strings"
	"time"
	"unicode"

	"hbrelay/src/model"
	"hbrelay/src/settings"

	"github.com/google/uuid"
)

// IntegrationName marks every event produced by this relay.
const IntegrationName = "wordpress"

// Context keys.
const (
	KeyURL             = "url"
	KeyVersion         = "version"
	KeyPlatformVersion = "platform_version"
	KeyUserID          = "user_id"
	KeyUserEmail       = "user_email"
	KeyIntegration     = "integration"
)

// ambientKeys are owned by the enricher; signal context cannot replace them.
var ambientKeys = map[string]struct{}{
	KeyURL:             {},
	KeyVersion:         {},
	KeyPlatformVersion: {},
	KeyIntegration:     {},
}

// Ambient is what the host knows about the request a signal came from.
type Ambient struct {
	URL             string // raw request URL, empty outside a request
	PlatformVersion string // e.g. "WordPress 6.6.2 / PHP 8.3.1"
	Action          string // lifecycle hook active when the signal fired
	Identity        *model.Identity
}

// Enrich builds the event context for signal.
func Enrich(signal model.Signal, policy settings.Policy, ambient Ambient) model.EventContext {
	ctx := model.EventContext{
		KeyURL:             SanitizeURL(ambient.URL),
		KeyVersion:         version(policy),
		KeyPlatformVersion: platformVersion(ambient),
		KeyIntegration:     IntegrationName,
	}
	if ambient.Identity.Resolvable() {
		ctx[KeyUserID] = ambient.Identity.ID
		ctx[KeyUserEmail] = ambient.Identity.Email
	}

	for k, v := range signal.Context {
		if _, owned := ambientKeys[k]; owned {
			continue
		}
		ctx[k] = v
	}
	return ctx
}

// Build turns a classified signal into a deliverable event.
func Build(signal model.Signal, kind model.Kind, policy settings.Policy, ambient Ambient) model.Event {
	ctx := Enrich(signal, policy, ambient)
	var loc *model.Location
	if signal.Location != nil {
		l := *signal.Location
		loc = &l
	}
	return model.Event{
		ID:          uuid.NewString(),
		Class:       signal.ClassName(),
		Message:     signal.Message,
		Kind:        kind,
		Level:       signal.Level,
		Origin:      signal.Origin,
		Location:    loc,
		Context:     ctx,
		Component:   IntegrationName,
		Action:      ambient.Action,
		Environment: policy.Environment,
		Revision:    version(policy),
		URL:         ctx[KeyURL].(string),
		OccurredAt:  time.Now().UTC(),
	}
}

// SanitizeURL returns a transport-safe form of raw: control characters
// removed, only http(s) or scheme-less URLs kept, reserved characters
// percent-encoded. Anything unparseable becomes "".
func SanitizeURL(raw string) string {
	raw = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https":
	default:
		return ""
	}
	if u.Scheme == "" && u.Host == "" && !strings.HasPrefix(u.Path, "/") {
		return ""
	}
	u.User = nil
	return u.String()
}

func version(policy settings.Policy) string {
	if policy.Version != "" {
		return policy.Version
	}
	return settings.BuildVersion()
}

func platformVersion(ambient Ambient) string {
	if ambient.PlatformVersion != "" {
		return ambient.PlatformVersion
	}
	return runtime.Version()
}
