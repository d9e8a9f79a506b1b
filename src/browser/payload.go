// Package browser renders the configuration handed to the JavaScript
// reporter through a page script tag.
package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"hbrelay/src/model"
	"hbrelay/src/settings"

	logger "github.com/sirupsen/logrus"
)

// Payload is the configuration object read by the browser script.
type Payload struct {
	APIKey               string `json:"apiKey"`
	Environment          string `json:"environment"`
	Revision             string `json:"revision"`
	ReportData           bool   `json:"reportData"`
	SendTestNotification bool   `json:"sendTestNotification,omitempty"`
}

// User is the optional identity object.
type User struct {
	ID    string `json:"user_id"`
	Email string `json:"user_email"`
}

// Build assembles the payload for policy. identity is attached only when
// it resolves to a non-empty id.
func Build(policy settings.Policy, identity *model.Identity) (Payload, *User) {
	p := Payload{
		APIKey:               policy.JSAPIKey,
		Environment:          policy.Environment,
		Revision:             policy.Version,
		ReportData:           policy.JSReportData,
		SendTestNotification: policy.JSSendTestNotification,
	}
	if !identity.Resolvable() {
		return p, nil
	}
	return p, &User{ID: identity.ID, Email: identity.Email}
}

// Render returns the script body assigning the payload to window globals.
func Render(payload Payload, user *User) (string, error) {
	var buf bytes.Buffer

	cfg, err := marshalScript(payload)
	if err != nil {
		return "", fmt.Errorf("encode browser config: %w", err)
	}
	fmt.Fprintf(&buf, "window.honeybadgerConfig = %s;\n", cfg)

	if user != nil {
		u, err := marshalScript(user)
		if err != nil {
			return "", fmt.Errorf("encode browser user: %w", err)
		}
		fmt.Fprintf(&buf, "window.honeybadgerUser = %s;\n", u)
	}
	return buf.String(), nil
}

// marshalScript encodes v for a <script> context. encoding/json already
// writes <, >, &, U+2028 and U+2029 as \u escapes, which keeps the value
// from closing the tag or breaking the statement.
func marshalScript(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// RenderForRequest builds and renders the payload for one page view. A
// pending JS test notification is emitted once and then reset in store.
func RenderForRequest(ctx context.Context, store settings.Store, policy settings.Policy, identity *model.Identity) (string, error) {
	if !policy.JSEnabled {
		return "", nil
	}

	payload, user := Build(policy, identity)
	script, err := Render(payload, user)
	if err != nil {
		return "", err
	}

	if payload.SendTestNotification && store != nil {
		if err := store.Set(ctx, settings.KeyJSSendTestNotification, "false"); err != nil {
			logger.WithError(err).Error("[browser] failed to reset js test notification flag")
		}
	}
	return script, nil
}
