package settings

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"

	logger "github.com/sirupsen/logrus"
)

// Policy is the reporting configuration for one request. LoadPolicy fills
// every field, so stages read it without merging defaults of their own.
type Policy struct {
	Enabled              bool
	APIKey               string
	ReportNonFatal       bool
	ReportDeprecations   bool
	SendTestNotification bool

	JSEnabled              bool
	JSAPIKey               string
	JSReportData           bool
	JSSendTestNotification bool

	Environment string
	Version     string
	Endpoint    string
	AppEndpoint string // Insights endpoint override, empty means the backend default
}

// LoadPolicy reads every key from store. When the store fails the
// returned policy is built from Defaults and the error is returned
// alongside it so callers can keep serving.
func LoadPolicy(ctx context.Context, store Store) (Policy, error) {
	values := make(map[string]string, len(Defaults))
	var errs []error
	for _, key := range Keys() {
		v, err := store.Get(ctx, key, Defaults[key])
		if err != nil {
			errs = append(errs, fmt.Errorf("get %s: %w", key, err))
			v = Defaults[key]
		}
		values[key] = v
	}

	err := errors.Join(errs...)
	if err != nil {
		logger.WithError(err).Warn("[settings] store read failed, using defaults")
	}

	return FromValues(values), err
}

// FromValues builds a fully defaulted policy from raw store values.
func FromValues(values map[string]string) Policy {
	config := GetConfig()
	get := func(key string) string {
		if v, ok := values[key]; ok {
			return strings.TrimSpace(v)
		}
		return Defaults[key]
	}

	p := Policy{
		Enabled:                parseBool(get(KeyPHPEnabled)),
		APIKey:                 get(KeyPHPAPIKey),
		ReportNonFatal:         parseBool(get(KeyPHPReportNonFatal)),
		ReportDeprecations:     parseBool(get(KeyPHPReportDeprecations)),
		SendTestNotification:   parseBool(get(KeyPHPSendTestNotification)),
		JSEnabled:              parseBool(get(KeyJSEnabled)),
		JSAPIKey:               get(KeyJSAPIKey),
		JSReportData:           parseBool(get(KeyJSReportData)),
		JSSendTestNotification: parseBool(get(KeyJSSendTestNotification)),
		Environment:            get(KeyEnvironmentName),
		Version:                get(KeyVersion),
		Endpoint:               get(KeyEndpoint),
		AppEndpoint:            get(KeyAppEndpoint),
	}

	if p.Environment == "" {
		p.Environment = config.DefaultEnvironment
	}
	if p.Version == "" {
		p.Version = BuildVersion()
	}
	if p.Endpoint == "" {
		p.Endpoint = config.DefaultEndpoint
	}
	return p
}

// BuildVersion is the fallback application version: the VCS revision
// stamped into the binary, else the main module version.
func BuildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			return s.Value
		}
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	return "dev"
}

func parseBool(v string) bool {
	b, err := ParseBool(v)
	return err == nil && b
}

// ParseBool accepts the spellings the settings form and the PHP side use.
func ParseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no", "off":
		return false, nil
	case "1", "true", "yes", "on":
		return true, nil
	}
	return strconv.ParseBool(v)
}
