package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string, string) (string, error) {
	return "", errors.New("db down")
}

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("db down")
}

func TestLoadPolicyDefaults(t *testing.T) {
	p, err := LoadPolicy(context.Background(), NewMemoryStore(nil))
	require.NoError(t, err)

	assert.False(t, p.Enabled)
	assert.False(t, p.ReportNonFatal)
	assert.False(t, p.ReportDeprecations)
	assert.True(t, p.JSReportData)
	assert.Equal(t, "production", p.Environment)
	assert.Equal(t, "https://api.honeybadger.io", p.Endpoint)
	assert.NotEmpty(t, p.Version)
}

func TestLoadPolicyOverrides(t *testing.T) {
	store := NewMemoryStore(map[string]string{
		KeyPHPEnabled:            "1",
		KeyPHPAPIKey:             "hbp_abc123",
		KeyPHPReportNonFatal:     "yes",
		KeyPHPReportDeprecations: "true",
		KeyEnvironmentName:       " staging ",
		KeyVersion:               "4.2.0",
		KeyEndpoint:              "https://eu-api.honeybadger.io",
		KeyAppEndpoint:           "https://eu-app.honeybadger.io",
	})

	p, err := LoadPolicy(context.Background(), store)
	require.NoError(t, err)

	assert.True(t, p.Enabled)
	assert.Equal(t, "hbp_abc123", p.APIKey)
	assert.True(t, p.ReportNonFatal)
	assert.True(t, p.ReportDeprecations)
	assert.Equal(t, "staging", p.Environment)
	assert.Equal(t, "4.2.0", p.Version)
	assert.Equal(t, "https://eu-api.honeybadger.io", p.Endpoint)
	assert.Equal(t, "https://eu-app.honeybadger.io", p.AppEndpoint)
}

func TestLoadPolicyStoreFailureFallsBack(t *testing.T) {
	p, err := LoadPolicy(context.Background(), failingStore{})
	require.Error(t, err)
	assert.False(t, p.Enabled)
	assert.Equal(t, "production", p.Environment)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		values  map[string]string
		current map[string]string
		fields  []string
	}{
		{name: "valid", values: map[string]string{KeyPHPEnabled: "true", KeyPHPAPIKey: "hbp_abcdef"}},
		{name: "malformed key", values: map[string]string{KeyPHPAPIKey: "bad key!"}, fields: []string{KeyPHPAPIKey}},
		{name: "enabled without key", values: map[string]string{KeyPHPEnabled: "on"}, fields: []string{KeyPHPAPIKey}},
		{name: "enabled with stored key", values: map[string]string{KeyJSEnabled: "true"}, current: map[string]string{KeyJSAPIKey: "hbp_stored"}},
		{name: "bad bool", values: map[string]string{KeyPHPReportNonFatal: "maybe"}, fields: []string{KeyPHPReportNonFatal}},
		{name: "bad endpoint", values: map[string]string{KeyEndpoint: "ftp://example.com"}, fields: []string{KeyEndpoint}},
		{name: "relative endpoint", values: map[string]string{KeyEndpoint: "/v1"}, fields: []string{KeyEndpoint}},
		{name: "app endpoint", values: map[string]string{KeyAppEndpoint: "https://eu-app.honeybadger.io"}},
		{name: "bad app endpoint", values: map[string]string{KeyAppEndpoint: "eu-app.honeybadger.io"}, fields: []string{KeyAppEndpoint}},
		{name: "unknown key", values: map[string]string{"color": "blue"}, fields: []string{"color"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.values, tc.current)
			if len(tc.fields) == 0 {
				require.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			for _, f := range tc.fields {
				assert.Contains(t, verr.Fields, f)
			}
		})
	}
}

func TestSaveRejectsWithoutWriting(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	err := Save(ctx, store, map[string]string{KeyPHPAPIKey: "hbp_good123", KeyEndpoint: "nope"})
	require.Error(t, err)

	v, _ := store.Get(ctx, KeyPHPAPIKey, "")
	assert.Empty(t, v)

	require.NoError(t, Save(ctx, store, map[string]string{KeyPHPAPIKey: " hbp_good123 "}))
	v, _ = store.Get(ctx, KeyPHPAPIKey, "")
	assert.Equal(t, "hbp_good123", v)
}

func TestSnapshotFailure(t *testing.T) {
	_, err := Snapshot(context.Background(), failingStore{})
	assert.Error(t, err)
}
