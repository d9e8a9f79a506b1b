// Package settingsio moves relay settings in and out of YAML documents.
package settingsio

import (
	"context"
	"fmt"
	"io"

	"hbrelay/src/settings"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var secretKeys = []string{settings.KeyPHPAPIKey, settings.KeyJSAPIKey}

// Document is the YAML layout, one scalar per setting key.
type Document struct {
	Settings map[string]string `yaml:"settings"`
}

type SettingsIO struct {
	Log    *logger.Entry
	Store  settings.Store
	Config *Config
}

func (s *SettingsIO) config() *Config {
	if s.Config == nil {
		s.Config = GetConfig()
	}
	return s.Config
}

// Export writes every setting to w.
func (s *SettingsIO) Export(ctx context.Context, w io.Writer) error {
	values, err := settings.Snapshot(ctx, s.Store)
	if err != nil {
		return err
	}
	if !s.config().IncludeSecrets {
		for _, k := range secretKeys {
			delete(values, k)
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Document{Settings: values}); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return enc.Close()
}

// Import validates the document read from r and saves it. Nothing is
// written when any field is rejected.
func (s *SettingsIO) Import(ctx context.Context, r io.Reader) error {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	if len(doc.Settings) == 0 {
		return fmt.Errorf("no settings in document")
	}

	if err := settings.Save(ctx, s.Store, doc.Settings); err != nil {
		return err
	}
	s.Log.WithField("keys", len(doc.Settings)).Info("settings imported")
	return nil
}

// Set saves a single key.
func (s *SettingsIO) Set(ctx context.Context, key, value string) error {
	return settings.Save(ctx, s.Store, map[string]string{key: value})
}
