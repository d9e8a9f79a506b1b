package settingsio

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Export API keys in clear text instead of omitting them.
	IncludeSecrets bool `envconfig:"EXPORT_INCLUDE_SECRETS" default:"false"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
