package testnotify

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Platform version reported with the notification.
	PlatformVersion string `envconfig:"PLATFORM_VERSION" default:"hbrelay-cli"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
