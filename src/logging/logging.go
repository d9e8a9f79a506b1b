// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
	logger "github.com/sirupsen/logrus"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

type Config struct {
	Level  string `envconfig:"LOG_LEVEL" default:"debug"`
	Format string `envconfig:"LOG_FORMAT" default:"text"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

// Setup applies cfg to the standard logger. An unknown level falls back
// to debug.
func Setup(cfg Config) {
	level, err := logger.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logger.DebugLevel
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case FormatJSON:
		logger.SetFormatter(&logger.JSONFormatter{})
	default:
		logger.SetFormatter(&logger.TextFormatter{
			FullTimestamp: true,
		})
	}
}
