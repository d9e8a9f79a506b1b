package settings

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DefaultEnvironment string `envconfig:"HONEYBADGER_ENVIRONMENT" default:"production"`
	DefaultEndpoint    string `envconfig:"HONEYBADGER_ENDPOINT" default:"https://api.honeybadger.io"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
