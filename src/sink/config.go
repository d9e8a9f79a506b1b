package sink

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Timeout         time.Duration `envconfig:"SINK_TIMEOUT" default:"10s"`
	RetryAttempts   int           `envconfig:"SINK_RETRY_ATTEMPTS" default:"3"`
	RetryBaseDelay  time.Duration `envconfig:"SINK_RETRY_BASE_DELAY" default:"500ms"`
	RetryMaxBackoff time.Duration `envconfig:"SINK_RETRY_MAX_BACKOFF" default:"4s"`
	NotifierName    string        `envconfig:"NOTIFIER_NAME" default:"hbrelay"`
	NotifierURL     string        `envconfig:"NOTIFIER_URL" default:"https://github.com/honeybadger-io/honeybadger-wordpress"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
