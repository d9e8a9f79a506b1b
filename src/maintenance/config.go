package maintenance

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LoopPeriod            time.Duration `envconfig:"MAINTENANCE_PERIOD" default:"1h"`
	Retention             time.Duration `envconfig:"FAILURE_RETENTION" default:"720h"`
	RetryTestNotification bool          `envconfig:"RETRY_TEST_NOTIFICATION" default:"true"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
