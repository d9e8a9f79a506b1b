package server

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port            string        `envconfig:"PORT" default:"9898"`
	AdminTokenHash  string        `envconfig:"ADMIN_TOKEN_HASH"`
	IngestTokenHash string        `envconfig:"INGEST_TOKEN_HASH"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
	NoticeCapacity  int           `envconfig:"NOTICE_CAPACITY" default:"200"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
