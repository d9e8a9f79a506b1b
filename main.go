package main

import (
	"fmt"
	"os"
	"time"

	"hbrelay/src/database"
	"hbrelay/src/logging"
	"hbrelay/src/server"

	logger "github.com/sirupsen/logrus"
)

var APP_NAME = os.Getenv("APP_NAME")

func main() {
	logging.Setup(logging.GetConfig())
	defer handlePanic()

	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	server.StartServer(server.GetConfig())
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
	//nolint
	time.Sleep(time.Second * 5)
}
