package main

import (
	"context"
	"fmt"
	"os"

	"hbrelay/cmd/settingsio"
	"hbrelay/cmd/testnotify"
	"hbrelay/src/auth"
	"hbrelay/src/database"
	"hbrelay/src/logging"
	"hbrelay/src/maintenance"
	"hbrelay/src/repository"
	"hbrelay/src/server"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "hbrelay"
	app.Usage = "The Honeybadger relay command line interface"
	app.Version = Version
	app.Before = func(_ *cli.Context) error {
		logging.Setup(logging.GetConfig())
		return nil
	}

	app.Commands = []cli.Command{
		serveCMD,
		migrateCMD,
		testNotifyCMD,
		settingsCMD,
		hashTokenCMD,
		purgeFailuresCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	serveCMD = cli.Command{
		Name:        "serve",
		Usage:       "run the relay HTTP server",
		Action:      serveAction,
		Description: `Serve the ingest, browser config and admin routes`,
	}
	migrateCMD = cli.Command{
		Name:        "migrate",
		Usage:       "apply schema and data migrations",
		Action:      migrateAction,
		Description: `Connect to the database and run pending migrations`,
	}
	testNotifyCMD = cli.Command{
		Name:        "test-notify",
		Usage:       "send a test notification now",
		Action:      testNotifyAction,
		Description: `Request a test notification and deliver it through the pipeline`,
	}
	settingsCMD = cli.Command{
		Name:  "settings",
		Usage: "export, import or change settings",
		Subcommands: []cli.Command{
			{
				Name:   "export",
				Usage:  "write settings as YAML to stdout",
				Action: settingsExportAction,
			},
			{
				Name:   "import",
				Usage:  "read settings from a YAML file",
				Action: settingsImportAction,
				Flags: []cli.Flag{
					cli.StringFlag{Name: "file, f", Usage: "YAML document to import"},
				},
			},
			{
				Name:      "set",
				Usage:     "set one setting",
				ArgsUsage: "<key> <value>",
				Action:    settingsSetAction,
			},
		},
	}
	hashTokenCMD = cli.Command{
		Name:      "hash-token",
		Usage:     "print the bcrypt hash for ADMIN_TOKEN_HASH or INGEST_TOKEN_HASH",
		ArgsUsage: "<token>",
		Action:    hashTokenAction,
	}
	purgeFailuresCMD = cli.Command{
		Name:        "purge-failures",
		Usage:       "delete old delivery failures",
		Action:      purgeFailuresAction,
		Description: `Delete delivery failures older than FAILURE_RETENTION`,
	}
)

func initDB() error {
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to connect to database")
		return err
	}
	return nil
}

func serveAction(_ *cli.Context) error {
	logrus.Info("Starting relay server")
	if err := initDB(); err != nil {
		return err
	}
	server.StartServer(server.GetConfig())
	return nil
}

func migrateAction(_ *cli.Context) error {
	// InitMainDB migrates before returning.
	if err := initDB(); err != nil {
		return err
	}
	logrus.Info("Migrations applied")
	return nil
}

func testNotifyAction(_ *cli.Context) error {
	logrus.Info("Starting test-notify CMD")
	if err := initDB(); err != nil {
		return err
	}

	tn := &testnotify.TestNotify{
		Log:   logrus.WithField("cmd", "test-notify"),
		Store: repository.NewSettingRepository(),
	}
	if err := tn.Start(context.Background()); err != nil {
		logrus.WithError(err).Error("Test notification failed")
		return err
	}
	return nil
}

func newSettingsIO() (*settingsio.SettingsIO, error) {
	if err := initDB(); err != nil {
		return nil, err
	}
	return &settingsio.SettingsIO{
		Log:   logrus.WithField("cmd", "settings"),
		Store: repository.NewSettingRepository(),
	}, nil
}

func settingsExportAction(_ *cli.Context) error {
	s, err := newSettingsIO()
	if err != nil {
		return err
	}
	return s.Export(context.Background(), os.Stdout)
}

func settingsImportAction(c *cli.Context) error {
	path := c.String("file")
	if path == "" {
		return cli.NewExitError("--file is required", 2)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	s, err := newSettingsIO()
	if err != nil {
		return err
	}
	return s.Import(context.Background(), f)
}

func settingsSetAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.NewExitError("usage: settings set <key> <value>", 2)
	}

	s, err := newSettingsIO()
	if err != nil {
		return err
	}
	return s.Set(context.Background(), c.Args().Get(0), c.Args().Get(1))
}

func hashTokenAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: hash-token <token>", 2)
	}

	hash, err := auth.HashAdminToken(c.Args().First())
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func purgeFailuresAction(_ *cli.Context) error {
	if err := initDB(); err != nil {
		return err
	}

	l := maintenance.NewLoop(nil, repository.NewExceptionRepository())
	n, err := l.Purge(context.Background())
	if err != nil {
		logrus.WithError(err).Error("Purge failed")
		return err
	}
	logrus.WithField("cmd", "purge-failures").Infof("Removed %d delivery failures", n)
	return nil
}
