package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/gommon/log"
	"github.com/urfave/cli/v3"

	"github.com/jamgar/folio"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	app := &cli.Command{
		Name:  "folio",
		Usage: "Build a portfolio and blog into a static site",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: "config.toml",
			},
		},
		Commands: []*cli.Command{
			newCommand(),
			buildCommand(),
			serveCommand(),
			checkCommand(),
			versionCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openApp loads the config named by --config and opens the site.
func openApp(c *cli.Command) (*folio.App, error) {
	cfg, err := folio.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	logger := log.New("folio")
	logger.SetHeader("${time_rfc3339} ${level}")
	if c.Bool("debug") {
		logger.SetLevel(log.DEBUG)
	} else {
		logger.SetLevel(log.INFO)
	}
	app := folio.New(cfg, folio.WithLogger(logger))
	if err := app.Open(); err != nil {
		return nil, err
	}
	return app, nil
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the folio version",
		Action: func(ctx context.Context, c *cli.Command) error {
			fmt.Printf("folio %s\n", version)
			return nil
		},
	}
}
