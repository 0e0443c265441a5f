package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/jamgar/folio"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	summaryStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Build the site into the build directory",
		Action: func(ctx context.Context, c *cli.Command) error {
			app, err := openApp(c)
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.Build(ctx)
			if err != nil {
				return err
			}
			fmt.Println(renderSummary(app.Config.BuildPath(), res))
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Build the site and serve it locally",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Rebuild when source, data or config change",
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides config)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			app, err := openApp(c)
			if err != nil {
				return err
			}
			defer app.Close()
			if addr := c.String("addr"); addr != "" {
				app.Config.Addr = addr
			}

			res, err := app.Build(ctx)
			if err != nil {
				return err
			}
			root, addr := app.Config.BuildPath(), app.Config.Addr
			fmt.Println(renderSummary(root, res))

			// The server and the log lines below use root and addr; only
			// the watcher touches app.Config from here on.
			e := app.Server()
			var wg sync.WaitGroup
			if c.Bool("watch") {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := app.Watch(ctx, func(res folio.BuildResult, err error) {
						if err != nil {
							app.Logger.Errorf("rebuild failed: %v", err)
							return
						}
						fmt.Println(renderSummary(root, res))
					})
					if err != nil {
						app.Logger.Errorf("watch: %v", err)
					}
				}()
			}

			go func() {
				<-ctx.Done()
				_ = e.Shutdown(context.Background())
			}()
			app.Logger.Infof("serving %s on %s", root, addr)
			err = e.Start(addr)
			wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Report built pages missing elements the page script needs",
		Action: func(ctx context.Context, c *cli.Command) error {
			app, err := openApp(c)
			if err != nil {
				return err
			}
			defer app.Close()

			reports, err := app.Check()
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				fmt.Println(titleStyle.Render("All pages carry the script hooks."))
				return nil
			}
			for _, r := range reports {
				fmt.Printf("%s %s\n", warnStyle.Render(r.OutputPath), metaStyle.Render("missing #"+strings.Join(r.Missing, ", #")))
			}
			return fmt.Errorf("%d pages missing script hooks", len(reports))
		},
	}
}

func renderSummary(dir string, res folio.BuildResult) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Built " + dir))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d pages, %d articles\n", res.Pages, res.Articles)
	b.WriteString(metaStyle.Render(fmt.Sprintf("%d written · %d unchanged · %d removed · %s",
		res.Written, res.Skipped, res.Removed, res.Duration.Round(time.Millisecond))))
	return summaryStyle.Render(b.String())
}
