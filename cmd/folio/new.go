package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jamgar/folio/scaffold"
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "Create a new folio site",
		ArgsUsage: "<name>",
		Action: func(ctx context.Context, c *cli.Command) error {
			name := c.Args().First()
			if name == "" {
				return fmt.Errorf("usage: folio new <name>")
			}
			return runNew(name)
		},
	}
}

func runNew(name string) error {
	fmt.Printf("Creating new folio site: %s\n\n", name)
	created, err := scaffold.Write(name, scaffold.NewData(name))
	if err != nil {
		return err
	}
	for _, f := range created {
		fmt.Printf("  created %s\n", f)
	}

	fmt.Println()
	fmt.Println("Done! Next steps:")
	fmt.Println()
	fmt.Printf("  cd %s\n", name)
	fmt.Println("  folio serve --watch")
	fmt.Println()
	fmt.Println("Edit source/ and data/projects.yml, then open http://localhost:4567.")
	return nil
}
