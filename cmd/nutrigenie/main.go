// Command nutrigenie is the NutriGénie nutrition assistant.
package main

import (
	"fmt"
	"os"

	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driving/cli"
	"github.com/nutrigenie/nutrigenie-cli/internal/app"
)

var _ cli.Services = (*app.App)(nil)

func main() {
	cli.SetServiceFactory(func(opts cli.ServiceOptions) (cli.Services, error) {
		return app.New(app.Options{
			ConfigDir: opts.ConfigDir,
			EnvFiles:  opts.EnvFiles,
		})
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
