package main

import (
	"errors"
	"fmt"
	"os"

	"yamlconfig-tool/internal/app"
	"yamlconfig-tool/internal/logging"
)

// main is the entry point: load one document and dump the result, per
// internal/app.AppRunner.Run.
func main() {
	runner := app.NewAppRunner()

	err := runner.Run(os.Args[1:])
	if err != nil {
		printUsage := errors.Is(err, app.ErrUsage) || errors.Is(err, app.ErrConfigNotFound)
		if printUsage {
			fmt.Fprintln(os.Stderr, "")
			runner.Usage(os.Stderr)
		}
		logging.Logf(logging.Error, "yamlconfig-tool failed: %v", err)
		os.Exit(1)
	}
}
