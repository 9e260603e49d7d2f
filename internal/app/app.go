// Package app wires the loader and emitter into a CLI runner, in the same
// factory-function-variable, sentinel-error, flag.FlagSet shape as
// brian-c-moore-etl-tool/internal/app's AppRunner.
package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"yamlconfig-tool/internal/emit"
	"yamlconfig-tool/internal/loader"
	"yamlconfig-tool/internal/logging"
)

// Sentinel errors, matching the teacher's ErrUsage/ErrConfigNotFound
// split so main can decide whether to print usage.
var (
	ErrUsage          = errors.New("usage error")
	ErrConfigNotFound = errors.New("configuration document not found")
)

// Factory variables, overridable in tests the way the teacher overrides
// newInputReaderFunc/newProcessorFunc.
var (
	newLoaderFunc = loader.New
	newRunID      = uuid.NewString
)

// AppRunner encapsulates the loader/emitter execution logic.
type AppRunner struct{}

// NewAppRunner creates a new instance of the application runner.
func NewAppRunner() *AppRunner {
	return &AppRunner{}
}

const usageText = `Usage:
  yamlconfig-tool -f <path> [options]

Options:
  -f <path>             YAML document to load (required)
  -var key=value         Substitution override, repeatable
  -no-clear-secrets      Do not reset the secret registry before loading
  -out <path>            Write the dumped result to a file instead of stdout
  -loglevel <level>      none|error|warn|info|debug (default info)
  -help                  Show this help
`

// Usage prints the command-line help information to writer.
func (a *AppRunner) Usage(writer io.Writer) {
	fmt.Fprint(writer, usageText)
}

type varFlags struct {
	entries map[string]string
}

func (v *varFlags) String() string {
	if v == nil {
		return ""
	}
	parts := make([]string, 0, len(v.entries))
	for k, val := range v.entries {
		parts = append(parts, k+"="+val)
	}
	return strings.Join(parts, ",")
}

func (v *varFlags) Set(s string) error {
	k, val, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("invalid -var %q: expected key=value", s)
	}
	if v.entries == nil {
		v.entries = map[string]string{}
	}
	v.entries[k] = val
	return nil
}

// Run parses command-line arguments and executes one load/dump cycle.
func (a *AppRunner) Run(args []string) error {
	runID := newRunID()

	fs := flag.NewFlagSet("yamlconfig-tool", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	filePath := fs.String("f", "", "YAML document to load")
	outPath := fs.String("out", "", "Write result to this path instead of stdout")
	noClearSecrets := fs.Bool("no-clear-secrets", false, "Do not reset the secret registry before loading")
	logLevelStr := fs.String("loglevel", "info", "Logging level")
	helpFlag := fs.Bool("help", false, "Show help")
	var vars varFlags
	fs.Var(&vars, "var", "Substitution override key=value, repeatable")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			a.Usage(os.Stderr)
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if *helpFlag || *filePath == "" {
		a.Usage(os.Stderr)
		if *filePath == "" {
			return ErrUsage
		}
		return nil
	}

	logging.SetupLogging(*logLevelStr)
	logging.Logf(logging.Info, "run %s: loading %s", runID, *filePath)

	if _, err := os.Stat(*filePath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, *filePath)
		}
		return fmt.Errorf("failed to stat %q: %w", *filePath, err)
	}

	ld := newLoaderFunc()

	env, err := ld.LoadVars(*filePath, vars.entries)
	if err != nil {
		return fmt.Errorf("run %s: loading substitutions: %w", runID, err)
	}

	root, err := ld.Load(*filePath, !*noClearSecrets, env)
	if err != nil {
		return fmt.Errorf("run %s: loading document: %w", runID, err)
	}

	out, err := emit.NewDumper(ld.Secrets).Dump(root)
	if err != nil {
		return fmt.Errorf("run %s: dumping result: %w", runID, err)
	}

	if *outPath == "" {
		fmt.Print(out)
		return nil
	}
	if err := os.WriteFile(*outPath, []byte(out), 0o644); err != nil {
		return fmt.Errorf("run %s: writing %s: %w", runID, *outPath, err)
	}
	logging.Logf(logging.Info, "run %s: wrote %s", runID, *outPath)
	return nil
}
