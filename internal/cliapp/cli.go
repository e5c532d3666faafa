package cliapp

import (
	"flag"
	"io"
)

const defaultConfigPath = "./autoload.toml"

type cliOptions struct {
	configPath  string
	envFile     string
	root        string
	format      string
	dryRun      bool
	watch       bool
	history     int
	metricsFile string
	verbose     bool
	version     bool
	args        []string
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("autoload", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.StringVar(&opts.envFile, "env-file", ".env", "Environment file with AUTOLOAD_* overrides")
	fs.StringVar(&opts.root, "root", "", "Installation root (overrides paths.install_root)")
	fs.StringVar(&opts.format, "format", "", "Artifact format: php or json")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Render artifacts without writing them")
	fs.BoolVar(&opts.watch, "watch", false, "Regenerate whenever package sources change")
	fs.IntVar(&opts.history, "history", 0, "Print the last N generation runs and exit")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after each run")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	return opts, nil
}
