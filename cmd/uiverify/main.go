package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chat-archive/uiverify/internal/config"
	"github.com/chat-archive/uiverify/internal/version"
)

// errVerificationFailed is returned in strict mode so the process exits non-zero.
var errVerificationFailed = errors.New("verification failed")

var (
	v          = config.NewViper()
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "uiverify",
	Short: "Mobile UI smoke check for the chat archive viewer",
	Long: `uiverify drives a headless browser emulating a mobile device through the
chat archive viewer: conversation list, chat view and back to the list.

Each checkpoint is captured as a screenshot. Any failure is logged and
captured as error.png; the run still exits 0 unless --strict is set.`,
	Version:      version.String(),
	SilenceUsage: true,
	RunE:         runVerify,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the verification once (default command)",
	RunE:  runVerify,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "uiverify %s\n", version.Full())
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "YAML config file (optional)")
	pf.String("base-url", "http://localhost:3000/", "URL of the application under test")
	pf.String("output-dir", "jules-scratch/verification", "Directory screenshots and the report are written to")
	pf.String("device", "iPhone 11", "Device profile to emulate")
	pf.String("engine", "chromium", "Browser engine: chromium, firefox or webkit")
	pf.Bool("headless", true, "Run the browser headless")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "console", "Log format: console or json")
	pf.Bool("strict", false, "Exit non-zero when verification fails")
	pf.String("metrics-file", "", "Write Prometheus metrics to this textfile after each run")

	bindFlags(map[string]string{
		"target.base_url":     "base-url",
		"output.dir":          "output-dir",
		"browser.device":      "device",
		"browser.engine":      "engine",
		"browser.headless":    "headless",
		"logging.level":       "log-level",
		"logging.format":      "log-format",
		"strict":              "strict",
		"output.metrics_file": "metrics-file",
	})

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(fixtureCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(versionCmd)
}

func bindFlags(keys map[string]string) {
	for key, flag := range keys {
		if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
