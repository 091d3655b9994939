package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chat-archive/uiverify/internal/browser"
	"github.com/chat-archive/uiverify/internal/logging"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the device profiles available for --device",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := logging.New(cfg.Logging)
		defer func() { _ = logger.Sync() }()

		names, err := browser.NewLauncher(cfg.Browser, logger).DeviceNames()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}
