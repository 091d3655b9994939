package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chat-archive/uiverify/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the outcome of the last run from its report.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rep, err := report.Read(cfg.Output.ArtifactPath(report.FileName))
		if err != nil {
			return err
		}
		printReport(cmd.OutOrStdout(), rep)
		if rep.Outcome != "passed" && cfg.Strict {
			return errVerificationFailed
		}
		return nil
	},
}

func printReport(w io.Writer, rep *report.Report) {
	fmt.Fprintf(w, "run %s: %s (%s)\n", rep.RunID, rep.Outcome, rep.Duration)
	fmt.Fprintf(w, "target %s on %s\n", rep.BaseURL, rep.Device)
	for _, s := range rep.Steps {
		line := fmt.Sprintf("  %-18s %-8s %s", s.Name, s.Status, s.Duration)
		if s.Error != "" {
			line += "  " + s.Error
		}
		fmt.Fprintln(w, line)
	}
	for _, a := range rep.Artifacts {
		fmt.Fprintf(w, "  %s %dx%d %d bytes\n", a.Path, a.Width, a.Height, a.Bytes)
	}
}
