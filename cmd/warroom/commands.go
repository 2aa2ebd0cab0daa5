// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"

	"github.com/intelfuse/warroom/pkg/logging"
)

// --- Global Command Variables ---
var (
	serverURL  string
	outputJSON bool
	exportPath string
	verbose    bool
	logDir     string

	cliLog = logging.Default()

	rootCmd = &cobra.Command{
		Use:   "warroom",
		Short: "A cli for the warroom conflict escalation assessment service",
		Long: `Warroom fuses market, movement, media, imagery and social
				signals into a single conflict escalation assessment.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logging.LevelWarn
			if verbose {
				level = logging.LevelDebug
			}
			cliLog = logging.New(logging.Config{
				Level:   level,
				Service: "cli",
				LogDir:  logDir,
			})
		},
	}

	analyzeCmd = &cobra.Command{
		Use:   "analyze [conflict]",
		Short: "Run one full assessment for a conflict and print the brief",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAnalyzeCommand, // Defined in cmd_analyze.go
	}

	watchCmd = &cobra.Command{
		Use:   "watch [conflict]",
		Short: "Stream recurring assessments for a conflict until interrupted",
		Args:  cobra.MinimumNArgs(1),
		Run:   runWatchCommand, // Defined in cmd_watch.go
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Check service liveness and the configured reasoning backend",
		Run:   runStatusCommand, // Defined in cmd_status.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:12300",
		"Base URL of the analysis service")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "",
		"Also write JSON logs to this directory")

	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&outputJSON, "json", false, "Print the raw assessment JSON instead of the rendered brief")
	analyzeCmd.Flags().StringVar(&exportPath, "export", "", "Also write the plaintext intelligence brief to this file")

	rootCmd.AddCommand(watchCmd)

	rootCmd.AddCommand(statusCmd)
}
