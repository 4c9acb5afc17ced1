package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "task-exporter",
	Short: "task-exporter copies annotation tasks into a spreadsheet.",
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}
