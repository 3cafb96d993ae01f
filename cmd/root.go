// Package cmd wires the healthflow command line.
package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "healthflow",
		Short:         "Conversational doctor appointment assistant",
		Long:          "healthflow serves a chat assistant that finds doctors, checks availability and books appointments, plus tools to seed demo data and chat from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newSeedCmd(),
		newChatCmd(),
	)

	return rootCmd
}
