package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := newCommandContext()

	rootCmd := &cobra.Command{
		Use:           "wordcut",
		Short:         "Build a per-word video library and stitch sentences from it",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.configFlag, "config", "c", "config.yaml", "Configuration file path")
	flags.StringVar(&ctx.fallbackFlag, "fallback", "", "Word whose clip replaces unknown words (overrides config)")
	flags.IntVar(&ctx.concurrencyFlag, "concurrency", 0, "Maximum concurrent media operations (overrides config)")

	rootCmd.AddCommand(newRunCommand(ctx))
	for _, cmd := range newStageCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(newCompileCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))

	return rootCmd
}
