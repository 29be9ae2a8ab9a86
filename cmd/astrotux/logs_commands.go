package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"astrotux/internal/logging"
	"astrotux/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Inspect agent log files",
	}
	logsCmd.AddCommand(newLogsPathCommand(ctx))
	logsCmd.AddCommand(newLogsTailCommand(ctx))
	return logsCmd
}

func newLogsPathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the path the next agent run will log to",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := logging.LogfilePath(cfg.Logging.Dir, cfg.Logging.BaseName, "log")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newLogsTailCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the end of the most recent log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := logs.Latest(cfg.Logging.Dir, cfg.Logging.BaseName)
			if err != nil {
				if errors.Is(err, logs.ErrNoLogs) {
					fmt.Fprintln(cmd.OutOrStdout(), "No log files yet")
					return nil
				}
				return err
			}
			tail, offset, err := logs.Tail(path, lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	return cmd
}
