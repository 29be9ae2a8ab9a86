package main

import (
	"github.com/spf13/cobra"

	"astrotux/internal/daemonrun"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		logLevel  string
		noConsole bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the notification agent in the foreground",
		Long: "Run the agent until interrupted. A start event is sent on boot and a shutdown\n" +
			"event on SIGINT/SIGTERM. Each line typed on stdin is broadcast as a command event.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts := daemonrun.Options{
				LogLevel: logLevel,
				Stdout:   cmd.OutOrStdout(),
			}
			if !noConsole {
				opts.Input = cmd.InOrStdin()
			}
			return daemonrun.Run(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level for this run")
	cmd.Flags().BoolVar(&noConsole, "no-console", false, "Do not read commands from stdin")
	return cmd
}
