package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"astrotux/internal/api"
	"astrotux/internal/history"
	"astrotux/internal/textutil"
)

const historyMessageWidth = 60

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently delivered notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.Notifications.HistoryPath
			if path == "" {
				return errors.New("notifications.history_path is not set")
			}
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(cmd.OutOrStdout(), "No notifications recorded yet")
				return nil
			}

			store, err := history.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				out := make([]api.HistoryEntry, 0, len(entries))
				for _, entry := range entries {
					out = append(out, api.FromHistoryEntry(entry))
				}
				return writeJSON(cmd, out)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No notifications recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					entry.Handler,
					textutil.Label(entry.Kind.String()),
					textutil.Truncate(entry.Message, historyMessageWidth),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"Time", "Handler", "Event", "Message"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "Maximum number of entries")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
