package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"astrotux/internal/agent"
	"astrotux/internal/api"
	"astrotux/internal/config"
	"astrotux/internal/notifications"
	"astrotux/internal/textutil"
)

func newHandlersCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "handlers",
		Short: "List configured notification handlers",
		Long: "List handlers in broadcast order. When an agent answers on notifications.api_bind,\n" +
			"its live view is shown, including queue depth.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			infos, live := configuredHandlers(cfg), false
			if cfg.Notifications.APIBind != "" {
				client, err := api.NewClient(cfg.Notifications.APIBind, cfg.Notifications.APIToken)
				if err != nil {
					return err
				}
				if resp, err := client.Handlers(cmd.Context()); err == nil {
					infos, live = resp.Handlers, true
				} else if !api.IsUnavailable(err) {
					return err
				}
			}

			if jsonOutput {
				return writeJSON(cmd, infos)
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No handlers configured")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), renderHandlersTable(infos, live))
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func configuredHandlers(cfg *config.Config) []agent.HandlerInfo {
	infos := make([]agent.HandlerInfo, 0, len(cfg.Handlers))
	for _, h := range cfg.Handlers {
		events := h.Events
		if len(events) == 0 {
			events = kindNames()
		}
		infos = append(infos, agent.HandlerInfo{
			Name:   h.Name,
			Type:   h.Type,
			Queued: h.Queued,
			Record: h.Record || h.Type == config.HandlerHistory,
			Events: append([]string(nil), events...),
		})
	}
	return infos
}

func renderHandlersTable(infos []agent.HandlerInfo, live bool) string {
	headers := []string{"#", "Name", "Type", "Queued", "Record", "Events"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}
	if live {
		headers = append(headers, "Pending")
		aligns = append(aligns, alignRight)
	}
	all := len(notifications.AllEventKinds())
	rows := make([][]string, 0, len(infos))
	for i, info := range infos {
		events := "All"
		if len(info.Events) != all {
			labels := make([]string, len(info.Events))
			for j, event := range info.Events {
				labels[j] = textutil.Label(event)
			}
			events = strings.Join(labels, ", ")
		}
		row := []string{
			fmt.Sprintf("%d", i+1),
			info.Name,
			textutil.Label(info.Type),
			textutil.Ternary(info.Queued, "yes", "no"),
			textutil.Ternary(info.Record, "yes", "no"),
			events,
		}
		if live {
			row = append(row, fmt.Sprintf("%d", info.Pending))
		}
		rows = append(rows, row)
	}
	return renderTable(headers, rows, aligns)
}
