package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"astrotux/internal/agent"
	"astrotux/internal/api"
	"astrotux/internal/notifications"
)

func newSendCommand(ctx *commandContext) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "send <kind> [key=value...]",
		Short: "Broadcast one event to every handler",
		Long: "Broadcast one event. Kinds: " + strings.Join(kindNames(), ", ") + ".\n" +
			"Parameters fill template placeholders, e.g. `astrotux send player_join player=Ann`.\n" +
			"When notifications.api_bind is set and an agent answers there, the event is sent through it.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := notifications.ParseEventKind(args[0])
			if err != nil {
				return err
			}
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx := cmd.Context()

			if !local && cfg.Notifications.APIBind != "" {
				client, err := api.NewClient(cfg.Notifications.APIBind, cfg.Notifications.APIToken)
				if err != nil {
					return err
				}
				err = client.SendEvent(runCtx, kind, params)
				if err == nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Sent %s via agent at %s\n", kind, cfg.Notifications.APIBind)
					return nil
				}
				if !api.IsUnavailable(err) {
					return err
				}
			}

			a, err := agent.New(cfg, ctx.cliLogger(cfg), agent.WithStdout(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			sendErr := a.Send(runCtx, kind, params)
			// Close flushes queued handlers before the process exits.
			closeErr := a.Close(context.Background())
			if sendErr != nil {
				return sendErr
			}
			return closeErr
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Deliver in this process even when an agent API is configured")
	return cmd
}

func parseParams(args []string) (notifications.Params, error) {
	params := make(notifications.Params, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q (expected key=value)", arg)
		}
		params[key] = value
	}
	return params, nil
}

func kindNames() []string {
	kinds := notifications.AllEventKinds()
	names := make([]string, len(kinds))
	for i, kind := range kinds {
		names[i] = kind.String()
	}
	return names
}
