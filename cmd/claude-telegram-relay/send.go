package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/diegovelezg/claude-telegram-relay/internal/logutil"
	"github.com/diegovelezg/claude-telegram-relay/internal/pidlock"
	"github.com/diegovelezg/claude-telegram-relay/internal/statepaths"
	"github.com/diegovelezg/claude-telegram-relay/relay"
)

func newSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <message>",
		Short: "Run a single conversation turn and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			orch, err := orchestratorFromViper(logger)
			if err != nil {
				return err
			}

			lock, err := pidlock.Acquire(statepaths.LockPath(), logger)
			if err != nil {
				return fmt.Errorf("another relay instance owns %s: %w", statepaths.StateDir(), err)
			}
			defer lock.Release()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reply := orch.HandleTurn(ctx, relay.Inbound{
				Text:        strings.TrimSpace(strings.Join(args, " ")),
				DisplayName: viper.GetString("relay.display_name"),
				Channel:     relay.ChannelConsole,
			})
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}
}
