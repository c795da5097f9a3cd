package main

import (
	"bufio"
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

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Relay a console conversation through the agent",
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

			lines := make(chan string)
			go func() {
				defer close(lines)
				scanner := bufio.NewScanner(cmd.InOrStdin())
				scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
				for scanner.Scan() {
					select {
					case lines <- scanner.Text():
					case <-ctx.Done():
						return
					}
				}
			}()

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "claude-telegram-relay console; Ctrl-D or Ctrl-C to quit.")
			for {
				_, _ = fmt.Fprint(out, "> ")
				select {
				case <-ctx.Done():
					_, _ = fmt.Fprintln(out)
					return nil
				case line, ok := <-lines:
					if !ok {
						_, _ = fmt.Fprintln(out)
						return nil
					}
					text := strings.TrimSpace(line)
					if text == "" {
						continue
					}
					reply := orch.HandleTurn(ctx, relay.Inbound{
						Text:        text,
						DisplayName: viper.GetString("relay.display_name"),
						Channel:     relay.ChannelConsole,
					})
					_, _ = fmt.Fprintln(out, reply)
				}
			}
		},
	}
}
