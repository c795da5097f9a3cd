package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/diegovelezg/claude-telegram-relay/directive"
	"github.com/diegovelezg/claude-telegram-relay/gateway"
	"github.com/diegovelezg/claude-telegram-relay/internal/sessionstate"
	"github.com/diegovelezg/claude-telegram-relay/internal/statepaths"
	"github.com/diegovelezg/claude-telegram-relay/invoker"
	"github.com/diegovelezg/claude-telegram-relay/relay"
)

// orchestratorFromViper wires the whole turn pipeline from configuration.
// Missing agent or gateway configuration is fatal here; everything past
// startup degrades per turn instead of failing.
func orchestratorFromViper(logger *slog.Logger) (*relay.Orchestrator, error) {
	bin := strings.TrimSpace(viper.GetString("agent.bin"))
	if bin == "" {
		return nil, fmt.Errorf("agent.bin is not configured (set via config or %s_AGENT_BIN)", envPrefix)
	}
	gatewayURL := strings.TrimSpace(viper.GetString("gateway.url"))
	if gatewayURL == "" {
		return nil, fmt.Errorf("gateway.url is not configured (set via config or %s_GATEWAY_URL)", envPrefix)
	}

	loc := time.Local
	if tz := strings.TrimSpace(viper.GetString("relay.timezone")); tz != "" && !strings.EqualFold(tz, "local") {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid relay.timezone %q: %w", tz, err)
		}
		loc = parsed
	}

	profile, err := relay.LoadProfile(statepaths.ProfilePath())
	if err != nil {
		// The profile is optional prompt garnish; a broken file must not
		// keep the relay down.
		logger.Warn("profile_load_error", "error", err.Error())
		profile = nil
	}

	mem := gateway.New(gateway.Options{
		URL:     gatewayURL,
		APIKey:  viper.GetString("gateway.api_key"),
		Timeout: viper.GetDuration("gateway.timeout"),
		Logger:  logger,
	})
	sessions := sessionstate.NewStore(statepaths.SessionStatePath())

	return &relay.Orchestrator{
		Assembler: &relay.Assembler{
			Memory:   mem,
			Profile:  profile,
			TimeZone: loc,
			Logger:   logger,
		},
		Invoker: &invoker.Invoker{
			Bin:      bin,
			Timeout:  viper.GetDuration("agent.timeout"),
			Sessions: sessions,
			Logger:   logger,
		},
		Cleaner: &directive.Dispatcher{Memory: mem, Logger: logger},
		Logger:  logger,
	}, nil
}
