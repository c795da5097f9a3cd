package main

import (
	"time"

	"github.com/spf13/viper"
)

func initViperDefaults() {
	// Relay state and prompt context.
	viper.SetDefault("relay.state_dir", "~/.claude-relay")
	viper.SetDefault("relay.timezone", "Local")
	viper.SetDefault("relay.profile_path", "")
	viper.SetDefault("relay.display_name", "")

	// External agent process.
	viper.SetDefault("agent.bin", "claude")
	viper.SetDefault("agent.timeout", 120*time.Second)

	// Memory gateway.
	viper.SetDefault("gateway.url", "")
	viper.SetDefault("gateway.api_key", "")
	viper.SetDefault("gateway.timeout", 10*time.Second)

	// Logging.
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.add_source", false)
}
