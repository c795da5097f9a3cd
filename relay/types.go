// Package relay contains the turn orchestrator and prompt assembly for the
// conversation core: every inbound platform message becomes exactly one
// serialized conversation turn against the external agent.
package relay

// Channel identifies the platform an inbound message arrived on.
type Channel string

const (
	ChannelTelegram Channel = "telegram"
	ChannelDiscord  Channel = "discord"
	ChannelConsole  Channel = "console"
)

// Inbound is one platform event handed to the orchestrator by an adapter.
type Inbound struct {
	Text        string
	DisplayName string
	Channel     Channel
}
