package models

import "time"

// Section names a group of keys in a guild's configuration.
type Section string

const (
	SectionDefault           Section = "default"
	SectionMonitoredChannels Section = "monitored_channels"
	SectionLockedMessages    Section = "monitored_messages"
	SectionWebhooks          Section = "webhooks"
)

// Keys of the default section.
const (
	KeyDefaultBulletinChannel = "defaultbulletinchannel"
	KeyLogChannel             = "logging"
)

// GuildConfig is the routing view of a guild's configuration: where
// overflow pins of each monitored channel go. DefaultOverflowChannel is
// empty when unset.
type GuildConfig struct {
	GuildID                string
	DefaultOverflowChannel string
	// MonitoredChannels maps a source channel to its destination; an empty
	// destination means the default overflow channel.
	MonitoredChannels map[string]string
}

// Destination resolves where overflow pins of channelID are relayed.
// ok is false when the channel is not monitored.
func (c *GuildConfig) Destination(channelID string) (dest string, ok bool) {
	dest, ok = c.MonitoredChannels[channelID]
	if !ok {
		return "", false
	}
	if dest == "" {
		dest = c.DefaultOverflowChannel
	}
	return dest, true
}

// LockedPin is a message whose position at the top of the pin list is defended.
type LockedPin struct {
	MessageID string
	ChannelID string
	LockedAt  time.Time
}
