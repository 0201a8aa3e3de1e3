package utils

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/lit"
)

const (
	ColorInfo  = 0x00ff00 // Green
	ColorWarn  = 0xffff00 // Yellow
	ColorError = 0xff0000 // Red
)

// EmbedSender posts embeds to a channel. *discordgo.Session implements it.
type EmbedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var (
	session   EmbedSender
	channelID string
)

// InitLogger initializes the admin channel logger with a Discord session.
func InitLogger(s EmbedSender, adminChannelID string) {
	session = s
	channelID = adminChannelID
	if channelID == "" {
		lit.Warn("bot.adminChannelId is not set, logging to the admin channel is disabled.")
	}
}

// Log sends a log message to the admin channel.
func Log(level, module, operation, details string) {
	if session == nil || channelID == "" {
		lit.Info("[%s] Module: %s, Operation: %s, Details: %s", level, module, operation, details)
		return
	}

	var color int
	switch level {
	case "WARN":
		color = ColorWarn
	case "ERROR":
		color = ColorError
	default:
		color = ColorInfo
	}

	embed := &discordgo.MessageEmbed{
		Title:     "Log Level: " + level,
		Color:     color,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Module", Value: module, Inline: true},
			{Name: "Operation", Value: operation, Inline: true},
			{Name: "Details", Value: details},
		},
	}

	if _, err := session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		lit.Error("Error sending log message to Discord: %s", err)
	}
}

// Info logs an informational message.
func Info(module, operation, details string) {
	Log("INFO", module, operation, details)
}

// Warn logs a warning message.
func Warn(module, operation, details string) {
	Log("WARN", module, operation, details)
}

// Error logs an error message.
func Error(module, operation, details string) {
	Log("ERROR", module, operation, details)
}

// LogChannelSource resolves a guild's configured log channel.
type LogChannelSource interface {
	LogChannel(ctx context.Context, guildID string) (string, error)
}

// MessageSender posts plain text to a channel.
type MessageSender interface {
	SendMessage(ctx context.Context, channelID, content string) error
}

// GuildLogger posts operator-facing messages to each guild's own log channel.
// When the guild has none, or it cannot be written to, the message goes to
// the process log instead.
type GuildLogger struct {
	Channels LogChannelSource
	Sender   MessageSender
}

// GuildLog sends message to the log channel of guildID.
func (g *GuildLogger) GuildLog(ctx context.Context, guildID, message string) {
	logChannel, err := g.Channels.LogChannel(ctx, guildID)
	if err != nil {
		lit.Error("Could not read the log channel of guild %s: %s", guildID, err)
		return
	}
	if logChannel == "" {
		lit.Debug("Guild %s has no log channel: %s", guildID, message)
		return
	}

	if err := g.Sender.SendMessage(ctx, logChannel, message); err != nil {
		lit.Warn("Tried logging a message in guild %s, however the bot encountered an error: %s\nData to be logged: %s", guildID, err, message)
	}
}
