package pins

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Platform is the part of the Discord API the engine needs.
type Platform interface {
	// ChannelPins lists pinned messages, most recently pinned first.
	ChannelPins(ctx context.Context, channelID string) ([]*discordgo.Message, error)
	ChannelMessage(ctx context.Context, channelID, messageID string) (*discordgo.Message, error)
	Pin(ctx context.Context, channelID, messageID string) error
	Unpin(ctx context.Context, channelID, messageID string) error
	Channel(ctx context.Context, channelID string) (*discordgo.Channel, error)
	CreateWebhook(ctx context.Context, channelID, name string) (*discordgo.Webhook, error)
	ExecuteWebhook(ctx context.Context, webhookID, token string, params *discordgo.WebhookParams) error
	SendMessage(ctx context.Context, channelID, content string) error
}

// SessionPlatform implements Platform on a discordgo session.
type SessionPlatform struct {
	Session *discordgo.Session
}

func (p *SessionPlatform) ChannelPins(ctx context.Context, channelID string) ([]*discordgo.Message, error) {
	return p.Session.ChannelMessagesPinned(channelID, discordgo.WithContext(ctx))
}

func (p *SessionPlatform) ChannelMessage(ctx context.Context, channelID, messageID string) (*discordgo.Message, error) {
	return p.Session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
}

func (p *SessionPlatform) Pin(ctx context.Context, channelID, messageID string) error {
	return p.Session.ChannelMessagePin(channelID, messageID, discordgo.WithContext(ctx))
}

func (p *SessionPlatform) Unpin(ctx context.Context, channelID, messageID string) error {
	return p.Session.ChannelMessageUnpin(channelID, messageID, discordgo.WithContext(ctx))
}

// Channel prefers the state cache and falls back to REST.
func (p *SessionPlatform) Channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	if p.Session.State != nil {
		if ch, err := p.Session.State.Channel(channelID); err == nil {
			return ch, nil
		}
	}
	return p.Session.Channel(channelID, discordgo.WithContext(ctx))
}

func (p *SessionPlatform) CreateWebhook(ctx context.Context, channelID, name string) (*discordgo.Webhook, error) {
	return p.Session.WebhookCreate(channelID, name, "", discordgo.WithContext(ctx))
}

func (p *SessionPlatform) ExecuteWebhook(ctx context.Context, webhookID, token string, params *discordgo.WebhookParams) error {
	_, err := p.Session.WebhookExecute(webhookID, token, true, params, discordgo.WithContext(ctx))
	return err
}

func (p *SessionPlatform) SendMessage(ctx context.Context, channelID, content string) error {
	_, err := p.Session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}, discordgo.WithContext(ctx))
	return err
}
