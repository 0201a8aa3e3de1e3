package pins

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"bulletin-board/models"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/lit"
)

// WebhookName is the name given to webhooks the bot provisions.
const WebhookName = "Bulletin-Board-Generated Webhook"

const embedColor = 0xe100e1

// WebhookStore caches one webhook URL per destination channel.
type WebhookStore interface {
	Webhook(ctx context.Context, guildID, channelID string) (string, bool, error)
	SetWebhook(ctx context.Context, guildID, channelID, url string) error
}

// WebhookManager delivers relayed posts through a per-channel webhook so they
// appear under the original author's name and avatar.
type WebhookManager struct {
	Platform Platform
	Store    WebhookStore
}

// Deliver posts post to channelID. A cached webhook that was deleted on the
// platform is replaced by a new one before the post is sent again.
func (w *WebhookManager) Deliver(ctx context.Context, guildID, channelID string, post models.RelayedPost) error {
	cached, ok, err := w.Store.Webhook(ctx, guildID, channelID)
	if err != nil {
		return err
	}

	if ok {
		id, token, perr := ParseWebhookURL(cached)
		if perr == nil {
			err = w.send(ctx, id, token, post)
			if err == nil {
				return nil
			}
			if !IsNotFound(err) {
				return errors.WrapIf(err, "failed to execute webhook")
			}
			lit.Info("Cached webhook for channel %s is gone, provisioning a new one", channelID)
		} else {
			lit.Warn("Discarding malformed webhook URL for channel %s: %s", channelID, perr)
		}
	}

	hook, err := w.Platform.CreateWebhook(ctx, channelID, WebhookName)
	if err != nil {
		return errors.WrapIf(err, "failed to create webhook")
	}
	webhooksCreatedTotal.Inc()

	if err := w.Store.SetWebhook(ctx, guildID, channelID, WebhookURL(hook.ID, hook.Token)); err != nil {
		return err
	}

	return errors.WrapIf(w.send(ctx, hook.ID, hook.Token, post), "failed to execute webhook")
}

// send opens the attachments afresh so that a retry after re-provisioning
// uploads them again from the start.
func (w *WebhookManager) send(ctx context.Context, id, token string, post models.RelayedPost) error {
	files := make([]*discordgo.File, 0, len(post.Attachments))
	for _, a := range post.Attachments {
		f, err := os.Open(a.Path)
		if err != nil {
			return errors.WrapIf(err, "failed to open attachment")
		}
		defer f.Close()
		files = append(files, &discordgo.File{Name: a.Filename, Reader: f})
	}

	return w.Platform.ExecuteWebhook(ctx, id, token, &discordgo.WebhookParams{
		Username:        post.AuthorName,
		AvatarURL:       post.AvatarURL,
		Embeds:          []*discordgo.MessageEmbed{RelayEmbed(post)},
		Files:           files,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
}

// RelayEmbed renders the embed shown on the bulletin channel.
func RelayEmbed(post models.RelayedPost) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       post.AuthorTag + ":",
		Description: post.Content,
		URL:         post.JumpURL,
		Color:       embedColor,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Sent by %s on %s", post.AuthorTag, post.Timestamp.Format("January 02, 2006")),
		},
	}
	if post.AvatarURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: post.AvatarURL}
	}
	return embed
}

// WebhookURL builds the URL cached for a webhook.
func WebhookURL(id, token string) string {
	return discordgo.EndpointWebhookToken(id, token)
}

// ParseWebhookURL extracts the id and token from a webhook URL.
func ParseWebhookURL(raw string) (id, token string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", errors.WrapIf(err, "invalid webhook URL")
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if p == "webhooks" && i+2 < len(parts) {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", errors.Errorf("not a webhook URL: %s", raw)
}
