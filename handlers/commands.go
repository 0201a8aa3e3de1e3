package handlers

import (
	"context"

	"bulletin-board/bot"
	"bulletin-board/command"

	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/lit"
)

// commandHandler runs a command and returns the reply shown to the invoker.
type commandHandler func(ctx context.Context, b *bot.Bot, i *discordgo.InteractionCreate) string

// interactionResponder is the part of *discordgo.Session that answers interactions.
type interactionResponder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var commandHandlers = map[string]commandHandler{
	command.NameSetDefaultBulletin: HandleSetDefaultBulletin,
	command.NameSetLoggingChannel:  HandleSetLoggingChannel,
	command.NameRegister:           HandleRegister,
	command.NameList:               HandleList,
	command.NameToggleLock:         HandleToggleLock,
}

// CommandDispatcher is the central handler for all application command interactions.
// It performs permission checks and then dispatches the interaction to the appropriate handler.
func CommandDispatcher(b *bot.Bot, s interactionResponder, i *discordgo.InteractionCreate) {
	// Commands only make sense inside a guild.
	if i.GuildID == "" {
		respond(s, i, "This command can only be used in a server.")
		return
	}

	if !b.Auth.CanManagePins(i) {
		respond(s, i, "🚫 You need the Manage Messages permission to use this command.")
		return
	}

	handler, ok := commandHandlers[i.ApplicationCommandData().Name]
	if !ok {
		respond(s, i, "🚫 Internal error: Unknown command.")
		return
	}

	// Handlers may wait on the guild scope while a migration uploads
	// attachments, which can outlast the interaction deadline.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		lit.Error("Deferring interaction failed: %s", err)
		return
	}

	editResponse(s, i, handler(context.Background(), b, i))
}

// respond sends an ephemeral reply to the interaction.
func respond(s interactionResponder, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:         content,
			Flags:           discordgo.MessageFlagsEphemeral,
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		},
	})
	if err != nil {
		lit.Error("InteractionRespond failed: %s", err)
	}
}

// editResponse fills in a deferred reply.
func editResponse(s interactionResponder, i *discordgo.InteractionCreate, content string) {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content:         &content,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	if err != nil {
		lit.Error("InteractionResponseEdit failed: %s", err)
	}
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func mention(channelID string) string {
	return "<#" + channelID + ">"
}

func invoker(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.String()
	}
	return "Someone"
}
