package handlers

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"bulletin-board/bot"
	"bulletin-board/database"
	"bulletin-board/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

const (
	testGuild    = "1000"
	testChannel  = "900"
	testBulletin = "800"
	testLogs     = "700"
)

func restError(status, code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status},
		Message:  &discordgo.APIErrorMessage{Code: code},
	}
}

// fakePlatform records the calls commands make against Discord.
type fakePlatform struct {
	pins     map[string][]string
	messages map[string]bool
	readable map[string]bool

	pinCalls   int
	unpinCalls int
	sent       map[string][]string
	sendErr    error
	pinErr     error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		pins:     make(map[string][]string),
		messages: make(map[string]bool),
		readable: make(map[string]bool),
		sent:     make(map[string][]string),
	}
}

func (f *fakePlatform) ChannelPins(_ context.Context, channelID string) ([]*discordgo.Message, error) {
	if !f.readable[channelID] {
		return nil, restError(http.StatusForbidden, discordgo.ErrCodeMissingAccess)
	}
	var out []*discordgo.Message
	for _, id := range f.pins[channelID] {
		out = append(out, &discordgo.Message{ID: id, ChannelID: channelID})
	}
	return out, nil
}

func (f *fakePlatform) ChannelMessage(_ context.Context, channelID, messageID string) (*discordgo.Message, error) {
	if !f.messages[messageID] {
		return nil, restError(http.StatusNotFound, discordgo.ErrCodeUnknownMessage)
	}
	return &discordgo.Message{ID: messageID, ChannelID: channelID}, nil
}

func (f *fakePlatform) Pin(_ context.Context, channelID, messageID string) error {
	if f.pinErr != nil {
		return f.pinErr
	}
	f.pinCalls++
	f.pins[channelID] = append([]string{messageID}, remove(f.pins[channelID], messageID)...)
	return nil
}

func (f *fakePlatform) Unpin(_ context.Context, channelID, messageID string) error {
	before := len(f.pins[channelID])
	f.pins[channelID] = remove(f.pins[channelID], messageID)
	if len(f.pins[channelID]) == before {
		return restError(http.StatusNotFound, discordgo.ErrCodeUnknownMessage)
	}
	f.unpinCalls++
	return nil
}

func (f *fakePlatform) Channel(_ context.Context, channelID string) (*discordgo.Channel, error) {
	return &discordgo.Channel{ID: channelID}, nil
}

func (f *fakePlatform) CreateWebhook(context.Context, string, string) (*discordgo.Webhook, error) {
	return &discordgo.Webhook{ID: "1", Token: "t"}, nil
}

func (f *fakePlatform) ExecuteWebhook(context.Context, string, string, *discordgo.WebhookParams) error {
	return nil
}

func (f *fakePlatform) SendMessage(_ context.Context, channelID, content string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent[channelID] = append(f.sent[channelID], content)
	return nil
}

func remove(list []string, id string) []string {
	var out []string
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func newTestBot(t *testing.T) (*bot.Bot, *fakePlatform) {
	t.Helper()

	db, err := database.InitDB(filepath.Join(t.TempDir(), "bulletin.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	platform := newFakePlatform()
	store := database.NewGuildStore(db)
	b := &bot.Bot{
		DB:       db,
		Store:    store,
		Locks:    database.NewGuildLocks(),
		Platform: platform,
		Auth:     utils.NewAuth(nil),
	}
	b.GuildLogs = &utils.GuildLogger{Channels: store, Sender: platform}
	return b, platform
}

func slashCommand(name string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return interaction(discordgo.ApplicationCommandInteractionData{Name: name, Options: options})
}

func channelOption(name, channelID string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionChannel,
		Value: channelID,
	}
}

func messageCommand(name, channelID, messageID string) *discordgo.InteractionCreate {
	return interaction(discordgo.ApplicationCommandInteractionData{
		Name:     name,
		TargetID: messageID,
		Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
			Messages: map[string]*discordgo.Message{
				messageID: {ID: messageID, ChannelID: channelID},
			},
		},
	})
}

func interaction(data discordgo.ApplicationCommandInteractionData) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: testGuild,
		Member: &discordgo.Member{
			User:        &discordgo.User{ID: "42", Username: "mod", Discriminator: "0"},
			Permissions: discordgo.PermissionManageMessages,
		},
		Data: data,
	}}
}
