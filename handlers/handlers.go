package handlers

import (
	"bulletin-board/bot"

	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/lit"
)

// Register all handlers to the bot.
func Register(b *bot.Bot) {
	b.Session.AddHandler(InteractionCreate(b))
	b.Session.AddHandler(ChannelPinsUpdate(b))

	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		lit.Info("Logged in as: %s", s.State.User.String())
	})
}
