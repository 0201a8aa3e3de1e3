package handlers

import (
	"context"
	"fmt"

	"bulletin-board/bot"
	"bulletin-board/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/lit"
)

// ChannelPinsUpdate feeds CHANNEL_PINS_UPDATE events to the pin engine. Our
// own unpin/pin calls come back through here as well.
func ChannelPinsUpdate(b *bot.Bot) func(s *discordgo.Session, p *discordgo.ChannelPinsUpdate) {
	return func(s *discordgo.Session, p *discordgo.ChannelPinsUpdate) {
		if p.GuildID == "" {
			return
		}

		if err := b.Engine.HandlePinsUpdate(context.Background(), p.GuildID, p.ChannelID); err != nil {
			lit.Error("Handling pin update in channel %s of guild %s failed: %s", p.ChannelID, p.GuildID, err)
			utils.Error("Pins", "ChannelPinsUpdate", fmt.Sprintf("guild %s, channel %s: %s", p.GuildID, p.ChannelID, err))
		}
	}
}
