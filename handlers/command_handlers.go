package handlers

import (
	"context"
	"fmt"
	"strings"

	"bulletin-board/bot"
	"bulletin-board/database"
	"bulletin-board/pins"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/lit"
)

// HandleSetDefaultBulletin handles the logic for the /setdefaultbulletin command.
func HandleSetDefaultBulletin(ctx context.Context, b *bot.Bot, i *discordgo.InteractionCreate) string {
	channelID := optionMap(i)["bulletin_channel"].ChannelValue(nil).ID

	unlock := b.Locks.Lock(i.GuildID)
	err := b.Store.SetDefaultOverflowChannel(ctx, i.GuildID, channelID)
	unlock()
	if err != nil {
		lit.Error("Setting the default bulletin channel of guild %s failed: %s", i.GuildID, err)
		return "Could not save the default bulletin channel, please try again."
	}

	b.GuildLogs.GuildLog(ctx, i.GuildID, fmt.Sprintf("%s has set %s as the default Bulletin Board Channel.", invoker(i), mention(channelID)))
	return fmt.Sprintf("Channel %s has been registered as the default Bulletin Board channel.", mention(channelID))
}

// HandleSetLoggingChannel handles the logic for the /setloggingchannel command.
// The bot must be able to post in the channel before it is accepted.
func HandleSetLoggingChannel(ctx context.Context, b *bot.Bot, i *discordgo.InteractionCreate) string {
	channelID := optionMap(i)["logging_channel"].ChannelValue(nil).ID

	err := b.Platform.SendMessage(ctx, channelID, fmt.Sprintf("%s has set this channel as the default bot logging channel.", invoker(i)))
	if err != nil {
		return "Unable to set this channel as the Logging Channel! This bot does not have permissions to send messages there. Check your permissions and try again."
	}

	b.GuildLogs.GuildLog(ctx, i.GuildID, fmt.Sprintf("%s has set %s for all future bot logs.", invoker(i), mention(channelID)))

	unlock := b.Locks.Lock(i.GuildID)
	err = b.Store.SetLogChannel(ctx, i.GuildID, channelID)
	unlock()
	if err != nil {
		lit.Error("Setting the log channel of guild %s failed: %s", i.GuildID, err)
		return "Could not save the logging channel, please try again."
	}

	return fmt.Sprintf("Channel %s has been set as the default channel for all bot logs.", mention(channelID))
}

// HandleRegister handles the logic for the /register command. Registering a
// monitored channel again removes it.
func HandleRegister(ctx context.Context, b *bot.Bot, i *discordgo.InteractionCreate) string {
	options := optionMap(i)
	channelID := options["channel"].ChannelValue(nil).ID

	var dest string
	if opt, ok := options["to_bulletin_channel"]; ok {
		dest = opt.ChannelValue(nil).ID
	}

	unlock := b.Locks.Lock(i.GuildID)
	defer unlock()

	cfg, err := b.Store.Load(ctx, i.GuildID)
	if err != nil {
		lit.Error("Loading config of guild %s failed: %s", i.GuildID, err)
		return "Could not load this server's configuration, please try again."
	}

	if _, ok := cfg.MonitoredChannels[channelID]; ok {
		if _, err := b.Store.ToggleMonitored(ctx, i.GuildID, channelID, ""); err != nil {
			lit.Error("Removing monitored channel %s failed: %s", channelID, err)
			return "Could not update pin monitoring, please try again."
		}
		b.GuildLogs.GuildLog(ctx, i.GuildID, fmt.Sprintf("%s has removed %s from pin monitoring.", invoker(i), mention(channelID)))
		return fmt.Sprintf("Channel %s has been removed from pin monitoring.", mention(channelID))
	}

	if _, err := b.Platform.ChannelPins(ctx, channelID); err != nil {
		return "The bot does not appear to have access to that channel to monitor its pins! Please check the permissions and try again."
	}

	line := mention(dest)
	if dest == "" {
		if cfg.DefaultOverflowChannel == "" {
			return "This server does not have a default bulletin channel setup! Please set a channel as default by doing `/setdefaultbulletin <channel>` or by specifying what channel you want to divert overflow pins to!"
		}
		line = "the Default Bulletin Board"
	}

	if _, err := b.Store.ToggleMonitored(ctx, i.GuildID, channelID, dest); err != nil {
		lit.Error("Registering monitored channel %s failed: %s", channelID, err)
		return "Could not update pin monitoring, please try again."
	}

	b.GuildLogs.GuildLog(ctx, i.GuildID, fmt.Sprintf("%s registered channel %s's overflow pins to be posted to %s", invoker(i), mention(channelID), line))
	return fmt.Sprintf("Overflow Pins in %s will now be sent to %s", mention(channelID), line)
}

// HandleList handles the logic for the /list command. Locked entries whose
// message is gone are dropped on the way.
func HandleList(ctx context.Context, b *bot.Bot, i *discordgo.InteractionCreate) string {
	channelID := optionMap(i)["channel"].ChannelValue(nil).ID

	unlock := b.Locks.Lock(i.GuildID)
	defer unlock()

	locked, err := b.Store.LockedPins(ctx, i.GuildID, channelID)
	if err != nil {
		lit.Error("Listing locked pins of channel %s failed: %s", channelID, err)
		return "Could not read the locked pins, please try again."
	}

	var links []string
	for _, l := range locked {
		if _, err := b.Platform.ChannelMessage(ctx, channelID, l.MessageID); err != nil {
			if pins.IsNotFound(err) {
				if err := b.Store.UnlockMessage(ctx, i.GuildID, l.MessageID); err != nil {
					lit.Error("Dropping stale lock %s failed: %s", l.MessageID, err)
				}
			}
			continue
		}
		links = append(links, fmt.Sprintf("https://discord.com/channels/%s/%s/%s", i.GuildID, channelID, l.MessageID))
	}

	if len(links) == 0 {
		return "There are no locked pins in this channel!"
	}
	return fmt.Sprintf("Here are all the Locked Pins in %s:\n%s", mention(channelID), strings.Join(links, "\n"))
}

// HandleToggleLock handles the "Toggle Pin Lock" message command.
func HandleToggleLock(ctx context.Context, b *bot.Bot, i *discordgo.InteractionCreate) string {
	data := i.ApplicationCommandData()

	var message *discordgo.Message
	if data.Resolved != nil {
		message = data.Resolved.Messages[data.TargetID]
	}
	if message == nil {
		return "That isn't a valid message!"
	}

	locked, err := toggleLock(ctx, b, i.GuildID, message)
	switch {
	case errors.Is(err, database.ErrLockCapacity):
		return err.Error()
	case err != nil:
		lit.Error("Toggling lock on message %s failed: %s", message.ID, err)
		return "Could not update the Locked Pins, please try again."
	}

	if !locked {
		b.GuildLogs.GuildLog(ctx, i.GuildID, fmt.Sprintf("%s removed a message from the Locked Pins in %s", invoker(i), mention(message.ChannelID)))
		return "Message removed from the Locked Pins list."
	}

	b.GuildLogs.GuildLog(ctx, i.GuildID, fmt.Sprintf("%s added a message to the Locked Pins in %s", invoker(i), mention(message.ChannelID)))

	// Re-pinning moves the message to the head of the pin list.
	if err := b.Platform.Unpin(ctx, message.ChannelID, message.ID); err != nil && !pins.IsNotFound(err) {
		lit.Warn("Unpinning newly locked message %s failed: %s", message.ID, err)
	}
	if err := b.Platform.Pin(ctx, message.ChannelID, message.ID); err != nil {
		lit.Error("Pinning newly locked message %s failed: %s", message.ID, err)
		if pins.IsPermissionDenied(err) {
			b.GuildLogs.GuildLog(ctx, i.GuildID, fmt.Sprintf("The bot cannot pin messages in %s! Please check its permissions.", mention(message.ChannelID)))
		}
	}
	return "Message added to the Locked Pins list."
}

// toggleLock locks message, or unlocks it when it is already locked, and
// reports whether it ended up locked.
func toggleLock(ctx context.Context, b *bot.Bot, guildID string, message *discordgo.Message) (bool, error) {
	unlock := b.Locks.Lock(guildID)
	defer unlock()

	locked, err := b.Store.IsLocked(ctx, guildID, message.ID)
	if err != nil {
		return false, err
	}
	if locked {
		return false, b.Store.UnlockMessage(ctx, guildID, message.ID)
	}
	if err := b.Store.LockMessage(ctx, guildID, message.ChannelID, message.ID); err != nil {
		return false, err
	}
	return true, nil
}
