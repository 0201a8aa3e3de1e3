package command

import "github.com/bwmarrin/discordgo"

var manageMessages int64 = discordgo.PermissionManageMessages

// Names of the registered commands.
const (
	NameSetDefaultBulletin = "setdefaultbulletin"
	NameSetLoggingChannel  = "setloggingchannel"
	NameRegister           = "register"
	NameList               = "list"
	NameToggleLock         = "Toggle Pin Lock"
)

var textChannels = []discordgo.ChannelType{
	discordgo.ChannelTypeGuildText,
	discordgo.ChannelTypeGuildNews,
}

// SetDefaultBulletinCommand defines the /setdefaultbulletin command.
type SetDefaultBulletinCommand struct{}

// Definition returns the application command definition.
func (c *SetDefaultBulletinCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     NameSetDefaultBulletin,
		Description:              "Registers a Channel as the default Bulletin Channel",
		DefaultMemberPermissions: &manageMessages,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         "bulletin_channel",
				Description:  "Channel overflow pins are posted to",
				Type:         discordgo.ApplicationCommandOptionChannel,
				ChannelTypes: textChannels,
				Required:     true,
			},
		},
	}
}

// SetLoggingChannelCommand defines the /setloggingchannel command.
type SetLoggingChannelCommand struct{}

// Definition returns the application command definition.
func (c *SetLoggingChannelCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     NameSetLoggingChannel,
		Description:              "Sets the channel where changes are logged.",
		DefaultMemberPermissions: &manageMessages,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         "logging_channel",
				Description:  "Channel bot logs are posted to",
				Type:         discordgo.ApplicationCommandOptionChannel,
				ChannelTypes: textChannels,
				Required:     true,
			},
		},
	}
}

// RegisterCommand defines the /register command.
type RegisterCommand struct{}

// Definition returns the application command definition.
func (c *RegisterCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     NameRegister,
		Description:              "Sets a channel to be monitored for Bulletin Board Pins",
		DefaultMemberPermissions: &manageMessages,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         "channel",
				Description:  "Channel whose overflow pins are relayed",
				Type:         discordgo.ApplicationCommandOptionChannel,
				ChannelTypes: textChannels,
				Required:     true,
			},
			{
				Name:         "to_bulletin_channel",
				Description:  "Where to relay them (defaults to the default bulletin channel)",
				Type:         discordgo.ApplicationCommandOptionChannel,
				ChannelTypes: textChannels,
				Required:     false,
			},
		},
	}
}

// ListCommand defines the /list command.
type ListCommand struct{}

// Definition returns the application command definition.
func (c *ListCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     NameList,
		Description:              "Lists all of the locked pins in a channel.",
		DefaultMemberPermissions: &manageMessages,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         "channel",
				Description:  "Channel to list",
				Type:         discordgo.ApplicationCommandOptionChannel,
				ChannelTypes: textChannels,
				Required:     true,
			},
		},
	}
}

// ToggleLockCommand defines the message context menu entry that locks or unlocks a pin.
type ToggleLockCommand struct{}

// Definition returns the application command definition.
func (c *ToggleLockCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     NameToggleLock,
		Type:                     discordgo.MessageApplicationCommand,
		DefaultMemberPermissions: &manageMessages,
	}
}
