package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"bulletin-board/command"
	"bulletin-board/database"
	"bulletin-board/models"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryCommandHasAHandler(t *testing.T) {
	for _, def := range command.GetCommandDefinitions() {
		assert.Contains(t, commandHandlers, def.Name)
	}
	assert.Len(t, commandHandlers, len(command.AllCommands))
}

func TestSetDefaultBulletin(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()

	reply := HandleSetDefaultBulletin(ctx, b, slashCommand(command.NameSetDefaultBulletin, channelOption("bulletin_channel", testBulletin)))
	assert.Equal(t, "Channel <#800> has been registered as the default Bulletin Board channel.", reply)

	cfg, err := b.Store.Load(ctx, testGuild)
	require.NoError(t, err)
	assert.Equal(t, testBulletin, cfg.DefaultOverflowChannel)
}

func TestSetLoggingChannel(t *testing.T) {
	b, platform := newTestBot(t)
	ctx := context.Background()

	reply := HandleSetLoggingChannel(ctx, b, slashCommand(command.NameSetLoggingChannel, channelOption("logging_channel", testLogs)))
	assert.Equal(t, "Channel <#700> has been set as the default channel for all bot logs.", reply)
	assert.Equal(t, []string{"mod has set this channel as the default bot logging channel."}, platform.sent[testLogs])

	logChannel, err := b.Store.LogChannel(ctx, testGuild)
	require.NoError(t, err)
	assert.Equal(t, testLogs, logChannel)

	// Later actions are logged there.
	HandleSetDefaultBulletin(ctx, b, slashCommand(command.NameSetDefaultBulletin, channelOption("bulletin_channel", testBulletin)))
	assert.Len(t, platform.sent[testLogs], 2)
}

func TestSetLoggingChannelWithoutAccess(t *testing.T) {
	b, platform := newTestBot(t)
	ctx := context.Background()
	platform.sendErr = restError(http.StatusForbidden, discordgo.ErrCodeMissingPermissions)

	reply := HandleSetLoggingChannel(ctx, b, slashCommand(command.NameSetLoggingChannel, channelOption("logging_channel", testLogs)))
	assert.Contains(t, reply, "Unable to set this channel as the Logging Channel!")

	logChannel, err := b.Store.LogChannel(ctx, testGuild)
	require.NoError(t, err)
	assert.Empty(t, logChannel)
}

func TestRegisterRequiresADestination(t *testing.T) {
	b, platform := newTestBot(t)
	ctx := context.Background()
	platform.readable[testChannel] = true

	reply := HandleRegister(ctx, b, slashCommand(command.NameRegister, channelOption("channel", testChannel)))
	assert.Contains(t, reply, "This server does not have a default bulletin channel setup!")

	monitored, err := b.Store.List(ctx, testGuild, models.SectionMonitoredChannels)
	require.NoError(t, err)
	assert.Empty(t, monitored)
}

func TestRegisterToDefaultAndBack(t *testing.T) {
	b, platform := newTestBot(t)
	ctx := context.Background()
	platform.readable[testChannel] = true
	require.NoError(t, b.Store.SetDefaultOverflowChannel(ctx, testGuild, testBulletin))

	register := slashCommand(command.NameRegister, channelOption("channel", testChannel))

	reply := HandleRegister(ctx, b, register)
	assert.Equal(t, "Overflow Pins in <#900> will now be sent to the Default Bulletin Board", reply)
	monitored, err := b.Store.List(ctx, testGuild, models.SectionMonitoredChannels)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{testChannel: ""}, monitored)

	reply = HandleRegister(ctx, b, register)
	assert.Equal(t, "Channel <#900> has been removed from pin monitoring.", reply)
	monitored, err = b.Store.List(ctx, testGuild, models.SectionMonitoredChannels)
	require.NoError(t, err)
	assert.Empty(t, monitored)
}

func TestRegisterWithOverride(t *testing.T) {
	b, platform := newTestBot(t)
	ctx := context.Background()
	platform.readable[testChannel] = true

	reply := HandleRegister(ctx, b, slashCommand(command.NameRegister,
		channelOption("channel", testChannel), channelOption("to_bulletin_channel", "801")))
	assert.Equal(t, "Overflow Pins in <#900> will now be sent to <#801>", reply)

	cfg, err := b.Store.Load(ctx, testGuild)
	require.NoError(t, err)
	dest, ok := cfg.Destination(testChannel)
	assert.True(t, ok)
	assert.Equal(t, "801", dest)
}

func TestRegisterUnreadableChannel(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()
	require.NoError(t, b.Store.SetDefaultOverflowChannel(ctx, testGuild, testBulletin))

	reply := HandleRegister(ctx, b, slashCommand(command.NameRegister, channelOption("channel", testChannel)))
	assert.Contains(t, reply, "does not appear to have access")

	monitored, err := b.Store.List(ctx, testGuild, models.SectionMonitoredChannels)
	require.NoError(t, err)
	assert.Empty(t, monitored)
}

func TestToggleLockPinsToTop(t *testing.T) {
	b, platform := newTestBot(t)
	ctx := context.Background()
	platform.pins[testChannel] = []string{"102", "101"}

	reply := HandleToggleLock(ctx, b, messageCommand(command.NameToggleLock, testChannel, "101"))
	assert.Equal(t, "Message added to the Locked Pins list.", reply)

	locked, err := b.Store.IsLocked(ctx, testGuild, "101")
	require.NoError(t, err)
	assert.True(t, locked)
	assert.Equal(t, 1, platform.unpinCalls)
	assert.Equal(t, 1, platform.pinCalls)
	assert.Equal(t, []string{"101", "102"}, platform.pins[testChannel])

	reply = HandleToggleLock(ctx, b, messageCommand(command.NameToggleLock, testChannel, "101"))
	assert.Equal(t, "Message removed from the Locked Pins list.", reply)
	locked, err = b.Store.IsLocked(ctx, testGuild, "101")
	require.NoError(t, err)
	assert.False(t, locked)
	assert.Equal(t, 1, platform.pinCalls)
}

func TestToggleLockPinsUnpinnedMessage(t *testing.T) {
	b, platform := newTestBot(t)
	ctx := context.Background()

	reply := HandleToggleLock(ctx, b, messageCommand(command.NameToggleLock, testChannel, "101"))
	assert.Equal(t, "Message added to the Locked Pins list.", reply)
	assert.Zero(t, platform.unpinCalls)
	assert.Equal(t, []string{"101"}, platform.pins[testChannel])
}

func TestToggleLockReportsMissingPinPermission(t *testing.T) {
	b, platform := newTestBot(t)
	ctx := context.Background()
	require.NoError(t, b.Store.SetLogChannel(ctx, testGuild, testLogs))
	platform.pinErr = restError(http.StatusForbidden, discordgo.ErrCodeMissingPermissions)

	HandleToggleLock(ctx, b, messageCommand(command.NameToggleLock, testChannel, "101"))

	require.Len(t, platform.sent[testLogs], 2)
	assert.Equal(t, "The bot cannot pin messages in <#900>! Please check its permissions.", platform.sent[testLogs][1])
}

func TestToggleLockCapacity(t *testing.T) {
	b, platform := newTestBot(t)
	ctx := context.Background()

	for i := 0; i < database.MaxLockedPerChannel; i++ {
		reply := HandleToggleLock(ctx, b, messageCommand(command.NameToggleLock, testChannel, fmt.Sprintf("%d", 100+i)))
		require.Equal(t, "Message added to the Locked Pins list.", reply)
	}
	pinsBefore := platform.pinCalls

	reply := HandleToggleLock(ctx, b, messageCommand(command.NameToggleLock, testChannel, "200"))
	assert.Equal(t, database.ErrLockCapacity.Error(), reply)
	assert.Equal(t, pinsBefore, platform.pinCalls)

	locked, err := b.Store.LockedPins(ctx, testGuild, testChannel)
	require.NoError(t, err)
	assert.Len(t, locked, database.MaxLockedPerChannel)
}

func TestToggleLockWithoutMessage(t *testing.T) {
	b, _ := newTestBot(t)

	reply := HandleToggleLock(context.Background(), b, interaction(discordgo.ApplicationCommandInteractionData{Name: command.NameToggleLock, TargetID: "101"}))
	assert.Equal(t, "That isn't a valid message!", reply)
}

func TestListDropsDeletedMessages(t *testing.T) {
	b, platform := newTestBot(t)
	ctx := context.Background()

	require.NoError(t, b.Store.LockMessage(ctx, testGuild, testChannel, "101"))
	require.NoError(t, b.Store.LockMessage(ctx, testGuild, testChannel, "102"))
	platform.messages["102"] = true

	reply := HandleList(ctx, b, slashCommand(command.NameList, channelOption("channel", testChannel)))
	assert.Equal(t, "Here are all the Locked Pins in <#900>:\nhttps://discord.com/channels/1000/900/102", reply)

	locked, err := b.Store.IsLocked(ctx, testGuild, "101")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestListEmpty(t *testing.T) {
	b, _ := newTestBot(t)

	reply := HandleList(context.Background(), b, slashCommand(command.NameList, channelOption("channel", testChannel)))
	assert.Equal(t, "There are no locked pins in this channel!", reply)
}

func TestListKeepsEntriesOnOtherFailures(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()
	require.NoError(t, b.Store.LockMessage(ctx, testGuild, testChannel, "101"))

	b.Platform = &failingFetch{fakePlatform: newFakePlatform(), err: errors.New("gateway timeout")}
	HandleList(ctx, b, slashCommand(command.NameList, channelOption("channel", testChannel)))

	locked, err := b.Store.IsLocked(ctx, testGuild, "101")
	require.NoError(t, err)
	assert.True(t, locked)
}

type failingFetch struct {
	*fakePlatform
	err error
}

func (f *failingFetch) ChannelMessage(context.Context, string, string) (*discordgo.Message, error) {
	return nil, f.err
}
