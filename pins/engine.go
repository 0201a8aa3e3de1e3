package pins

import (
	"context"
	"fmt"

	"bulletin-board/models"
	"bulletin-board/utils"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/lit"
)

// DefaultCapacity is Discord's fixed limit of pins per channel.
const DefaultCapacity = 50

// ConfigStore loads a guild's configuration record.
type ConfigStore interface {
	Load(ctx context.Context, guildID string) (*models.GuildConfig, error)
}

// SnapshotStore persists the last seen pin list of each channel.
type SnapshotStore interface {
	Get(ctx context.Context, guildID, channelID string) ([]string, error)
	Set(ctx context.Context, guildID, channelID string, ids []string) error
}

// Locker provides the per-guild exclusive scope.
type Locker interface {
	Lock(guildID string) func()
}

// GuildLogger posts a diagnostic to a guild's log channel.
type GuildLogger interface {
	GuildLog(ctx context.Context, guildID, message string)
}

// Engine reconciles a channel's pins each time Discord reports a pin change.
type Engine struct {
	Platform  Platform
	Config    ConfigStore
	Snapshots SnapshotStore
	Differ    Differ
	Enforcer  *Enforcer
	Migrator  *Migrator
	Locks     Locker
	Logger    GuildLogger
	Capacity  int
}

// HandlePinsUpdate processes one pin-change notification. Failures are
// contained to this guild and channel; the returned error is informational.
func (e *Engine) HandlePinsUpdate(ctx context.Context, guildID, channelID string) error {
	unlock := e.Locks.Lock(guildID)
	defer unlock()
	defer e.Migrator.Sweep(guildID)

	cfg, err := e.Config.Load(ctx, guildID)
	if err != nil {
		return errors.WrapIf(err, "failed to load guild config")
	}

	stored, err := e.Snapshots.Get(ctx, guildID, channelID)
	if err != nil {
		return err
	}

	pinned, err := e.Platform.ChannelPins(ctx, channelID)
	if err != nil {
		if IsPermissionDenied(err) {
			e.Logger.GuildLog(ctx, guildID, "The bot cannot read the pins of <#"+channelID+">! Please check its permissions.")
		}
		return errors.WrapIf(err, "failed to list pins")
	}
	live := messageIDs(pinned)

	transition := e.Differ.Diff(stored, live)
	notificationsTotal.WithLabelValues(transition.String()).Inc()

	current := live
	acted := false
	if transition == Grown {
		current, acted, err = e.Enforcer.Enforce(ctx, guildID, channelID, live)
		if err != nil {
			e.reportFailure(ctx, guildID, err)
			lit.Error("Enforcing locked pins in channel %s failed: %s", channelID, err)
		}
	}

	if err := e.Snapshots.Set(ctx, guildID, channelID, current); err != nil {
		return err
	}

	if _, monitored := cfg.MonitoredChannels[channelID]; !monitored {
		return nil
	}

	if acted {
		if pinned, err = e.Platform.ChannelPins(ctx, channelID); err != nil {
			return errors.WrapIf(err, "failed to list pins")
		}
		current = messageIDs(pinned)
	}
	if len(pinned) < e.capacity() {
		return nil
	}

	migrated, err := e.Migrator.Migrate(ctx, cfg, channelID, pinned)
	if err != nil {
		migrationsTotal.WithLabelValues("failed").Inc()
		e.reportFailure(ctx, guildID, err)
		return errors.WrapIf(err, "migration failed")
	}
	migrationsTotal.WithLabelValues("ok").Inc()

	return e.Snapshots.Set(ctx, guildID, channelID, without(current, migrated))
}

func (e *Engine) capacity() int {
	if e.Capacity <= 0 {
		return DefaultCapacity
	}
	return e.Capacity
}

// reportFailure tells the guild's operators about failures they can fix.
func (e *Engine) reportFailure(ctx context.Context, guildID string, err error) {
	switch {
	case errors.Is(err, ErrNoDestination):
		e.Logger.GuildLog(ctx, guildID, ErrNoDestination.Error())
	case IsPermissionDenied(err):
		e.Logger.GuildLog(ctx, guildID, "The bot is missing permissions to manage pins or post to the bulletin channel: "+err.Error())
		utils.Warn("Pins", "PermissionDenied", fmt.Sprintf("guild %s: %s", guildID, err))
	}
}

func messageIDs(messages []*discordgo.Message) []string {
	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID)
	}
	return ids
}
