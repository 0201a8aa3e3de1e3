package database

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"bulletin-board/models"

	"emperror.dev/errors"
)

// MaxLockedPerChannel is the number of locked messages a single channel may hold.
const MaxLockedPerChannel = 10

const (
	// ErrLockCapacity is returned when a channel already holds MaxLockedPerChannel locks.
	ErrLockCapacity = errors.Sentinel("You can only have 10 locked messages in a channel! You must unlock a pinned message before you can lock any more!")
	// ErrNoEntry is returned by Get when a key is neither set nor defaulted.
	ErrNoEntry = errors.Sentinel("no such config entry")
)

// sectionDefaults are returned by Get but never by List.
var sectionDefaults = map[models.Section]map[string]string{
	models.SectionDefault: {
		models.KeyDefaultBulletinChannel: "0",
		models.KeyLogChannel:             "0",
	},
}

// GuildStore persists per-guild configuration sections in SQLite.
// It does no locking of its own; callers hold the guild's GuildLocks scope.
type GuildStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewGuildStore wraps an initialised database.
func NewGuildStore(db *sql.DB) *GuildStore {
	return &GuildStore{db: db, now: time.Now}
}

// Get returns the value of key, falling back to the section default.
func (s *GuildStore) Get(ctx context.Context, guildID string, section models.Section, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM guild_config WHERE guild_id = ? AND section = ? AND key = ?",
		guildID, string(section), key).Scan(&value)
	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, sql.ErrNoRows):
		if def, ok := sectionDefaults[section][key]; ok {
			return def, nil
		}
		return "", ErrNoEntry
	default:
		return "", errors.WrapIf(err, "failed to read config entry")
	}
}

// Set stores value under key. The original creation time is preserved on overwrite.
func (s *GuildStore) Set(ctx context.Context, guildID string, section models.Section, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
    INSERT INTO guild_config (guild_id, section, key, value, created_at) VALUES (?, ?, ?, ?, ?)
    ON CONFLICT(guild_id, section, key) DO UPDATE SET value = excluded.value;`,
		guildID, string(section), key, value, s.now().UnixNano())
	if err != nil {
		return errors.WrapIf(err, "failed to write config entry")
	}
	return nil
}

// Remove deletes key from the section. Removing a missing key is not an error.
func (s *GuildStore) Remove(ctx context.Context, guildID string, section models.Section, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM guild_config WHERE guild_id = ? AND section = ? AND key = ?",
		guildID, string(section), key)
	if err != nil {
		return errors.WrapIf(err, "failed to remove config entry")
	}
	return nil
}

// List returns the explicitly set entries of a section. Defaults are never included.
func (s *GuildStore) List(ctx context.Context, guildID string, section models.Section) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value FROM guild_config WHERE guild_id = ? AND section = ?",
		guildID, string(section))
	if err != nil {
		return nil, errors.WrapIf(err, "failed to list config section")
	}
	defer rows.Close()

	entries := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, errors.WrapIf(err, "failed to scan config entry")
		}
		entries[key] = value
	}
	return entries, rows.Err()
}

// Load assembles the overflow routing of a guild. Locks, webhooks and the
// log channel are read through their own accessors.
func (s *GuildStore) Load(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	cfg := &models.GuildConfig{GuildID: guildID}

	defaults, err := s.List(ctx, guildID, models.SectionDefault)
	if err != nil {
		return nil, err
	}
	cfg.DefaultOverflowChannel = channelOrUnset(defaults[models.KeyDefaultBulletinChannel])

	if cfg.MonitoredChannels, err = s.List(ctx, guildID, models.SectionMonitoredChannels); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetDefaultOverflowChannel sets the bulletin channel used when a monitored channel has no override.
func (s *GuildStore) SetDefaultOverflowChannel(ctx context.Context, guildID, channelID string) error {
	return s.Set(ctx, guildID, models.SectionDefault, models.KeyDefaultBulletinChannel, channelID)
}

// SetLogChannel sets the channel diagnostics are posted to.
func (s *GuildStore) SetLogChannel(ctx context.Context, guildID, channelID string) error {
	return s.Set(ctx, guildID, models.SectionDefault, models.KeyLogChannel, channelID)
}

// LogChannel returns the guild's log channel, or "" when unset.
func (s *GuildStore) LogChannel(ctx context.Context, guildID string) (string, error) {
	value, err := s.Get(ctx, guildID, models.SectionDefault, models.KeyLogChannel)
	if err != nil {
		return "", err
	}
	return channelOrUnset(value), nil
}

// ToggleMonitored registers channelID for overflow relay to dest, or removes
// it when it is already registered. It reports whether the channel is now monitored.
func (s *GuildStore) ToggleMonitored(ctx context.Context, guildID, channelID, dest string) (bool, error) {
	monitored, err := s.List(ctx, guildID, models.SectionMonitoredChannels)
	if err != nil {
		return false, err
	}
	if _, ok := monitored[channelID]; ok {
		return false, s.Remove(ctx, guildID, models.SectionMonitoredChannels, channelID)
	}
	return true, s.Set(ctx, guildID, models.SectionMonitoredChannels, channelID, dest)
}

// IsLocked reports whether messageID is a locked pin.
func (s *GuildStore) IsLocked(ctx context.Context, guildID, messageID string) (bool, error) {
	_, err := s.Get(ctx, guildID, models.SectionLockedMessages, messageID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNoEntry):
		return false, nil
	default:
		return false, err
	}
}

// LockMessage adds messageID to the locked pins of channelID. The capacity
// check and the insert run in one transaction. Locking an already locked
// message is a no-op.
func (s *GuildStore) LockMessage(ctx context.Context, guildID, channelID, messageID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapIf(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM guild_config WHERE guild_id = ? AND section = ? AND key = ?",
		guildID, string(models.SectionLockedMessages), messageID).Scan(&exists)
	if err != nil {
		return errors.WrapIf(err, "failed to check locked message")
	}
	if exists > 0 {
		return nil
	}

	var count int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM guild_config WHERE guild_id = ? AND section = ? AND value = ?",
		guildID, string(models.SectionLockedMessages), channelID).Scan(&count)
	if err != nil {
		return errors.WrapIf(err, "failed to count locked messages")
	}
	if count >= MaxLockedPerChannel {
		return ErrLockCapacity
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO guild_config (guild_id, section, key, value, created_at) VALUES (?, ?, ?, ?, ?)",
		guildID, string(models.SectionLockedMessages), messageID, channelID, s.now().UnixNano())
	if err != nil {
		return errors.WrapIf(err, "failed to lock message")
	}

	return errors.WrapIf(tx.Commit(), "failed to commit lock")
}

// UnlockMessage removes messageID from the locked pins.
func (s *GuildStore) UnlockMessage(ctx context.Context, guildID, messageID string) error {
	return s.Remove(ctx, guildID, models.SectionLockedMessages, messageID)
}

// LockedPins returns the locked pins of channelID ordered by lock time.
func (s *GuildStore) LockedPins(ctx context.Context, guildID, channelID string) ([]models.LockedPin, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, created_at FROM guild_config WHERE guild_id = ? AND section = ? AND value = ?",
		guildID, string(models.SectionLockedMessages), channelID)
	if err != nil {
		return nil, errors.WrapIf(err, "failed to query locked messages")
	}
	defer rows.Close()

	var pins []models.LockedPin
	for rows.Next() {
		var (
			messageID string
			lockedAt  int64
		)
		if err := rows.Scan(&messageID, &lockedAt); err != nil {
			return nil, errors.WrapIf(err, "failed to scan locked message")
		}
		pins = append(pins, models.LockedPin{
			MessageID: messageID,
			ChannelID: channelID,
			LockedAt:  time.Unix(0, lockedAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(pins, func(i, j int) bool {
		if pins[i].LockedAt.Equal(pins[j].LockedAt) {
			return pins[i].MessageID < pins[j].MessageID
		}
		return pins[i].LockedAt.Before(pins[j].LockedAt)
	})
	return pins, nil
}

// Webhook returns the cached webhook URL for a destination channel.
func (s *GuildStore) Webhook(ctx context.Context, guildID, channelID string) (string, bool, error) {
	url, err := s.Get(ctx, guildID, models.SectionWebhooks, channelID)
	switch {
	case err == nil:
		return url, true, nil
	case errors.Is(err, ErrNoEntry):
		return "", false, nil
	default:
		return "", false, err
	}
}

// SetWebhook caches url for channelID, replacing any previous entry.
func (s *GuildStore) SetWebhook(ctx context.Context, guildID, channelID, url string) error {
	return s.Set(ctx, guildID, models.SectionWebhooks, channelID, url)
}

func channelOrUnset(value string) string {
	if value == "0" {
		return ""
	}
	return value
}
