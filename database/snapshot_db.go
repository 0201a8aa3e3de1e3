package database

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"emperror.dev/errors"
	"github.com/goccy/go-json"
)

// SnapshotDB stores pin snapshots in the pin_snapshots table, one row per
// (guild, channel) holding a JSON array of message ids.
type SnapshotDB struct {
	db *sql.DB
}

// NewSnapshotDB wraps an initialised database.
func NewSnapshotDB(db *sql.DB) *SnapshotDB {
	return &SnapshotDB{db: db}
}

// Get returns the stored pin ids of a channel, most recent first. A channel
// that was never seen yields an empty slice.
func (s *SnapshotDB) Get(ctx context.Context, guildID, channelID string) ([]string, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT pins FROM pin_snapshots WHERE guild_id = ? AND channel_id = ?",
		guildID, channelID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, errors.WrapIf(err, "failed to read pin snapshot")
	}
	return decodeSnapshot(data)
}

// Set replaces the snapshot of a channel in a single statement.
func (s *SnapshotDB) Set(ctx context.Context, guildID, channelID string, ids []string) error {
	data, err := encodeSnapshot(ids)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
    INSERT INTO pin_snapshots (guild_id, channel_id, pins, updated_at) VALUES (?, ?, ?, ?)
    ON CONFLICT(guild_id, channel_id) DO UPDATE SET pins = excluded.pins, updated_at = excluded.updated_at;`,
		guildID, channelID, data, time.Now().Unix())
	if err != nil {
		return errors.WrapIf(err, "failed to write pin snapshot")
	}
	return nil
}

// encodeSnapshot writes ids as a JSON array of integers.
func encodeSnapshot(ids []string) ([]byte, error) {
	nums := make([]uint64, 0, len(ids))
	for _, id := range ids {
		n, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			return nil, errors.WrapIf(err, "invalid message id in snapshot")
		}
		nums = append(nums, n)
	}
	return json.Marshal(nums)
}

func decodeSnapshot(data []byte) ([]string, error) {
	var nums []uint64
	if err := json.Unmarshal(data, &nums); err != nil {
		return nil, errors.WrapIf(err, "corrupt pin snapshot")
	}
	ids := make([]string, 0, len(nums))
	for _, n := range nums {
		ids = append(ids, strconv.FormatUint(n, 10))
	}
	return ids, nil
}
