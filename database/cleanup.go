package database

import (
	"context"
	"time"

	"bulletin-board/models"

	"emperror.dev/errors"
	"github.com/bwmarrin/lit"
)

// SnapshotRetention is how long an idle snapshot is kept.
const SnapshotRetention = 31 * 24 * time.Hour

// CleanupIdleSnapshots deletes snapshots that were not updated within maxAge
// and whose channel is neither monitored nor holds locked pins. Nothing reads
// those snapshots, and a channel that becomes active again starts from an
// empty list.
func CleanupIdleSnapshots(ctx context.Context, s *SnapshotDB, maxAge time.Duration) (int64, error) {
	lit.Debug("Starting cleanup of idle pin snapshots...")

	cutoff := time.Now().Add(-maxAge).Unix()
	res, err := s.db.ExecContext(ctx, `
    DELETE FROM pin_snapshots
    WHERE updated_at < ?
      AND NOT EXISTS (
        SELECT 1 FROM guild_config c
        WHERE c.guild_id = pin_snapshots.guild_id
          AND ((c.section = ? AND c.key = pin_snapshots.channel_id)
            OR (c.section = ? AND c.value = pin_snapshots.channel_id))
      );`,
		cutoff, string(models.SectionMonitoredChannels), string(models.SectionLockedMessages))
	if err != nil {
		return 0, errors.WrapIf(err, "failed to delete idle snapshots")
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, errors.WrapIf(err, "failed to count deleted snapshots")
	}

	lit.Debug("Finished cleanup of idle pin snapshots, %d removed", rowsAffected)
	return rowsAffected, nil
}
