package bot

import (
	"context"
	"time"

	"bulletin-board/database"
	"bulletin-board/pins"
	"bulletin-board/utils"

	"github.com/bwmarrin/lit"
	"github.com/robfig/cron/v3"
)

var c *cron.Cron

// startScheduler starts the cron jobs.
func startScheduler(b *Bot) {
	lit.Debug("Initializing scheduler...")
	c = cron.New()

	tempDir := b.Settings.Pins.TempDir
	_, err := c.AddFunc("@hourly", func() {
		if n := pins.SweepStale(tempDir, time.Hour); n > 0 {
			lit.Info("Removed %d stale transient attachment entries", n)
		}
	})
	if err != nil {
		lit.Error("Could not set up cron job: %s", err)
		utils.Error("Scheduler", "AddFunc", "Transient storage sweep not scheduled: "+err.Error())
		return
	}

	if snapshots, ok := b.Engine.Snapshots.(*database.SnapshotDB); ok {
		_, err = c.AddFunc("@daily", func() {
			n, err := database.CleanupIdleSnapshots(context.Background(), snapshots, database.SnapshotRetention)
			if err != nil {
				lit.Error("Cleaning up idle snapshots failed: %s", err)
				utils.Error("Scheduler", "CleanupIdleSnapshots", err.Error())
				return
			}
			if n > 0 {
				lit.Info("Removed %d idle pin snapshots", n)
			}
		})
		if err != nil {
			lit.Error("Could not set up cron job: %s", err)
			utils.Error("Scheduler", "AddFunc", "Idle snapshot cleanup not scheduled: "+err.Error())
		}
	}

	c.Start()
	lit.Debug("Transient storage sweep scheduled to run hourly.")
}

// stopScheduler stops the cron jobs.
func stopScheduler() {
	if c != nil {
		c.Stop()
		lit.Debug("Scheduler stopped.")
	}
}
