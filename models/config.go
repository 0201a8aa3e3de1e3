package models

// Settings represents the process configuration loaded from config.yaml and the environment.
type Settings struct {
	BotToken string        `mapstructure:"bot_token"`
	Bot      BotSettings   `mapstructure:"bot"`
	Storage  StorageConfig `mapstructure:"storage"`
	Pins     PinsConfig    `mapstructure:"pins"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
}

// BotSettings holds the session-level options.
type BotSettings struct {
	AdminChannelID string   `mapstructure:"adminChannelId"`
	LogLevel       string   `mapstructure:"loglevel"`
	Developers     []string `mapstructure:"developers"`
}

// StorageConfig selects where guild configuration and pin snapshots live.
type StorageConfig struct {
	Path            string `mapstructure:"path"`
	SnapshotBackend string `mapstructure:"snapshot_backend"` // sqlite or file
	SnapshotDir     string `mapstructure:"snapshot_dir"`
}

// PinsConfig tunes the reconciliation engine.
type PinsConfig struct {
	Capacity   int    `mapstructure:"capacity"`
	DiffPolicy string `mapstructure:"diff_policy"` // count or set
	TempDir    string `mapstructure:"tempdir"`
}

// MetricsConfig enables the Prometheus endpoint when Listen is set.
type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}
