package database

import (
	"database/sql"
	"os"
	"path/filepath"

	"emperror.dev/errors"
	"github.com/bwmarrin/lit"
	_ "github.com/mattn/go-sqlite3" // Import the SQLite3 driver
)

// InitDB initializes the database connection. It takes the database path as input.
func InitDB(dbPath string) (*sql.DB, error) {
	// Ensure the directory for the database file exists.
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.WrapIf(err, "failed to create database directory")
	}

	// Open the SQLite database. It will be created if it doesn't exist.
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, errors.WrapIf(err, "failed to open database")
	}

	// A single connection serialises writers; sqlite would otherwise return SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, errors.WrapIf(err, "failed to connect to database")
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	lit.Info("Successfully connected to the database at %s", dbPath)
	return db, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS guild_config (
        guild_id TEXT NOT NULL,
        section TEXT NOT NULL,
        key TEXT NOT NULL,
        value TEXT NOT NULL,
        created_at INTEGER NOT NULL,
        PRIMARY KEY (guild_id, section, key)
    );`,
		`CREATE TABLE IF NOT EXISTS pin_snapshots (
        guild_id TEXT NOT NULL,
        channel_id TEXT NOT NULL,
        pins TEXT NOT NULL,
        updated_at INTEGER NOT NULL,
        PRIMARY KEY (guild_id, channel_id)
    );`,
		"CREATE INDEX IF NOT EXISTS idx_guild_section_value ON guild_config(guild_id, section, value);",
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return errors.WrapIf(err, "failed to create tables")
		}
	}
	return nil
}
