package pins

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"bulletin-board/models"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/lit"
	"github.com/hashicorp/go-cleanhttp"
)

// Migrator relays the oldest pin of a full channel to its bulletin channel.
type Migrator struct {
	Platform Platform
	Webhooks *WebhookManager
	Client   *http.Client
	// TempDir holds one subdirectory per guild; each migration gets its own
	// directory inside it.
	TempDir string
}

// NewMigrator wires a migrator with a pooled HTTP client for attachment downloads.
func NewMigrator(platform Platform, webhooks *WebhookManager, tempDir string) *Migrator {
	return &Migrator{
		Platform: platform,
		Webhooks: webhooks,
		Client:   cleanhttp.DefaultPooledClient(),
		TempDir:  tempDir,
	}
}

// Migrate relays the last element of pinned (the oldest pin) and unpins it.
// It returns the id of the migrated message. On any failure the source stays
// pinned and the next notification starts over.
func (m *Migrator) Migrate(ctx context.Context, cfg *models.GuildConfig, channelID string, pinned []*discordgo.Message) (string, error) {
	if len(pinned) == 0 {
		return "", nil
	}
	oldest := pinned[len(pinned)-1]

	dest, _ := cfg.Destination(channelID)
	if dest == "" {
		return "", ErrNoDestination
	}
	if _, err := m.Platform.Channel(ctx, dest); err != nil {
		lit.Debug("Bulletin channel %s is not accessible: %s", dest, err)
		return "", errors.WithDetails(ErrNoDestination, "channel", dest)
	}

	guildDir := m.guildDir(cfg.GuildID)
	if err := os.MkdirAll(guildDir, 0755); err != nil {
		return "", errors.WrapIf(err, "failed to create transient storage")
	}
	dir, err := os.MkdirTemp(guildDir, "migration-*")
	if err != nil {
		return "", errors.WrapIf(err, "failed to create transient storage")
	}
	defer os.RemoveAll(dir)

	post := BuildRelayedPost(cfg.GuildID, channelID, oldest)
	if post.Attachments, err = m.download(ctx, dir, oldest.Attachments); err != nil {
		return "", err
	}

	if err := m.Webhooks.Deliver(ctx, cfg.GuildID, dest, post); err != nil {
		return "", err
	}

	if err := m.Platform.Unpin(ctx, channelID, post.MessageID); err != nil {
		return "", errors.WrapIf(err, "failed to unpin migrated message")
	}

	lit.Info("Migrated pin %s from channel %s to %s", post.MessageID, channelID, dest)
	return post.MessageID, nil
}

func (m *Migrator) download(ctx context.Context, dir string, attachments []*discordgo.MessageAttachment) ([]models.Attachment, error) {
	files := make([]models.Attachment, 0, len(attachments))
	for i, a := range attachments {
		name := filepath.Base(a.Filename)
		path := filepath.Join(dir, fmt.Sprintf("%d_%s", i, name))
		if err := m.fetch(ctx, a.URL, path); err != nil {
			return nil, errors.WrapIfWithDetails(err, "failed to download attachment", "filename", a.Filename)
		}
		files = append(files, models.Attachment{Filename: name, Path: path})
	}
	return files, nil
}

func (m *Migrator) fetch(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := m.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (m *Migrator) guildDir(guildID string) string {
	return filepath.Join(m.TempDir, filepath.Base(guildID))
}

// Sweep removes whatever a previous failed migration left behind for a guild.
// Callers hold the guild's scope, so nothing in there is in use.
func (m *Migrator) Sweep(guildID string) {
	dir := m.guildDir(guildID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			lit.Warn("Could not remove transient file %s: %s", e.Name(), err)
		}
	}
}

// SweepStale removes entries under root untouched for longer than maxAge.
func SweepStale(root string, maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	guilds, err := os.ReadDir(root)
	if err != nil {
		return 0
	}
	for _, g := range guilds {
		if !g.IsDir() {
			continue
		}
		dir := filepath.Join(root, g.Name())
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			info, err := e.Info()
			if err != nil || info.ModTime().After(cutoff) {
				continue
			}
			if os.RemoveAll(filepath.Join(dir, e.Name())) == nil {
				removed++
			}
		}
	}
	return removed
}

// BuildRelayedPost copies what is relayed from a pinned message.
func BuildRelayedPost(guildID, channelID string, msg *discordgo.Message) models.RelayedPost {
	post := models.RelayedPost{
		MessageID: msg.ID,
		Content:   msg.Content,
		JumpURL:   fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, msg.ID),
		Timestamp: msg.Timestamp,
	}
	if msg.Author != nil {
		post.AuthorTag = msg.Author.String()
		post.AuthorName = msg.Author.GlobalName
		if post.AuthorName == "" {
			post.AuthorName = msg.Author.Username
		}
		post.AvatarURL = msg.Author.AvatarURL("")
	}
	return post
}
