package pins

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"bulletin-board/database"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

func notFoundError() error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusNotFound},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage, Message: "Unknown Message"},
	}
}

func forbiddenError() error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusForbidden},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingPermissions, Message: "Missing Permissions"},
	}
}

type executedPost struct {
	WebhookID string
	Params    *discordgo.WebhookParams
	Files     map[string]string
}

// fakePlatform keeps pins in memory and queues a notification for every pin
// change, the way the gateway would.
type fakePlatform struct {
	mu sync.Mutex

	pins     map[string][]string
	messages map[string]*discordgo.Message
	channels map[string]bool
	webhooks map[string]string

	pinCalls    int
	unpinCalls  int
	createCalls int
	executed    []executedPost
	sent        []string

	executeErr error
	pinsErr    error

	notifications []string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		pins:     make(map[string][]string),
		messages: make(map[string]*discordgo.Message),
		channels: make(map[string]bool),
		webhooks: make(map[string]string),
	}
}

func testMessage(id string) *discordgo.Message {
	return &discordgo.Message{
		ID:        id,
		Content:   "message " + id,
		Timestamp: time.Date(2022, time.March, 4, 12, 0, 0, 0, time.UTC),
		Author: &discordgo.User{
			ID:            "42",
			Username:      "alice",
			GlobalName:    "Alice",
			Discriminator: "0",
		},
	}
}

// addPin pins a message the way a user would: not counted as a bot call.
func (f *fakePlatform) addPin(channelID string, msg *discordgo.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ChannelID = channelID
	f.messages[msg.ID] = msg
	f.pins[channelID] = append([]string{msg.ID}, without(f.pins[channelID], msg.ID)...)
	f.notifications = append(f.notifications, channelID)
}

// seedPins sets the pin list without producing notifications.
func (f *fakePlatform) seedPins(channelID string, ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if _, ok := f.messages[id]; !ok {
			m := testMessage(id)
			m.ChannelID = channelID
			f.messages[id] = m
		}
	}
	f.pins[channelID] = append([]string(nil), ids...)
}

func (f *fakePlatform) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pinCalls, f.unpinCalls, f.createCalls = 0, 0, 0
	f.executed = nil
}

func (f *fakePlatform) pinned(channelID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.pins[channelID]...)
}

func (f *fakePlatform) popNotification() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.notifications) == 0 {
		return "", false
	}
	ch := f.notifications[0]
	f.notifications = f.notifications[1:]
	return ch, true
}

func (f *fakePlatform) ChannelPins(_ context.Context, channelID string) ([]*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pinsErr != nil {
		return nil, f.pinsErr
	}
	out := make([]*discordgo.Message, 0, len(f.pins[channelID]))
	for _, id := range f.pins[channelID] {
		out = append(out, f.messages[id])
	}
	return out, nil
}

func (f *fakePlatform) ChannelMessage(_ context.Context, _, messageID string) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[messageID]
	if !ok {
		return nil, notFoundError()
	}
	return m, nil
}

func (f *fakePlatform) Pin(_ context.Context, channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.messages[messageID]; !ok {
		return notFoundError()
	}
	f.pinCalls++
	f.pins[channelID] = append([]string{messageID}, without(f.pins[channelID], messageID)...)
	f.notifications = append(f.notifications, channelID)
	return nil
}

func (f *fakePlatform) Unpin(_ context.Context, channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	before := len(f.pins[channelID])
	f.pins[channelID] = without(f.pins[channelID], messageID)
	if len(f.pins[channelID]) == before {
		return notFoundError()
	}
	f.unpinCalls++
	f.notifications = append(f.notifications, channelID)
	return nil
}

func (f *fakePlatform) Channel(_ context.Context, channelID string) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.channels[channelID] {
		return nil, notFoundError()
	}
	return &discordgo.Channel{ID: channelID}, nil
}

func (f *fakePlatform) CreateWebhook(_ context.Context, channelID, name string) (*discordgo.Webhook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	id := fmt.Sprintf("%d", 7000+f.createCalls)
	token := fmt.Sprintf("token-%d", f.createCalls)
	f.webhooks[id] = token
	return &discordgo.Webhook{ID: id, Token: token, ChannelID: channelID, Name: name}, nil
}

func (f *fakePlatform) deleteWebhooks() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.webhooks = make(map[string]string)
}

func (f *fakePlatform) ExecuteWebhook(_ context.Context, webhookID, token string, params *discordgo.WebhookParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.executeErr != nil {
		return f.executeErr
	}
	if f.webhooks[webhookID] != token {
		return notFoundError()
	}

	files := make(map[string]string, len(params.Files))
	for _, file := range params.Files {
		data, err := io.ReadAll(file.Reader)
		if err != nil {
			return err
		}
		files[file.Name] = string(data)
	}
	f.executed = append(f.executed, executedPost{WebhookID: webhookID, Params: params, Files: files})
	return nil
}

func (f *fakePlatform) SendMessage(_ context.Context, channelID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, channelID+": "+content)
	return nil
}

type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingLogger) GuildLog(_ context.Context, _, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

type testEnv struct {
	platform  *fakePlatform
	store     *database.GuildStore
	snapshots *database.SnapshotDB
	logger    *recordingLogger
	engine    *Engine
	tempDir   string
}

const (
	testGuild    = "1000"
	testChannel  = "900"
	testBulletin = "800"
)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.InitDB(filepath.Join(t.TempDir(), "bulletin.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	platform := newFakePlatform()
	store := database.NewGuildStore(db)
	snapshots := database.NewSnapshotDB(db)
	logger := &recordingLogger{}
	tempDir := t.TempDir()

	webhooks := &WebhookManager{Platform: platform, Store: store}
	return &testEnv{
		platform:  platform,
		store:     store,
		snapshots: snapshots,
		logger:    logger,
		tempDir:   tempDir,
		engine: &Engine{
			Platform:  platform,
			Config:    store,
			Snapshots: snapshots,
			Differ:    CountDiffer{},
			Enforcer:  &Enforcer{Platform: platform, Store: store},
			Migrator:  NewMigrator(platform, webhooks, tempDir),
			Locks:     database.NewGuildLocks(),
			Logger:    logger,
			Capacity:  DefaultCapacity,
		},
	}
}

// drain handles queued notifications until none are left.
func (env *testEnv) drain(t *testing.T) {
	t.Helper()
	for i := 0; ; i++ {
		require.Less(t, i, 200, "notifications did not settle")
		ch, ok := env.platform.popNotification()
		if !ok {
			return
		}
		_ = env.engine.HandlePinsUpdate(context.Background(), testGuild, ch)
	}
}

func (env *testEnv) snapshot(t *testing.T, channelID string) []string {
	t.Helper()
	ids, err := env.snapshots.Get(context.Background(), testGuild, channelID)
	require.NoError(t, err)
	return ids
}

func pinIDs(from, n int) []string {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, fmt.Sprintf("%d", from+i))
	}
	return ids
}
