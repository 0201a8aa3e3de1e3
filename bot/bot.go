package bot

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bulletin-board/config"
	"bulletin-board/database"
	"bulletin-board/models"
	"bulletin-board/pins"
	"bulletin-board/utils"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/lit"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Bot encapsulates the bot's state.
type Bot struct {
	Session  *discordgo.Session
	Commands []*discordgo.ApplicationCommand
	Settings *models.Settings

	DB        *sql.DB
	Store     *database.GuildStore
	Locks     *database.GuildLocks
	Platform  pins.Platform
	Engine    *pins.Engine
	GuildLogs *utils.GuildLogger
	Auth      *utils.Auth

	metrics *http.Server
}

// NewBot creates and initializes a new Bot instance.
func NewBot() (*Bot, error) {
	settings, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	lit.LogLevel = config.LogLevel(settings.Bot.LogLevel)

	if settings.BotToken == "" {
		return nil, errors.New("no bot token provided")
	}

	dg, err := discordgo.New("Bot " + settings.BotToken)
	if err != nil {
		return nil, errors.WrapIf(err, "error creating Discord session")
	}

	// Pin updates arrive with the Guilds intent; message content is needed to relay pins.
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	db, err := database.InitDB(settings.Storage.Path)
	if err != nil {
		return nil, err
	}

	b := &Bot{
		Session:  dg,
		Settings: settings,
		DB:       db,
		Store:    database.NewGuildStore(db),
		Locks:    database.NewGuildLocks(),
		Platform: &pins.SessionPlatform{Session: dg},
		Auth:     utils.NewAuth(settings.Bot.Developers),
	}
	b.GuildLogs = &utils.GuildLogger{Channels: b.Store, Sender: b.Platform}

	if b.Engine, err = b.newEngine(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func (b *Bot) newEngine() (*pins.Engine, error) {
	differ, err := pins.NewDiffer(b.Settings.Pins.DiffPolicy)
	if err != nil {
		return nil, err
	}

	var snapshots pins.SnapshotStore
	switch b.Settings.Storage.SnapshotBackend {
	case "file":
		snapshots = database.NewSnapshotFiles(b.Settings.Storage.SnapshotDir)
	case "", "sqlite":
		snapshots = database.NewSnapshotDB(b.DB)
	default:
		return nil, errors.Errorf("unknown snapshot backend %q", b.Settings.Storage.SnapshotBackend)
	}

	webhooks := &pins.WebhookManager{Platform: b.Platform, Store: b.Store}
	return &pins.Engine{
		Platform:  b.Platform,
		Config:    b.Store,
		Snapshots: snapshots,
		Differ:    differ,
		Enforcer:  &pins.Enforcer{Platform: b.Platform, Store: b.Store},
		Migrator:  pins.NewMigrator(b.Platform, webhooks, b.Settings.Pins.TempDir),
		Locks:     b.Locks,
		Logger:    b.GuildLogs,
		Capacity:  b.Settings.Pins.Capacity,
	}, nil
}

// RegisterCommands registers the provided command definitions.
func (b *Bot) RegisterCommands(commands []*discordgo.ApplicationCommand) {
	b.Commands = append(b.Commands, commands...)
}

// Start opens the bot's session and registers handlers.
func (b *Bot) Start(registerHandlers func(*Bot)) error {
	registerHandlers(b)

	if err := b.Session.Open(); err != nil {
		return errors.WrapIf(err, "error opening connection")
	}

	utils.InitLogger(b.Session, b.Settings.Bot.AdminChannelID)

	for _, cmd := range b.Commands {
		if _, err := b.Session.ApplicationCommandCreate(b.Session.State.User.ID, "", cmd); err != nil {
			lit.Error("Cannot create '%s' command: %s", cmd.Name, err)
		}
	}

	startScheduler(b)
	b.startMetrics()

	lit.Info("Bulletin Board is now running. Press CTRL-C to exit.")
	utils.Info("Bot", "Start", "Bulletin Board is online.")
	return nil
}

func (b *Bot) startMetrics() {
	if b.Settings.Metrics.Listen == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	b.metrics = &http.Server{Addr: b.Settings.Metrics.Listen, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := b.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lit.Error("Metrics server stopped: %s", err)
		}
	}()
	lit.Info("Serving metrics on %s", b.Settings.Metrics.Listen)
}

// Stop gracefully closes the bot's session.
func (b *Bot) Stop() {
	stopScheduler()
	if b.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = b.metrics.Shutdown(ctx)
		cancel()
	}
	if b.Session != nil {
		_ = b.Session.Close()
	}
	if b.DB != nil {
		_ = b.DB.Close()
	}
	lit.Info("Bot stopped gracefully.")
}

// Run is the main entry point for the bot application.
func Run(registerHandlers func(*Bot), commands []*discordgo.ApplicationCommand) {
	bot, err := NewBot()
	if err != nil {
		lit.Error("Error initializing bot: %s", err)
		os.Exit(1)
	}

	bot.RegisterCommands(commands)

	if err := bot.Start(registerHandlers); err != nil {
		lit.Error("Error starting bot: %s", err)
		os.Exit(1)
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	bot.Stop()
}
