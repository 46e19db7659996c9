package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tnicklin/nephalem/battlenet"
	"github.com/tnicklin/nephalem/config"
	"github.com/tnicklin/nephalem/discord"
	"github.com/tnicklin/nephalem/logger"
	"github.com/tnicklin/nephalem/metrics"
	"github.com/tnicklin/nephalem/models"
	"github.com/tnicklin/nephalem/store"
	"github.com/tnicklin/nephalem/tracker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	params, err := build()
	if err != nil {
		log.Fatal(err)
	}

	if err = run(params); err != nil {
		log.Fatal(err)
	}
}

func build() (runParams, error) {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.LoadWithDefaults("config/config.yaml", "config/secrets.yaml")
	if err != nil {
		return runParams{}, fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyEnv(os.Getenv)

	if cfg.Discord.Token == "" {
		return runParams{}, errors.New("DISCORD_TOKEN environment variable or discord.token config required")
	}
	if cfg.Discord.GuildID == "" {
		return runParams{}, errors.New("DISCORD_GUILD_ID environment variable or discord.guild_id config required")
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return runParams{}, fmt.Errorf("initialize logger: %w", err)
	}

	st := store.NewSQLiteStore(store.Params{Config: cfg.Store, Logger: appLogger})

	client := battlenet.New(battlenet.Params{Config: cfg.BattleNet, Logger: appLogger})
	if !cfg.BattleNet.HasCredentials() {
		appLogger.WarnW("battlenet: no client credentials configured, requests are anonymous")
	}

	bot, err := discord.New(discord.Params{
		Config: cfg.Discord,
		Client: client,
		Store:  st,
		Logger: appLogger,
	})
	if err != nil {
		return runParams{}, err
	}

	var poller tracker.Poller
	if cfg.Tracker.Enabled {
		poller = tracker.New(tracker.Params{
			Config: cfg.Tracker,
			Client: client,
			Store:  st,
			Notify: bot.NotifyEvents,
			Logger: appLogger,
		})
	}

	return runParams{
		Config:  cfg,
		Logger:  appLogger,
		Store:   st,
		Client:  client,
		Discord: bot,
		Tracker: poller,
	}, nil
}

type runParams struct {
	Config  *config.AppConfig
	Logger  logger.Logger
	Store   *store.SQLiteStore
	Client  battlenet.Client
	Discord discord.Discord
	Tracker tracker.Poller
}

// run starts all components and runs the application until shutdown.
func run(p runParams) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer p.Logger.Sync()

	if p.Config.Metrics.Addr != "" {
		metrics.Register()
		go func() {
			if err := metrics.Serve(ctx, p.Config.Metrics.Addr); err != nil {
				p.Logger.ErrorW("metrics server stopped", "addr", p.Config.Metrics.Addr, "error", err)
			}
		}()
	}

	if err := p.Store.Open(ctx); err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	if err := p.Store.RestoreFromDisk(ctx, p.Config.Store.Path); err != nil {
		p.Logger.WarnW("restore from disk", "error", err)
	}

	seedBattleTags(ctx, p.Store, p.Config.BattleTags, p.Logger)

	if err := p.Discord.Start(ctx); err != nil {
		return fmt.Errorf("start discord client: %w", err)
	}

	if p.Tracker != nil {
		if err := p.Tracker.Start(ctx); err != nil {
			return fmt.Errorf("start tracker: %w", err)
		}
	}

	p.Logger.InfoW("nephalem started", "region", p.Client.Region(), "tracker", p.Tracker != nil)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	if p.Tracker != nil {
		p.Tracker.Stop()
	}
	if err := p.Discord.Stop(); err != nil {
		p.Logger.ErrorW("stop discord client", "error", err)
	}
	if err := p.Client.Close(); err != nil {
		p.Logger.ErrorW("close battlenet client", "error", err)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	return p.Store.Shutdown(shutdownCtx)
}

// seedBattleTags tracks the battle tags listed in config. Tags already tracked are left alone.
func seedBattleTags(ctx context.Context, st store.Store, tags []string, log logger.Logger) {
	for _, raw := range tags {
		tag := models.BattleTag(raw)
		err := st.TrackBattleTag(ctx, store.TrackedBattleTag{BattleTag: tag, AddedBy: "config"})
		switch {
		case err == nil:
			log.InfoW("tracking battle tag from config", "battle_tag", tag.Display())
		case errors.Is(err, store.ErrAlreadyTracked):
		default:
			log.WarnW("seed battle tag", "battle_tag", raw, "error", err)
		}
	}
}
