package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"

	"buxbot/backup"
	"buxbot/cogs"
	"buxbot/config"
	"buxbot/economy"
	"buxbot/games/fight"
	"buxbot/games/parley"
	"buxbot/health"
	"buxbot/interact"
	"buxbot/jobs"
	"buxbot/ledger"
	"buxbot/logging"
	"buxbot/session"
)

func main() {
	restore := flag.String("restore", "", "load a backup snapshot into the ledger and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *restore != "" {
		if err := restoreSnapshot(ctx, cfg, *restore, logger); err != nil {
			logger.Error("restore failed", "error", err)
			os.Exit(1)
		}
		return
	}

	status := health.NewStatus()
	go func() {
		if err := health.Serve(ctx, ":"+cfg.Port, status, logger); err != nil {
			logger.Error("health server error", "error", err)
		}
	}()

	if err := run(ctx, cfg, status, logger); err != nil && !errors.Is(err, context.Canceled) {
		status.Set(health.StatusError)
		logger.Error("bot stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("gracefully shut down")
}

type stack struct {
	redis   redis.UniversalClient
	ledger  *ledger.Ledger
	service *economy.Service
}

func (s *stack) Close(logger *slog.Logger) {
	if s.ledger != nil {
		if err := s.ledger.Close(); err != nil {
			logger.Error("close ledger", "error", err)
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			logger.Error("close redis", "error", err)
		}
	}
}

func openStack(ctx context.Context, cfg config.Config, logger *slog.Logger) (*stack, error) {
	st := &stack{}
	if cfg.UsesRedis() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		st.redis = client
	}

	store, err := ledger.Open(ctx, ledger.Options{
		Backend:     cfg.StoreBackend,
		DataDir:     cfg.DataDir,
		DatabaseURL: cfg.DatabaseURL,
		Redis:       st.redis,
	})
	if err != nil {
		st.Close(logger)
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	st.ledger = ledger.New(store, cfg.LedgerPlaces, logger)

	var guard session.Guard = session.NewMemory()
	if cfg.GuardBackend == "redis" {
		guard = session.NewRedis(st.redis, cfg.GuardTTL, logger)
	}
	st.service = economy.NewService(st.ledger, guard, economy.Options{
		StartingGrant: cfg.StartingGrant,
		DailyGrant:    cfg.DailyGrant,
		WelfareGrant:  cfg.WelfareGrant,
	}, logger)
	logger.Info("ledger ready", "backend", cfg.StoreBackend, "guard", cfg.GuardBackend)
	return st, nil
}

func run(ctx context.Context, cfg config.Config, status *health.Status, logger *slog.Logger) error {
	st, err := openStack(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close(logger)

	backups := backup.New(st.ledger, backup.Options{
		Dir:      cfg.BackupDir,
		Keep:     cfg.BackupKeep,
		Compress: cfg.BackupCompress,
	}, logger)
	hour, minute, _ := cfg.ParleyClock()
	jobOpts := jobs.Options{
		Interval:        cfg.JobInterval,
		ParleyHour:      hour,
		ParleyMinute:    minute,
		ParleyChannelID: cfg.ParleyChannelID,
	}

	if cfg.BotToken == "" {
		logger.Warn("BOT_TOKEN not set, Discord bot will not connect")
		status.Set(health.StatusNoToken)
		return jobs.New(backups, st.service, nil, jobOpts, logger).Run(ctx)
	}

	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsDirectMessageReactions |
		discordgo.IntentsMessageContent

	hub := interact.NewHub()
	prompter := cogs.NewPrompter(dg, hub, logger)
	pl := parley.New(st.service, prompter, filepath.Join(cfg.DataDir, "parleys.json"),
		rand.New(rand.NewSource(time.Now().UnixNano())), logger)
	bot := cogs.New(dg, st.service, pl, prompter, hub, cogs.Options{
		Prefix:  cfg.Prefix,
		IsAdmin: cfg.IsAdmin,
		Fight:   fight.Options{HouseFighters: cfg.FightHouseFighters, Pause: cfg.FightPause},
	}, logger)

	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		logger.Info("discord bot logged in", "user", r.User.Username, "id", r.User.ID)
		status.Set(health.StatusOnline)
		if err := s.UpdateGameStatus(0, cfg.Prefix+"h for help"); err != nil {
			logger.Warn("update status failed", "error", err)
		}
	})
	dg.AddHandler(bot.OnMessageCreate)
	dg.AddHandler(bot.OnReactionAdd)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("open discord connection: %w", err)
	}
	defer dg.Close()
	status.Set(health.StatusRunning)
	logger.Info("bot is now running, press CTRL+C to exit")

	err = jobs.New(backups, st.service, pl, jobOpts, logger).Run(ctx)
	status.Set(health.StatusShuttingDown)
	return err
}

func restoreSnapshot(ctx context.Context, cfg config.Config, path string, logger *slog.Logger) error {
	snap, err := backup.Read(path)
	if err != nil {
		return err
	}
	st, err := openStack(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close(logger)
	n, err := backup.Restore(ctx, st.ledger, snap)
	if err != nil {
		return err
	}
	logger.Info("snapshot restored", "path", path, "accounts", n)
	return nil
}
