package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/config"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/db"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/event"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/handler"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/service"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/utils"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Initialize logging system
	utils.InitLogger()
	logger := utils.GetLogger()

	if err := run(); err != nil {
		fmt.Println("Server failed", err)
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	logger := utils.GetLogger()

	if path, err := config.EnsureDefaultConfig(); err != nil {
		logger.Warn("Failed to write default config", "error", err)
	} else {
		logger.Debug("Using config file", "path", path)
	}
	cfg, _, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}

	mediatorCfg := cfg.MediatorModel()
	mediatorCfg.Normalize()
	mediator, err := service.CreateChatModel(ctx, &mediatorCfg)
	if err != nil {
		return fmt.Errorf("create mediator model: %w", err)
	}
	safetyCfg := cfg.SafetyModel()
	safetyCfg.Normalize()
	safetyModel, err := service.CreateChatModel(ctx, &safetyCfg)
	if err != nil {
		return fmt.Errorf("create safety model: %w", err)
	}
	logger.Info("Models configured",
		"mediator", mediatorCfg.Provider+"/"+mediatorCfg.Model,
		"safety", safetyCfg.Provider+"/"+safetyCfg.Model)

	g, ctx := errgroup.WithContext(ctx)

	hub := event.NewHub()
	var locker service.SessionLocker = service.NewMemoryLocker()
	if cfg.RedisEnabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		locker = service.NewRedisLocker(client)
		relay := event.NewRedisRelay(client, hub)
		g.Go(func() error { return relay.Run(ctx) })
		logger.Info("Redis coordination enabled", "addr", cfg.Redis.Addr)
	}

	participants := service.NewParticipantService(gdb, locker)
	participants.SetPresenceSource(hub)
	participants.SetPresenceWindow(cfg.PresenceWindow())
	profiles := service.NewProfileService(gdb)
	orchestrator := service.NewOrchestrator(mediator, service.NewSafetyClassifier(safetyModel))
	sessions := service.NewSessionService(gdb, orchestrator, participants, profiles, locker, hub)

	server := NewServer(cfg.Host(), cfg.Port(), Services{
		Sessions:     sessions,
		Participants: participants,
		Profiles:     profiles,
		Models:       service.NewModelService(),
		Hub:          hub,
		Invites: handler.InviteSettings{
			DefaultTTL: cfg.InviteTTL(),
			BaseURL:    cfg.InviteBaseURL(),
		},
	}, []string{cfg.InviteBaseURL()})

	g.Go(func() error { return server.Run(ctx) })

	return g.Wait()
}
