package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/susu3304/tipbot/internal/api"
	"github.com/susu3304/tipbot/internal/bot"
	"github.com/susu3304/tipbot/internal/chain"
	"github.com/susu3304/tipbot/internal/commands"
	"github.com/susu3304/tipbot/internal/config"
	"github.com/susu3304/tipbot/internal/db"
	"github.com/susu3304/tipbot/internal/logging"
	"github.com/susu3304/tipbot/internal/rewards"
	"github.com/susu3304/tipbot/internal/wallet"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(ctx, "tipbot stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	// Connect to database
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(ctx); err != nil {
		return err
	}

	client, err := chain.Dial(ctx, chain.Options{
		RPCURL:  cfg.RPCURL,
		Factory: cfg.FactoryAddress,
		ChainID: cfg.ChainID,
		Timeout: cfg.TxTimeout,
	})
	if err != nil {
		return err
	}
	defer client.Close()
	logger.Info(ctx, "connected to chain", "chain_id", client.ChainID(), "factory", cfg.FactoryAddress.Hex())

	// Initialize Telegram bot
	telegramBot, err := bot.New(cfg.BotToken, logger.With("component", "bot"))
	if err != nil {
		return err
	}

	engine := rewards.NewEngine(database, client, logger.With("component", "rewards"))
	dispatcher := commands.New(commands.Options{
		Store:       database,
		Chain:       client,
		Rewards:     engine,
		Keys:        wallet.NewKeystore(cfg.LightKeystore),
		Messenger:   telegramBot,
		Logger:      logger.With("component", "commands"),
		ExplorerURI: cfg.ExplorerURI,
	})
	telegramBot.SetHandler(dispatcher)
	defer telegramBot.Wait()

	if err := telegramBot.RegisterCommands(ctx); err != nil {
		logger.Warn(ctx, "failed to register command list", "error", err)
	}

	if cfg.DefaultSecret() {
		logger.Warn(ctx, "JWT_SECRET is unset, admin API accepts tokens signed with the development default")
	}

	apiOpts := api.Options{
		Store:     database,
		Logger:    logger.With("component", "api"),
		JWTSecret: cfg.JWTSecret,
		Bind:      cfg.WebBind,
	}
	webhook := cfg.WebhookURL()
	if webhook != "" {
		apiOpts.Webhook = telegramBot
		apiOpts.WebhookPath = cfg.WebhookPath()
	}
	apiServer := api.New(apiOpts)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	apiDone := make(chan error, 1)
	go func() {
		apiDone <- apiServer.Start(ctx)
	}()

	pollDone := make(chan error, 1)
	if webhook != "" {
		if err := telegramBot.SetWebhook(ctx, webhook); err != nil {
			cancel()
			<-apiDone
			return err
		}
	} else {
		go func() {
			pollDone <- telegramBot.Poll(ctx)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info(ctx, "shutting down")
	case runErr = <-pollDone:
	case runErr = <-apiDone:
		cancel()
		return runErr
	}

	cancel()
	if err := <-apiDone; err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
