package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weatherbot/internal/bot"
	"weatherbot/internal/channel"
	"weatherbot/internal/status"

	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the Telegram bot",
		Long:  "Connects to Telegram with long polling and serves chats until interrupted. Press Ctrl+C to stop.",
		RunE:  runBot,
	}
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Telegram.Token == "" {
		return errors.New("TELEGRAM_TOKEN is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	tg := channel.NewTelegram(channel.TelegramConfig{
		Token:       cfg.Telegram.Token,
		PollTimeout: cfg.Telegram.PollTimeout,
		Logger:      logger,
	})
	if err := tg.Connect(); err != nil {
		return err
	}

	handler := bot.NewHandler(bot.HandlerConfig{
		Messenger: tg,
		Weather:   svc.weather,
		News:      svc.news,
		Logger:    logger,
	})

	statusErr := make(chan error, 1)
	if cfg.Status.Enabled {
		sc := status.Config{
			Addr:    cfg.Status.Addr(),
			Version: version,
			Logger:  logger,
		}
		if svc.store != nil {
			sc.Stats = svc.store
		}
		srv := status.New(sc)
		go func() {
			statusErr <- srv.Start(ctx)
		}()
	}

	logger.Info("weatherbot started", "version", version)
	runErr := tg.Run(ctx, handler)
	stop()

	if cfg.Status.Enabled {
		select {
		case err := <-statusErr:
			if err != nil {
				logger.Error("status server", "err", err)
			}
		case <-time.After(10 * time.Second):
			logger.Warn("status server did not stop in time")
		}
	}

	logger.Info("weatherbot stopped")
	return runErr
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the bot in the terminal",
		Long:  "Runs the same conversation flow as the Telegram bot on stdin/stdout. Buttons are printed with numbers; type #1 or #2 to press one.",
		RunE:  runChat,
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	console := channel.NewConsole(channel.ConsoleConfig{
		Logger: logger,
		In:     cmd.InOrStdin(),
		Out:    cmd.OutOrStdout(),
	})
	handler := bot.NewHandler(bot.HandlerConfig{
		Messenger: console,
		Weather:   svc.weather,
		News:      svc.news,
		Logger:    logger,
	})

	if err := console.Run(ctx, handler); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}
