package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PatrickWalther/twitch-favorites-go/internal/config"
	"github.com/PatrickWalther/twitch-favorites-go/internal/favorites"
	"github.com/PatrickWalther/twitch-favorites-go/internal/logger"
	"github.com/PatrickWalther/twitch-favorites-go/internal/notifications"
	"github.com/PatrickWalther/twitch-favorites-go/internal/storage"
	"github.com/PatrickWalther/twitch-favorites-go/internal/twitch"
	"github.com/PatrickWalther/twitch-favorites-go/internal/version"
	"github.com/PatrickWalther/twitch-favorites-go/internal/web"
)

var (
	configFile = flag.String("config", "config.json", "Path to configuration file")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	genConfig  = flag.Bool("generate-config", false, "Generate a sample configuration file")
)

func main() {
	flag.Parse()

	if *genConfig {
		setupBasicLogger(*debug)
		generateSampleConfig()
		return
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		setupBasicLogger(*debug)
		if os.IsNotExist(err) {
			slog.Error("Configuration file not found. Run with -generate-config to create a sample", "path", *configFile)
		} else {
			slog.Error("Failed to load configuration", "error", err)
		}
		os.Exit(1)
	}

	logSettings := cfg.Logger
	if *debug {
		logSettings.ConsoleLevel = "DEBUG"
		logSettings.FileLevel = "DEBUG"
	}

	log, err := logger.Setup("favd", logSettings)
	if err != nil {
		setupBasicLogger(*debug)
		slog.Error("Failed to setup logger", "error", err)
		os.Exit(1)
	}
	defer log.Close()

	slog.Info("Twitch Favorites", "version", version.Version)

	if err := run(cfg); err != nil {
		slog.Error("Daemon error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	db, err := storage.Open(cfg.StoragePath)
	if err != nil {
		return err
	}
	defer db.Close()

	documents, err := storage.NewDocumentStore(db, time.Duration(cfg.Intervals.DocumentWatchInterval)*time.Second)
	if err != nil {
		return err
	}

	client := twitch.NewClient()
	store := favorites.NewStore(documents, client, time.Duration(cfg.Intervals.LiveRefreshInterval)*time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.Load(ctx); err != nil {
		return err
	}
	defer store.Close()

	notifier := notifications.NewManager(cfg.Discord, store)
	if err := notifier.Start(); err != nil {
		slog.Error("Failed to start notifications", "error", err)
	} else {
		defer notifier.Stop()
	}

	if cfg.Web.Enabled {
		server := web.NewServer(cfg.Web, store)
		server.Start()
		defer server.Stop()
	}

	store.StartRefresh(ctx)

	<-ctx.Done()
	slog.Info("Shutting down")
	return nil
}

func setupBasicLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func generateSampleConfig() {
	cfg := config.DefaultConfig()

	if err := config.SaveConfig("config.sample.json", &cfg); err != nil {
		slog.Error("Failed to save sample configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Sample configuration generated", "path", "config.sample.json")
	fmt.Println("\nSample configuration saved to config.sample.json")
	fmt.Println("Rename it to config.json and update with your settings")
}
