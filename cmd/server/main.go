package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"math/rand/v2"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/digkill/PresetStore/internal/api"
	"github.com/digkill/PresetStore/internal/config"
	"github.com/digkill/PresetStore/internal/database"
	"github.com/digkill/PresetStore/internal/repository"
	"github.com/digkill/PresetStore/internal/service"
	"github.com/digkill/PresetStore/internal/storage"
	"github.com/digkill/PresetStore/internal/support"
	"github.com/digkill/PresetStore/internal/telegram"
	"github.com/digkill/PresetStore/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logr)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer store.Close()

	var (
		notifier service.Notifier = service.NopNotifier{}
		bot      *telegram.Bot
	)
	if cfg.TelegramToken != "" {
		botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			log.Fatalf("telegram bot: %v", err)
		}
		bot = telegram.NewBot(botAPI, logr, cfg.TelegramAdminID, cfg.Currency)
		queued := service.NewAsyncNotifier(bot, logr, 0)
		go func() {
			if err := queued.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logr.Error("admin notifications stopped", "err", err)
			}
		}()
		notifier = queued
	}

	var uploader service.Uploader
	if cfg.ExportEnabled() {
		s3Uploader, err := storage.NewUploader(storage.Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
			UsePathStyle:  cfg.S3UsePathStyle,
			Prefix:        cfg.S3Prefix,
		})
		if err != nil {
			log.Fatalf("storage uploader: %v", err)
		}
		uploader = s3Uploader
	}

	sessions := service.NewSessionManager(cfg.SessionTTL)
	wallet := service.NewWallet(logr)
	admin := service.AdminAccount{
		Username: cfg.AdminUsername,
		Aliases:  cfg.AdminAliases,
		Password: cfg.AdminPassword,
	}

	identityService := service.NewIdentityService(logr, store, sessions, admin, notifier)
	stockService := service.NewStockService(logr, store, rand.IntN)
	catalogService := service.NewCatalogService(logr, store)
	topUpService := service.NewTopUpService(logr, store, wallet, sessions, notifier, cfg.TopUpAmounts, rand.IntN)
	purchaseService := service.NewPurchaseService(logr, store, wallet, stockService, sessions)
	reportService := service.NewReportService(logr, purchaseService, uploader)

	if err := stockService.EnsureSeeded(ctx); err != nil {
		log.Fatalf("seed stock: %v", err)
	}
	if err := catalogService.EnsureDefaults(ctx); err != nil {
		log.Fatalf("ensure default catalog: %v", err)
	}

	server := api.NewServer(cfg.ListenAddr, logr, api.Services{
		Identity:  identityService,
		TopUps:    topUpService,
		Catalog:   catalogService,
		Stock:     stockService,
		Purchases: purchaseService,
		Reports:   reportService,
		Support:   support.NewClient(cfg, logr),
	})

	if bot != nil {
		bot.Bind(topUpService, stockService)
		go func() {
			if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logr.Error("telegram bot stopped", "err", err)
			}
		}()
	}

	if err := server.Run(ctx); err != nil {
		logr.Error("http server stopped", "err", err)
	}
}

func openStore(ctx context.Context, cfg config.Config, logr *slog.Logger) (repository.Store, error) {
	if cfg.StoreDriver == config.StoreDriverFile {
		logr.Info("using file store", "path", cfg.StoreFile)
		return repository.OpenFileStore(cfg.StoreFile)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	logr.Info("using mysql store")
	return repository.NewMySQLStore(db), nil
}
