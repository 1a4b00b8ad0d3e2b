package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/pzhukov/medminder/internal/bot"
	"github.com/pzhukov/medminder/internal/bot/state"
	"github.com/pzhukov/medminder/internal/config"
	"github.com/pzhukov/medminder/internal/domain"
	"github.com/pzhukov/medminder/internal/logger"
	"github.com/pzhukov/medminder/internal/services"
	"github.com/pzhukov/medminder/internal/storage"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting MedMinder...")

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.InitWithConfig(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	store, err := storage.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()
	log.Println("Store opened")

	// Telegram is both the front-end and the notification channel; without a
	// token the core still runs and reminders degrade to logged no-ops.
	var api *tgbotapi.BotAPI
	var notifier domain.Notifier = services.LogNotifier{}
	var telegramNotifier *bot.Notifier
	if cfg.TelegramToken != "" {
		api, err = tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			log.Fatalf("Failed to create bot: %v", err)
		}
		telegramNotifier = bot.NewNotifier(api, cfg.TelegramChatID)
		notifier = telegramNotifier
		log.Printf("Bot authorized on account %s", api.Self.UserName)
	} else {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, reminders will only be logged")
	}

	// Initialize services
	inventoryService, err := services.NewInventoryService(store)
	if err != nil {
		log.Fatalf("Failed to load inventory: %v", err)
	}
	scheduleService, err := services.NewScheduleService(store)
	if err != nil {
		log.Fatalf("Failed to load schedules: %v", err)
	}
	activityService, err := services.NewActivityService(store, cfg.Reminders.MaxActivities)
	if err != nil {
		log.Fatalf("Failed to load activity ledger: %v", err)
	}
	contactService, err := services.NewContactService(store)
	if err != nil {
		log.Fatalf("Failed to load contacts: %v", err)
	}
	aiService, err := services.NewAIService(context.Background(), cfg.GeminiAPIKey, cfg.OpenAIAPIKey)
	if err != nil {
		log.Fatalf("Failed to create AI service: %v", err)
	}
	tipsService, err := services.NewTipsService(store, aiService)
	if err != nil {
		log.Fatalf("Failed to load health tips: %v", err)
	}

	reminderService := services.NewReminderService(notifier)
	coordinator := services.NewCoordinator(
		inventoryService,
		scheduleService,
		activityService,
		reminderService,
		services.LogCalendar{},
		cfg.Reminders.LowStockThreshold,
	)
	log.Println("Services initialized")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Re-register reminders for persisted schedules; past instants stay
	// unscheduled.
	if err := coordinator.Restore(ctx); err != nil {
		log.Printf("Failed to restore reminders: %v", err)
	}

	if api == nil {
		log.Println("Running headless. Press Ctrl+C to stop.")
		<-ctx.Done()
		return
	}

	var states state.Tracker
	if cfg.Redis.Host != "" {
		redisStates, err := state.NewRedisManager(cfg.Redis.Host, cfg.Redis.Port)
		if err != nil {
			log.Printf("Redis unavailable, falling back to in-memory states: %v", err)
			states = state.NewManager()
		} else {
			states = redisStates
		}
	} else {
		states = state.NewManager()
	}

	telegramBot := bot.NewBot(api, telegramNotifier, coordinator,
		inventoryService, scheduleService, activityService,
		contactService, tipsService, states)

	log.Println("Bot is running. Press Ctrl+C to stop.")
	if err := telegramBot.Start(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Bot stopped with error: %v", err)
	}
}
