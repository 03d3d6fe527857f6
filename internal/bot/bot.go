package bot

import (
	"fmt"
	"log"
	"sync"

	"kruzhki-bot/internal/models"
	"kruzhki-bot/internal/models/config"
	"kruzhki-bot/internal/repository"
	"kruzhki-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

type Bot struct {
	api *tgbotapi.BotAPI

	AttendanceService   service.AttendanceService
	ForecastService     service.ForecastService
	SubscriptionService service.SubscriptionService
	CalendarSyncService service.CalendarSyncService // nil, если календарь выключен

	LessonRepo   repository.LessonRepository
	HandbookRepo repository.HandbookRepository
	RunLogRepo   repository.RunLogRepository

	notifier *Notifier
	engineMu sync.Mutex
}

func NewBot(
	attendanceService service.AttendanceService,
	forecastService service.ForecastService,
	subscriptionService service.SubscriptionService,
	calendarSyncService service.CalendarSyncService,
	lessonRepo repository.LessonRepository,
	handbookRepo repository.HandbookRepository,
	runLogRepo repository.RunLogRepository,
) (*Bot, error) {
	cfg := config.AppConfig.Bot

	if cfg.Token == "" {
		log.Panic("TELEGRAM_BOT_TOKEN не установлен в конфигурации")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	api.Debug = cfg.Debug

	log.Printf("🤖 Бот инициализирован: %s (debug: %v)", api.Self.UserName, cfg.Debug)
	log.Printf("👑 Администраторы: %v", cfg.AdminIDs)

	b := &Bot{
		api:                 api,
		AttendanceService:   attendanceService,
		ForecastService:     forecastService,
		SubscriptionService: subscriptionService,
		CalendarSyncService: calendarSyncService,
		LessonRepo:          lessonRepo,
		HandbookRepo:        handbookRepo,
		RunLogRepo:          runLogRepo,
	}
	b.notifier = NewNotifier(b)
	return b, nil
}

func (b *Bot) Start() error {
	log.Printf("Авторизован как %s", b.api.Self.UserName)

	b.notifier.Start()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates, err := b.api.GetUpdatesChan(u)
	if err != nil {
		return err
	}

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			go b.handleCallback(update.CallbackQuery)
		case update.Message != nil:
			go b.handleMessage(update.Message)
		}
	}

	return nil
}

// Stop останавливает планировщик уведомлений. Длинный опрос Telegram
// завершается вместе с процессом.
func (b *Bot) Stop() {
	b.notifier.Stop()
	log.Println("🛑 Бот остановлен")
}

func (b *Bot) isAdmin(userID int) bool {
	admins := config.AppConfig.Bot.AdminIDs
	if len(admins) == 0 {
		return true
	}
	for _, id := range admins {
		if id == int64(userID) {
			return true
		}
	}
	return false
}

// guard выполняет операцию движка под общим замком. Обновления
// обрабатываются в своих горутинах, а параллельные пересчеты по одной
// таблице не определены: два одновременных пересоздания хвоста читают
// один max(№) и выдают занятиям совпадающие номера.
func (b *Bot) guard(op func() (*models.RunReport, error)) (*models.RunReport, error) {
	b.engineMu.Lock()
	defer b.engineMu.Unlock()
	return op()
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Ошибка отправки сообщения в чат %d: %v", chatID, err)
	}
}
