package main

import (
	"context"
	"log"

	"kruzhki-bot/internal/bot"
	"kruzhki-bot/internal/gcal"
	"kruzhki-bot/internal/models/config"
	"kruzhki-bot/internal/repository"
	forecast_repo "kruzhki-bot/internal/repository/forecast"
	"kruzhki-bot/internal/repository/handbook"
	"kruzhki-bot/internal/repository/lesson"
	"kruzhki-bot/internal/repository/paid"
	"kruzhki-bot/internal/repository/runlog"
	"kruzhki-bot/internal/repository/schedule_template"
	subscription_repo "kruzhki-bot/internal/repository/subscription"
	"kruzhki-bot/internal/service"
	attendance_service "kruzhki-bot/internal/service/attendance"
	"kruzhki-bot/internal/service/calendarsync"
	forecast_service "kruzhki-bot/internal/service/forecast"
	schedule_service "kruzhki-bot/internal/service/schedule"
	subscription_service "kruzhki-bot/internal/service/subscription"
	"kruzhki-bot/internal/sheets"
	database "kruzhki-bot/pkg"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/fx"
	"google.golang.org/api/calendar/v3"
	sheetsapi "google.golang.org/api/sheets/v4"
)

func main() {
	// Загружаем конфигурацию
	if err := config.Load(); err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	cfg := config.AppConfig
	log.Printf("🚀 Запуск в окружении: %s", cfg.Environment)

	app := fx.New(
		fx.Provide(
			database.NewPostgres,
			database.NewSheetsAPI,
			database.NewCalendarAPI,
			newTableStore,
			subscription_repo.NewSubscriptionRepository,
			lesson.NewLessonRepository,
			schedule_template.NewTemplateRepository,
			forecast_repo.NewForecastRepository,
			paid.NewPaidRepository,
			handbook.NewHandbookRepository,
			runlog.NewRunLogRepository,
			schedule_service.NewScheduleService,
			forecast_service.NewForecastService,
			newCalendarSync,
			attendance_service.NewAttendanceService,
			subscription_service.NewSubscriptionService,
			bot.NewBot,
		),
		fx.Invoke(run),
	)

	app.Run()
	log.Println("👋 Корректное завершение работы")
}

func newTableStore(srv *sheetsapi.Service) sheets.TableStore {
	return sheets.NewStore(srv, config.AppConfig.Google.SpreadsheetID)
}

// newCalendarSync собирает синхронизатор календаря. Если календарь
// выключен, сервис отсутствует и команды /sync и /clean недоступны.
func newCalendarSync(
	subRepo repository.SubscriptionRepository,
	lessonRepo repository.LessonRepository,
	forecastRepo repository.ForecastRepository,
	srv *calendar.Service,
) (service.CalendarSyncService, error) {
	if srv == nil {
		return nil, nil
	}
	cfg := config.AppConfig.Google
	client := gcal.NewClient(srv, cfg.CalendarID)
	return calendarsync.NewCalendarSyncService(subRepo, lessonRepo, forecastRepo, client, cfg.Timezone)
}

func run(lc fx.Lifecycle, telegramBot *bot.Bot, db *sqlx.DB) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := telegramBot.Start(); err != nil {
					log.Printf("❌ Ошибка запуска бота: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			telegramBot.Stop()
			if db != nil {
				return db.Close()
			}
			return nil
		},
	})
}
