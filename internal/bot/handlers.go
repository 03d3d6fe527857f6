package bot

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"kruzhki-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

const helpText = `Команды:
/refresh - пересчитать абонементы по отметкам
/sync - синхронизировать занятия с календарем
/forecast - пересобрать прогноз оплат
/clean - убрать дубли событий в календаре
/today - занятия на сегодня с кнопками отметок
/new - создать абонемент (формат подскажет сама команда)
/renew - продлить абонемент с новой даты
/delsub - удалить абонемент целиком
/runs - последние запуски движка`

// Обработка сообщения здесь
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	log.Printf("[%s] %s", message.From.UserName, message.Text)

	chatID := message.Chat.ID

	if !message.IsCommand() {
		return
	}
	if !b.isAdmin(message.From.ID) {
		b.send(chatID, "⛔ Команда доступна только администраторам")
		return
	}

	switch message.Command() {
	case "start":
		b.handleStart(chatID)
	case "refresh":
		b.handleRefresh(chatID)
	case "sync":
		if b.CalendarSyncService == nil {
			b.send(chatID, "📅 Календарь отключен в конфигурации")
			return
		}
		b.runOperation(chatID, b.CalendarSyncService.SyncLessons)
	case "forecast":
		b.handleForecast(chatID)
	case "clean":
		if b.CalendarSyncService == nil {
			b.send(chatID, "📅 Календарь отключен в конфигурации")
			return
		}
		b.runOperation(chatID, b.CalendarSyncService.CleanDuplicates)
	case "today":
		b.handleToday(chatID)
	case "new":
		b.handleNewSubscription(chatID, message.CommandArguments())
	case "renew":
		b.handleRenewSubscription(chatID, message.CommandArguments())
	case "delsub":
		b.handleDeleteSubscription(chatID, message.CommandArguments())
	case "runs":
		b.handleRuns(chatID)
	default:
		b.send(chatID, helpText)
	}
}

// handleRefresh прогоняет полный цикл движка: пересчет абонементов,
// пересборка прогноза и приведение календаря.
func (b *Bot) handleRefresh(chatID int64) {
	b.runOperation(chatID, b.AttendanceService.ReconcileAll)
	b.runOperation(chatID, b.ForecastService.RebuildForecast)
	if b.CalendarSyncService != nil {
		b.runOperation(chatID, b.CalendarSyncService.SyncLessons)
		b.runOperation(chatID, b.CalendarSyncService.SyncForecast)
		b.runOperation(chatID, b.CalendarSyncService.CleanDuplicates)
	}
}

// handleStart привязывает чат к ежедневным уведомлениям.
func (b *Bot) handleStart(chatID int64) {
	if err := b.HandbookRepo.SetNotificationChatID(chatID); err != nil {
		log.Printf("Ошибка привязки чата %d: %v", chatID, err)
		b.send(chatID, "❌ Не удалось привязать чат к уведомлениям")
		return
	}
	b.send(chatID, "👋 Чат привязан к ежедневным уведомлениям.\n\n"+helpText)
}

// handleForecast пересобирает прогноз и, если календарь включен, сразу
// синхронизирует его события.
func (b *Bot) handleForecast(chatID int64) {
	b.runOperation(chatID, b.ForecastService.RebuildForecast)
	if b.CalendarSyncService != nil {
		b.runOperation(chatID, b.CalendarSyncService.SyncForecast)
	}
}

// handleToday показывает занятия на сегодня, к каждому - кнопки отметок.
func (b *Bot) handleToday(chatID int64) {
	today := time.Now().Format(models.DateLayout)
	lessons, err := b.LessonRepo.GetByDate(today)
	if err != nil {
		b.send(chatID, fmt.Sprintf("❌ Ошибка чтения журнала: %v", err))
		return
	}
	if len(lessons) == 0 {
		b.send(chatID, fmt.Sprintf("📅 На %s занятий нет", today))
		return
	}

	for _, lesson := range lessons {
		text := fmt.Sprintf("📅 %s %s\n%s (%s)", today, lesson.StartTime, lesson.Child, lesson.SubscriptionID)
		if lesson.Marked() {
			text += fmt.Sprintf("\nОтметка: %s", lesson.Mark)
		}
		msg := tgbotapi.NewMessage(chatID, text)
		if !lesson.Marked() {
			msg.ReplyMarkup = markKeyboard(lesson.ID)
		}
		if _, err := b.api.Send(msg); err != nil {
			log.Printf("Ошибка отправки занятия №%d: %v", lesson.ID, err)
		}
	}
}

func (b *Bot) handleRuns(chatID int64) {
	entries, err := b.RunLogRepo.LastRuns(10)
	if err != nil {
		b.send(chatID, fmt.Sprintf("❌ Ошибка чтения журнала запусков: %v", err))
		return
	}
	if len(entries) == 0 {
		b.send(chatID, "📭 Журнал запусков пуст (или база не настроена)")
		return
	}

	var sb strings.Builder
	sb.WriteString("🗂 Последние запуски:\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "\n%s %s: +%d ~%d -%d", e.StartedAt.Format("02.01 15:04"), e.Operation, e.Created, e.Updated, e.Deleted)
		if e.ErrorCount > 0 {
			fmt.Fprintf(&sb, " ❌%d", e.ErrorCount)
		}
	}
	b.send(chatID, sb.String())
}

// runOperation выполняет операцию движка под замком, шлет сводку в чат
// и пишет запуск в журнал.
func (b *Bot) runOperation(chatID int64, op func() (*models.RunReport, error)) {
	report, err := b.guard(op)
	if err != nil {
		b.send(chatID, fmt.Sprintf("❌ Ошибка: %v", err))
		return
	}
	if err := b.RunLogRepo.Record(report); err != nil {
		log.Printf("Ошибка записи журнала запусков: %v", err)
	}
	b.send(chatID, report.String())
}

// handleCallback обрабатывает нажатие кнопки отметки:
// данные вида "mark|<id занятия>|<отметка>".
func (b *Bot) handleCallback(query *tgbotapi.CallbackQuery) {
	if !b.isAdmin(query.From.ID) {
		b.answerCallback(query.ID, "⛔ Только для администраторов")
		return
	}

	parts := strings.SplitN(query.Data, "|", 3)
	if len(parts) != 3 || parts[0] != "mark" {
		b.answerCallback(query.ID, "")
		return
	}
	lessonID, err := strconv.Atoi(parts[1])
	if err != nil {
		b.answerCallback(query.ID, "")
		return
	}
	mark := parts[2]

	report, err := b.guard(func() (*models.RunReport, error) {
		return b.AttendanceService.MarkLesson(lessonID, mark)
	})
	if err != nil {
		b.answerCallback(query.ID, fmt.Sprintf("❌ %v", err))
		return
	}
	if err := b.RunLogRepo.Record(report); err != nil {
		log.Printf("Ошибка записи журнала запусков: %v", err)
	}

	b.answerCallback(query.ID, fmt.Sprintf("✏️ Занятие №%d: %s", lessonID, mark))

	// Отметка меняет остаток и хвост - прогноз и календарь доводятся следом.
	go b.postMarkPipeline()

	if query.Message != nil {
		edit := tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID,
			query.Message.Text+fmt.Sprintf("\nОтметка: %s", mark))
		if _, err := b.api.Send(edit); err != nil {
			log.Printf("Ошибка обновления сообщения: %v", err)
		}
	}
}

// postMarkPipeline без сообщений в чат приводит прогноз и календарь
// к новой отметке. Ошибки уходят в лог и журнал, не пользователю.
func (b *Bot) postMarkPipeline() {
	ops := []func() (*models.RunReport, error){b.ForecastService.RebuildForecast}
	if b.CalendarSyncService != nil {
		ops = append(ops,
			b.CalendarSyncService.SyncLessons,
			b.CalendarSyncService.SyncForecast,
		)
	}
	for _, op := range ops {
		report, err := b.guard(op)
		if err != nil {
			log.Printf("❌ Ошибка после отметки: %v", err)
			continue
		}
		if err := b.RunLogRepo.Record(report); err != nil {
			log.Printf("Ошибка записи журнала запусков: %v", err)
		}
	}
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.AnswerCallbackQuery(tgbotapi.NewCallback(id, text)); err != nil {
		log.Printf("Ошибка ответа на callback: %v", err)
	}
}

func markKeyboard(lessonID int) tgbotapi.InlineKeyboardMarkup {
	data := func(mark string) string {
		return fmt.Sprintf("mark|%d|%s", lessonID, mark)
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✔️ Посещение", data(models.MarkAttended)),
			tgbotapi.NewInlineKeyboardButtonData("🔄 Перенос", data(models.MarkRescheduled)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🤒 Болезнь", data(models.MarkSickness)),
			tgbotapi.NewInlineKeyboardButtonData("🚫 Пропуск", data(models.MarkUnexcused)),
		),
	)
}
