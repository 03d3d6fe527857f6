package repository

import (
	"errors"

	"kruzhki-bot/internal/models"
)

// ErrNotFound возвращается, когда записи с запрошенным идентификатором
// нет в таблице. Отличает "свободно" от ошибки чтения самой таблицы.
var ErrNotFound = errors.New("запись не найдена")

// Названия листов таблицы.
const (
	SheetSubscriptions = "Абонементы"
	SheetTemplates     = "Шаблон расписания"
	SheetLessons       = "Календарь занятий"
	SheetForecast      = "Прогноз"
	SheetPaid          = "Оплачено"
	SheetHandbook      = "Справочник"
)

type SubscriptionRepository interface {
	GetAll() ([]*models.Subscription, error)
	GetByID(id string) (*models.Subscription, error)
	Create(sub *models.Subscription) error
	// UpdateCounters записывает счетчики и статус абонемента одним
	// обновлением строки.
	UpdateCounters(sub *models.Subscription) error
	Delete(id string) error
}

type LessonRepository interface {
	GetAll() ([]*models.Lesson, error)
	GetByID(id int) (*models.Lesson, error)
	GetBySubscription(subscriptionID string) ([]*models.Lesson, error)
	GetByDate(date string) ([]*models.Lesson, error)
	// MaxID возвращает максимальный номер занятия по всему журналу.
	MaxID() (int, error)
	Append(lessons []*models.Lesson) error
	UpdateMark(lessonID int, mark, status string) error
	// DeleteUnmarked удаляет будущие (неотмеченные) занятия абонемента.
	// Занятия с отметкой не удаляются никогда.
	DeleteUnmarked(subscriptionID string) (int, error)
	DeleteBySubscription(subscriptionID string) (int, error)
}

type TemplateRepository interface {
	GetBySubscription(subscriptionID string) ([]models.ScheduleTemplateEntry, error)
	Create(entries []models.ScheduleTemplateEntry) error
	DeleteBySubscription(subscriptionID string) (int, error)
}

type ForecastRepository interface {
	GetAll() ([]*models.ForecastPayment, error)
	// Replace полностью пересобирает лист: очистка + запись.
	Replace(payments []*models.ForecastPayment) error
	Delete(payment *models.ForecastPayment) error
}

type PaidRepository interface {
	GetAll() ([]*models.PaidPayment, error)
	Append(payment *models.PaidPayment) error
}

// HandbookRepository - настройки из Справочника. CRUD самого справочника
// живет в боте-коллабораторе и сюда не входит.
type HandbookRepository interface {
	NotificationTime() (string, error)
	NotificationChatID() (int64, error)
	SetNotificationChatID(chatID int64) error
}

// RunLogRepository - журнал запусков движка в Postgres.
type RunLogRepository interface {
	Record(report *models.RunReport) error
	LastRuns(limit int) ([]models.RunEntry, error)
}
