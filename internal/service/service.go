package service

import (
	"time"

	"kruzhki-bot/internal/models"
)

// NewSubscription - данные нового абонемента из бота.
type NewSubscription struct {
	Child        string
	Circle       string
	Kind         string
	PaymentKind  string
	Cost         int
	TotalClasses int
	StartDate    time.Time
	Schedule     []models.ScheduleTemplateEntry
}

// ScheduleService - генератор расписания: разворачивает еженедельный
// шаблон в конкретные занятия.
type ScheduleService interface {
	// GenerateLessons дописывает count занятий начиная с from и возвращает
	// дату последнего созданного занятия и число созданных. При count <= 0
	// ничего не пишет.
	GenerateLessons(sub *models.Subscription, from time.Time, count int, entries []models.ScheduleTemplateEntry) (time.Time, int, error)
}

type SubscriptionService interface {
	CreateSubscription(data NewSubscription) (*models.RunReport, error)
	// RenewSubscription создает новый абонемент по образцу существующего:
	// тот же ребенок, кружок, тип, стоимость и шаблон, новая дата начала.
	RenewSubscription(baseID string, startDate time.Time) (*models.RunReport, error)
	DeleteSubscription(id string) (*models.RunReport, error)
}

// AttendanceService - сверка посещаемости: счетчики абонемента и хвост
// расписания всегда приводятся к отметкам.
type AttendanceService interface {
	MarkLesson(lessonID int, mark string) (*models.RunReport, error)
	ReconcileSubscription(id string) (*models.RunReport, error)
	ReconcileAll() (*models.RunReport, error)
}

// ForecastService - прогноз дат и сумм оплат на окно
// "начало текущего месяца - конец следующего".
type ForecastService interface {
	RebuildForecast() (*models.RunReport, error)
	MarkPaid(payment *models.ForecastPayment) (*models.RunReport, error)
	// TransferToPaid переносит все запланированные оплаты пары
	// (ребенок, кружок) в Оплачено. Возвращает число перенесенных строк.
	TransferToPaid(child, circle string) (int, error)
}

// CalendarSyncService - идемпотентная синхронизация журнала с внешним
// календарем.
type CalendarSyncService interface {
	SyncLessons() (*models.RunReport, error)
	SyncForecast() (*models.RunReport, error)
	CleanDuplicates() (*models.RunReport, error)
	DeleteSubscriptionEvents(subscriptionID string) (int, error)
}
