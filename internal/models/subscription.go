package models

import "time"

// Статусы абонемента. Статус всегда вычисляется пересчетом,
// руками он не выставляется.
const (
	SubStatusWaiting   = "Ожидание"
	SubStatusActive    = "Активен"
	SubStatusCompleted = "Завершен"
)

// Типы абонемента из Справочника.
const (
	SubKindFixed        = "Фиксированный" // любая отметка списывает занятие
	SubKindTransferable = "С переносами"  // перенос и болезнь не списывают
)

// Subscription - один купленный блок занятий для пары (ребенок, кружок).
// Лист "Абонементы": A №, B ID, C Ребенок, D Кружок, E К-во занятий,
// F Дата начала, G Последнее занятие, H Прошло, I Осталось, J Статус,
// K Стоимость, L Последнее занятие (дубль), M Пропущено, N Тип абонемента,
// O Тип оплаты.
type Subscription struct {
	Seq           int
	ID            string
	Child         string
	Circle        string
	TotalClasses  int
	StartDate     time.Time
	LastScheduled time.Time
	Attended      int
	Remaining     int
	Status        string
	Cost          int
	Missed        int
	Kind          string
	PaymentKind   string
}

// ScheduleTemplateEntry - один еженедельный слот абонемента.
// Лист "Шаблон расписания": A пусто, B ID абонемента, C День недели (1-7),
// D Время начала, E Время завершения.
type ScheduleTemplateEntry struct {
	SubscriptionID string
	DayOfWeek      int // 1=понедельник, 7=воскресенье
	StartTime      string
	EndTime        string
}
