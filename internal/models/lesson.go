package models

import "time"

// Форматы дат и времени во всех листах.
const (
	DateLayout = "02.01.2006"
	TimeLayout = "15:04"
)

// Статусы посещения занятия (столбец E "Календаря занятий").
const (
	LessonStatusPlanned   = "Запланировано"
	LessonStatusCompleted = "Завершен"
	LessonStatusMissed    = "Пропуск"
)

// Отметки посещения (столбец G). Пустая отметка - занятие еще не прошло.
const (
	MarkAttended    = "Посещение"
	MarkRescheduled = "Перенос"
	MarkSickness    = "Отмена (болезнь)"
	MarkUnexcused   = "Пропуск (по вине)"
)

// Lesson - одно конкретное занятие в календаре.
// Лист "Календарь занятий": A №, B ID абонемента, C Дата занятия,
// D Время начала, E Статус посещения, F Ребенок, G Отметка,
// H Время завершения.
type Lesson struct {
	ID             int
	SubscriptionID string
	Date           time.Time
	StartTime      string
	Status         string
	Child          string
	Mark           string
	EndTime        string
}

// Marked сообщает, прошло ли занятие (стоит любая отметка).
func (l *Lesson) Marked() bool {
	return l.Mark != ""
}

// Burns сообщает, списывает ли занятие одно занятие с абонемента.
// Посещение и пропуск по вине списывают всегда; для фиксированного
// абонемента списывает любая отметка. Будущие занятия без отметки
// не списывают никогда.
func (l *Lesson) Burns(subKind string) bool {
	switch l.Mark {
	case "":
		return false
	case MarkAttended, MarkUnexcused:
		return true
	default:
		return subKind == SubKindFixed
	}
}

// StatusForMark возвращает статус посещения, соответствующий отметке.
func StatusForMark(mark string) string {
	switch mark {
	case "":
		return LessonStatusPlanned
	case MarkAttended:
		return LessonStatusCompleted
	default:
		return LessonStatusMissed
	}
}
