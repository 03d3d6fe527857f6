package calendarsync

import (
	"fmt"
	"strings"
	"time"

	"kruzhki-bot/internal/models"

	"google.golang.org/api/calendar/v3"
)

// Поля описания, по которым события находятся при повторной
// синхронизации. ID событий календаря нигде не хранятся: ключ
// зашит в текст описания.
const (
	fieldLessonID   = "ID занятия"
	fieldForecastID = "ID прогноза"
	fieldSubID      = "ID абонемента"
)

const defaultLessonDuration = time.Hour

// lessonEmoji подбирает эмодзи заголовка по отметке посещения.
func lessonEmoji(mark string) string {
	switch mark {
	case models.MarkAttended:
		return "✔️"
	case models.MarkRescheduled:
		return "🔄"
	case models.MarkSickness:
		return "🤒"
	case models.MarkUnexcused:
		return "🚫"
	default:
		return "📅"
	}
}

func forecastEmoji(status string) string {
	switch status {
	case models.PaymentStatusPlanned:
		return "📅"
	case models.PaymentStatusPaid:
		return "✅"
	default:
		return "💰"
	}
}

// lessonEvent собирает желаемое событие занятия: заголовок с эмодзи
// отметки и описание со всеми полями строки журнала.
func lessonEvent(lesson *models.Lesson, circle string, loc *time.Location, tzName string) *calendar.Event {
	start := lessonTime(lesson.Date, lesson.StartTime, loc)
	end := lessonTime(lesson.Date, lesson.EndTime, loc)
	if !end.After(start) {
		end = start.Add(defaultLessonDuration)
	}

	description := strings.Join([]string{
		fmt.Sprintf("%s: %d", fieldLessonID, lesson.ID),
		fmt.Sprintf("%s: %s", fieldSubID, lesson.SubscriptionID),
		fmt.Sprintf("Статус посещения: %s", lesson.Status),
		fmt.Sprintf("Ребенок: %s", lesson.Child),
		fmt.Sprintf("Отметка: %s", lesson.Mark),
		fmt.Sprintf("Дата занятия: %s", lesson.Date.Format(models.DateLayout)),
		fmt.Sprintf("Время начала: %s", lesson.StartTime),
		fmt.Sprintf("Время завершения: %s", lesson.EndTime),
	}, "\n")

	return &calendar.Event{
		Summary:     fmt.Sprintf("%s %s - %s", lessonEmoji(lesson.Mark), lesson.Child, circle),
		Description: description,
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: tzName},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: tzName},
	}
}

// forecastEvent собирает событие оплаты - на весь день, без времени.
func forecastEvent(payment *models.ForecastPayment) *calendar.Event {
	description := strings.Join([]string{
		fmt.Sprintf("%s: %s", fieldForecastID, payment.Key()),
		fmt.Sprintf("Кружок: %s", payment.Circle),
		fmt.Sprintf("Ребенок: %s", payment.Child),
		fmt.Sprintf("Дата оплаты: %s", payment.DueDate.Format(models.DateLayout)),
		fmt.Sprintf("Бюджет: %d", payment.Amount),
		fmt.Sprintf("Статус: %s", payment.Status),
	}, "\n")

	return &calendar.Event{
		Summary:     fmt.Sprintf("%s Оплата - %s - %s", forecastEmoji(payment.Status), payment.Child, payment.Circle),
		Description: description,
		Start:       &calendar.EventDateTime{Date: payment.DueDate.Format("2006-01-02")},
		End:         &calendar.EventDateTime{Date: payment.DueDate.AddDate(0, 0, 1).Format("2006-01-02")},
	}
}

func lessonTime(date time.Time, hhmm string, loc *time.Location) time.Time {
	t, err := time.Parse(models.TimeLayout, hhmm)
	if err != nil {
		return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

// descriptionField достает значение строки "Поле: значение" из описания
// события. Пустая строка - поля нет.
func descriptionField(description, field string) string {
	prefix := field + ": "
	for _, line := range strings.Split(description, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
	}
	return ""
}

// eventsEqual сравнивает желаемое событие с существующим по заголовку,
// описанию и времени. Временные метки сравниваются как моменты:
// календарь возвращает их в своем смещении.
func eventsEqual(want, have *calendar.Event) bool {
	if want.Summary != have.Summary || want.Description != have.Description {
		return false
	}
	return sameEventTime(want.Start, have.Start) && sameEventTime(want.End, have.End)
}

func sameEventTime(want, have *calendar.EventDateTime) bool {
	if want == nil || have == nil {
		return want == have
	}
	if want.Date != "" || have.Date != "" {
		return want.Date == have.Date
	}
	w, errW := time.Parse(time.RFC3339, want.DateTime)
	h, errH := time.Parse(time.RFC3339, have.DateTime)
	if errW != nil || errH != nil {
		return want.DateTime == have.DateTime
	}
	return w.Equal(h)
}

// oldestFirst ставит раньше созданное событие первым: при схлопывании
// дублей выживает самое старое.
func oldestFirst(a, b *calendar.Event) (*calendar.Event, *calendar.Event) {
	ta, errA := time.Parse(time.RFC3339, a.Created)
	tb, errB := time.Parse(time.RFC3339, b.Created)
	if errA != nil || errB != nil {
		return a, b
	}
	if tb.Before(ta) {
		return b, a
	}
	return a, b
}
