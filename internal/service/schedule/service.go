package schedule

import (
	"fmt"
	"log"
	"time"

	"kruzhki-bot/internal/models"
	"kruzhki-bot/internal/repository"
	"kruzhki-bot/internal/service"
)

// Предохранитель от шаблонов без единого валидного дня недели:
// дальше двух лет от стартовой даты генератор не уходит.
const maxScanDays = 730

type scheduleService struct {
	lessonRepo repository.LessonRepository
}

func NewScheduleService(lessonRepo repository.LessonRepository) service.ScheduleService {
	return &scheduleService{lessonRepo: lessonRepo}
}

// GenerateLessons идет по календарю день за днем начиная с from и на
// каждый день, чей день недели есть в шаблоне, создает занятие. Номера
// занятий продолжают сквозную нумерацию журнала: max(№) + 1 и далее.
func (s *scheduleService) GenerateLessons(sub *models.Subscription, from time.Time, count int, entries []models.ScheduleTemplateEntry) (time.Time, int, error) {
	if count <= 0 {
		return time.Time{}, 0, nil
	}

	// День недели -> слот шаблона. Дубли дня в шаблоне схлопываются,
	// побеждает первый.
	slots := make(map[int]models.ScheduleTemplateEntry, len(entries))
	for _, e := range entries {
		if _, ok := slots[e.DayOfWeek]; !ok {
			slots[e.DayOfWeek] = e
		}
	}
	if len(slots) == 0 {
		return time.Time{}, 0, fmt.Errorf("у абонемента %s нет шаблона расписания", sub.ID)
	}

	maxID, err := s.lessonRepo.MaxID()
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("ошибка чтения номеров занятий: %w", err)
	}

	var lessons []*models.Lesson
	var lastDate time.Time
	cursor := from
	for day := 0; day < maxScanDays && len(lessons) < count; day++ {
		if slot, ok := slots[isoWeekday(cursor)]; ok {
			maxID++
			lessons = append(lessons, &models.Lesson{
				ID:             maxID,
				SubscriptionID: sub.ID,
				Date:           cursor,
				StartTime:      slot.StartTime,
				Status:         models.LessonStatusPlanned,
				Child:          sub.Child,
				EndTime:        slot.EndTime,
			})
			lastDate = cursor
		}
		cursor = cursor.AddDate(0, 0, 1)
	}

	if len(lessons) < count {
		return time.Time{}, 0, fmt.Errorf("абонемент %s: за %d дней от %s набралось только %d занятий из %d",
			sub.ID, maxScanDays, from.Format(models.DateLayout), len(lessons), count)
	}

	if err := s.lessonRepo.Append(lessons); err != nil {
		return time.Time{}, 0, fmt.Errorf("ошибка записи занятий: %w", err)
	}

	log.Printf("📅 Абонемент %s: создано %d занятий, последнее %s",
		sub.ID, len(lessons), lastDate.Format(models.DateLayout))
	return lastDate, len(lessons), nil
}

// isoWeekday переводит time.Weekday в формат шаблона: 1=понедельник,
// 7=воскресенье.
func isoWeekday(t time.Time) int {
	return int(t.Weekday()+6)%7 + 1
}
