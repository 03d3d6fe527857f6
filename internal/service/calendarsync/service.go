package calendarsync

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"kruzhki-bot/internal/gcal"
	"kruzhki-bot/internal/models"
	"kruzhki-bot/internal/repository"
	"kruzhki-bot/internal/service"

	"google.golang.org/api/calendar/v3"
)

type syncService struct {
	subRepo      repository.SubscriptionRepository
	lessonRepo   repository.LessonRepository
	forecastRepo repository.ForecastRepository
	events       gcal.EventsAPI
	loc          *time.Location
	tzName       string
}

func NewCalendarSyncService(
	subRepo repository.SubscriptionRepository,
	lessonRepo repository.LessonRepository,
	forecastRepo repository.ForecastRepository,
	events gcal.EventsAPI,
	timezone string,
) (service.CalendarSyncService, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("неизвестный часовой пояс %q: %w", timezone, err)
	}
	return &syncService{
		subRepo:      subRepo,
		lessonRepo:   lessonRepo,
		forecastRepo: forecastRepo,
		events:       events,
		loc:          loc,
		tzName:       timezone,
	}, nil
}

// SyncLessons приводит календарь к журналу занятий: на каждую строку
// ровно одно событие с актуальным содержимым, события без строки
// удаляются. Повторный запуск без изменений журнала ничего не пишет.
func (s *syncService) SyncLessons() (*models.RunReport, error) {
	report := models.NewRunReport("Синхронизация занятий")
	defer report.Finish()

	lessons, err := s.lessonRepo.GetAll()
	if err != nil {
		return nil, err
	}
	subs, err := s.subRepo.GetAll()
	if err != nil {
		return nil, err
	}
	circleBySub := make(map[string]string, len(subs))
	for _, sub := range subs {
		circleBySub[sub.ID] = sub.Circle
	}

	all, err := s.events.List()
	if err != nil {
		return nil, err
	}
	candidates := s.collapse(report, indexByField(all, fieldLessonID))

	known := make(map[string]bool, len(lessons))
	for _, lesson := range lessons {
		key := strconv.Itoa(lesson.ID)
		known[key] = true

		circle, ok := circleBySub[lesson.SubscriptionID]
		if !ok {
			report.AddWarning("занятие №%d: абонемент %s не найден, событие не тронуто",
				lesson.ID, lesson.SubscriptionID)
			continue
		}

		want := lessonEvent(lesson, circle, s.loc, s.tzName)
		if err := s.upsert(report, want, candidates[key]); err != nil {
			report.AddError("занятие №%d: %v", lesson.ID, err)
		}
	}

	s.deleteOrphans(report, candidates, known)

	log.Printf("📆 Занятия: %s", report)
	return report, nil
}

// SyncForecast - то же для листа "Прогноз": события на весь день,
// ключ - детерминированный ключ строки прогноза.
func (s *syncService) SyncForecast() (*models.RunReport, error) {
	report := models.NewRunReport("Синхронизация прогноза")
	defer report.Finish()

	payments, err := s.forecastRepo.GetAll()
	if err != nil {
		return nil, err
	}
	all, err := s.events.List()
	if err != nil {
		return nil, err
	}
	candidates := s.collapse(report, indexByField(all, fieldForecastID))

	known := make(map[string]bool, len(payments))
	for _, payment := range payments {
		key := payment.Key()
		known[key] = true

		want := forecastEvent(payment)
		if err := s.upsert(report, want, candidates[key]); err != nil {
			report.AddError("оплата %s / %s на %s: %v",
				payment.Child, payment.Circle, payment.DueDate.Format(models.DateLayout), err)
		}
	}

	s.deleteOrphans(report, candidates, known)

	log.Printf("📆 Прогноз: %s", report)
	return report, nil
}

// CleanDuplicates схлопывает дубли событий, не трогая содержимое:
// для каждого ключа выживает самое старое событие.
func (s *syncService) CleanDuplicates() (*models.RunReport, error) {
	report := models.NewRunReport("Чистка дублей календаря")
	defer report.Finish()

	all, err := s.events.List()
	if err != nil {
		return nil, err
	}
	s.collapse(report, indexByField(all, fieldLessonID))
	s.collapse(report, indexByField(all, fieldForecastID))

	log.Printf("🧹 Чистка календаря: удалено дублей %d", report.Duplicates)
	return report, nil
}

// DeleteSubscriptionEvents удаляет все события занятий абонемента.
func (s *syncService) DeleteSubscriptionEvents(subscriptionID string) (int, error) {
	all, err := s.events.List()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, ev := range all {
		if descriptionField(ev.Description, fieldSubID) != subscriptionID {
			continue
		}
		if err := s.events.Delete(ev.Id); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// upsert создает событие, если его нет, обновляет при расхождении и
// ничего не делает при совпадении.
func (s *syncService) upsert(report *models.RunReport, want, have *calendar.Event) error {
	switch {
	case have == nil:
		if _, err := s.events.Insert(want); err != nil {
			return err
		}
		report.Created++
	case !eventsEqual(want, have):
		if err := s.events.Update(have.Id, want); err != nil {
			return err
		}
		report.Updated++
	default:
		report.Unchanged++
	}
	return nil
}

// collapse схлопывает дубли по каждому ключу: остается самое старое
// событие, остальные удаляются. Возвращает выживших.
func (s *syncService) collapse(report *models.RunReport, index map[string][]*calendar.Event) map[string]*calendar.Event {
	candidates := make(map[string]*calendar.Event, len(index))
	for key, group := range index {
		keep := group[0]
		for _, ev := range group[1:] {
			keep, _ = oldestFirst(keep, ev)
		}
		for _, ev := range group {
			if ev == keep {
				continue
			}
			if err := s.events.Delete(ev.Id); err != nil {
				report.AddError("дубль события %s: %v", key, err)
				continue
			}
			report.Duplicates++
		}
		candidates[key] = keep
	}
	return candidates
}

// deleteOrphans удаляет события, ключ которых пропал из таблицы.
func (s *syncService) deleteOrphans(report *models.RunReport, candidates map[string]*calendar.Event, known map[string]bool) {
	var orphans []string
	for key := range candidates {
		if !known[key] {
			orphans = append(orphans, key)
		}
	}
	sort.Strings(orphans)

	for _, key := range orphans {
		if err := s.events.Delete(candidates[key].Id); err != nil {
			report.AddError("удаление события %s: %v", key, err)
			continue
		}
		report.Deleted++
	}
}

// indexByField группирует события по значению поля описания. События
// без поля (чужие записи календаря) игнорируются.
func indexByField(events []*calendar.Event, field string) map[string][]*calendar.Event {
	index := make(map[string][]*calendar.Event)
	for _, ev := range events {
		key := descriptionField(ev.Description, field)
		if key == "" {
			continue
		}
		index[key] = append(index[key], ev)
	}
	return index
}
