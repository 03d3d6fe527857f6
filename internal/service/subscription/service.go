package subscription

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"kruzhki-bot/internal/models"
	"kruzhki-bot/internal/repository"
	"kruzhki-bot/internal/service"
)

// Русские сокращения месяцев для идентификаторов абонементов.
var ruMonths = [...]string{"янв", "фев", "мар", "апр", "май", "июн", "июл", "авг", "сен", "окт", "ноя", "дек"}

type subscriptionService struct {
	subRepo      repository.SubscriptionRepository
	lessonRepo   repository.LessonRepository
	templateRepo repository.TemplateRepository
	scheduler    service.ScheduleService
	forecast     service.ForecastService
	calendarSync service.CalendarSyncService // nil, если календарь выключен
}

func NewSubscriptionService(
	subRepo repository.SubscriptionRepository,
	lessonRepo repository.LessonRepository,
	templateRepo repository.TemplateRepository,
	scheduler service.ScheduleService,
	forecast service.ForecastService,
	calendarSync service.CalendarSyncService,
) service.SubscriptionService {
	return &subscriptionService{
		subRepo:      subRepo,
		lessonRepo:   lessonRepo,
		templateRepo: templateRepo,
		scheduler:    scheduler,
		forecast:     forecast,
		calendarSync: calendarSync,
	}
}

func (s *subscriptionService) CreateSubscription(data service.NewSubscription) (*models.RunReport, error) {
	report := models.NewRunReport("Создание абонемента")
	defer report.Finish()

	if err := validate(data); err != nil {
		return nil, err
	}

	id, err := s.buildID(data)
	if err != nil {
		return nil, err
	}

	sub := &models.Subscription{
		ID:           id,
		Child:        data.Child,
		Circle:       data.Circle,
		TotalClasses: data.TotalClasses,
		StartDate:    data.StartDate,
		Remaining:    data.TotalClasses,
		Status:       models.SubStatusWaiting,
		Cost:         data.Cost,
		Kind:         data.Kind,
		PaymentKind:  data.PaymentKind,
	}
	if err := s.subRepo.Create(sub); err != nil {
		return nil, fmt.Errorf("ошибка записи абонемента: %w", err)
	}
	report.Created++

	entries := make([]models.ScheduleTemplateEntry, len(data.Schedule))
	for i, e := range data.Schedule {
		e.SubscriptionID = id
		entries[i] = e
	}
	if err := s.templateRepo.Create(entries); err != nil {
		return nil, fmt.Errorf("ошибка записи шаблона: %w", err)
	}

	lastDate, created, err := s.scheduler.GenerateLessons(sub, data.StartDate, data.TotalClasses, entries)
	if err != nil {
		return nil, err
	}
	report.Created += created

	sub.LastScheduled = lastDate
	if err := s.subRepo.UpdateCounters(sub); err != nil {
		return nil, err
	}

	log.Printf("✅ Создан абонемент %s: %d занятий с %s",
		id, data.TotalClasses, data.StartDate.Format(models.DateLayout))
	return report, nil
}

// RenewSubscription создает продолжение существующего абонемента: те же
// ребенок, кружок, тип и шаблон, новая дата начала. Запланированные
// оплаты пары при этом переезжают в "Оплачено" - продление и есть факт
// оплаты.
func (s *subscriptionService) RenewSubscription(baseID string, startDate time.Time) (*models.RunReport, error) {
	base, err := s.subRepo.GetByID(baseID)
	if err != nil {
		return nil, err
	}
	entries, err := s.templateRepo.GetBySubscription(baseID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("у абонемента %s нет шаблона расписания, продление невозможно", baseID)
	}

	moved, err := s.forecast.TransferToPaid(base.Child, base.Circle)
	if err != nil {
		return nil, err
	}

	report, err := s.CreateSubscription(service.NewSubscription{
		Child:        base.Child,
		Circle:       base.Circle,
		Kind:         base.Kind,
		PaymentKind:  base.PaymentKind,
		Cost:         base.Cost,
		TotalClasses: base.TotalClasses,
		StartDate:    startDate,
		Schedule:     entries,
	})
	if err != nil {
		return nil, err
	}
	if moved > 0 {
		report.AddWarning("в Оплачено перенесено строк прогноза: %d", moved)
	}
	return report, nil
}

// DeleteSubscription удаляет абонемент целиком: его события календаря,
// занятия, шаблон и саму строку абонемента.
func (s *subscriptionService) DeleteSubscription(id string) (*models.RunReport, error) {
	report := models.NewRunReport("Удаление абонемента")
	defer report.Finish()

	if _, err := s.subRepo.GetByID(id); err != nil {
		return nil, err
	}

	if s.calendarSync != nil {
		deleted, err := s.calendarSync.DeleteSubscriptionEvents(id)
		if err != nil {
			report.AddError("события календаря: %v", err)
		} else {
			report.Deleted += deleted
		}
	}

	lessons, err := s.lessonRepo.DeleteBySubscription(id)
	if err != nil {
		return nil, err
	}
	report.Deleted += lessons

	templates, err := s.templateRepo.DeleteBySubscription(id)
	if err != nil {
		return nil, err
	}
	report.Deleted += templates

	if err := s.subRepo.Delete(id); err != nil {
		return nil, err
	}
	report.Deleted++

	log.Printf("🗑 Удален абонемент %s: занятий %d, строк шаблона %d", id, lessons, templates)
	return report, nil
}

func validate(data service.NewSubscription) error {
	switch {
	case strings.TrimSpace(data.Child) == "":
		return fmt.Errorf("не указан ребенок")
	case strings.TrimSpace(data.Circle) == "":
		return fmt.Errorf("не указан кружок")
	case data.TotalClasses <= 0:
		return fmt.Errorf("количество занятий должно быть больше нуля")
	case data.StartDate.IsZero():
		return fmt.Errorf("не указана дата начала")
	case len(data.Schedule) == 0:
		return fmt.Errorf("не указано расписание")
	}
	return nil
}

// buildID собирает человекочитаемый идентификатор вида
// "15сен.МашаШахматы-25" и при совпадении добавляет порядковый суффикс.
func (s *subscriptionService) buildID(data service.NewSubscription) (string, error) {
	base := fmt.Sprintf("%d%s.%s%s-%02d",
		data.StartDate.Day(),
		ruMonths[data.StartDate.Month()-1],
		sanitize(data.Child),
		sanitize(data.Circle),
		data.StartDate.Year()%100,
	)

	id := base
	for n := 2; ; n++ {
		_, err := s.subRepo.GetByID(id)
		if errors.Is(err, repository.ErrNotFound) {
			return id, nil
		}
		// Сбой чтения не означает, что идентификатор свободен.
		if err != nil {
			return "", fmt.Errorf("ошибка проверки идентификатора %s: %w", id, err)
		}
		id = fmt.Sprintf("%s.%d", base, n)
		if n > 99 {
			return "", fmt.Errorf("не удалось подобрать свободный идентификатор для %s", base)
		}
	}
}

func sanitize(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "")
}
