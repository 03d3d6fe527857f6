package attendance

import (
	"fmt"
	"log"
	"time"

	"kruzhki-bot/internal/models"
	"kruzhki-bot/internal/repository"
	"kruzhki-bot/internal/service"
)

type attendanceService struct {
	subRepo      repository.SubscriptionRepository
	lessonRepo   repository.LessonRepository
	templateRepo repository.TemplateRepository
	scheduler    service.ScheduleService
}

func NewAttendanceService(
	subRepo repository.SubscriptionRepository,
	lessonRepo repository.LessonRepository,
	templateRepo repository.TemplateRepository,
	scheduler service.ScheduleService,
) service.AttendanceService {
	return &attendanceService{
		subRepo:      subRepo,
		lessonRepo:   lessonRepo,
		templateRepo: templateRepo,
		scheduler:    scheduler,
	}
}

// MarkLesson проставляет отметку занятию и сразу пересчитывает его
// абонемент: счетчики и хвост расписания не должны расходиться с
// отметками ни на один запуск.
func (s *attendanceService) MarkLesson(lessonID int, mark string) (*models.RunReport, error) {
	lesson, err := s.lessonRepo.GetByID(lessonID)
	if err != nil {
		return nil, err
	}

	if err := s.lessonRepo.UpdateMark(lessonID, mark, models.StatusForMark(mark)); err != nil {
		return nil, fmt.Errorf("ошибка отметки занятия №%d: %w", lessonID, err)
	}
	log.Printf("✏️ Занятие №%d (%s): отметка %q", lessonID, lesson.SubscriptionID, mark)

	return s.ReconcileSubscription(lesson.SubscriptionID)
}

func (s *attendanceService) ReconcileSubscription(id string) (*models.RunReport, error) {
	report := models.NewRunReport("Пересчет абонемента")
	defer report.Finish()

	sub, err := s.subRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.reconcile(report, sub); err != nil {
		report.AddError("абонемент %s: %v", sub.ID, err)
	}
	return report, nil
}

// ReconcileAll пересчитывает все абонементы. Ошибка одного абонемента
// попадает в отчет и не прерывает остальные.
func (s *attendanceService) ReconcileAll() (*models.RunReport, error) {
	report := models.NewRunReport("Пересчет абонементов")
	defer report.Finish()

	subs, err := s.subRepo.GetAll()
	if err != nil {
		return nil, err
	}

	for _, sub := range subs {
		if err := s.reconcile(report, sub); err != nil {
			report.AddError("абонемент %s: %v", sub.ID, err)
		}
	}

	log.Printf("🔁 Пересчитано абонементов: %d, ошибок: %d", report.Updated, len(report.Errors))
	return report, nil
}

// reconcile приводит один абонемент к его отметкам: пересчитывает
// счетчики, выводит статус и перестраивает хвост будущих занятий.
// Повторный запуск без новых отметок ничего не меняет.
func (s *attendanceService) reconcile(report *models.RunReport, sub *models.Subscription) error {
	lessons, err := s.lessonRepo.GetBySubscription(sub.ID)
	if err != nil {
		return err
	}

	var attended, missed, used, unmarked int
	var lastMarked time.Time
	for _, l := range lessons {
		if !l.Marked() {
			unmarked++
			continue
		}
		if l.Mark == models.MarkAttended {
			attended++
		} else {
			missed++
		}
		if l.Burns(sub.Kind) {
			used++
		}
		if l.Date.After(lastMarked) {
			lastMarked = l.Date
		}
	}

	remaining := sub.TotalClasses - used
	if remaining < 0 {
		remaining = 0
	}

	sub.Attended = attended
	sub.Missed = missed
	sub.Remaining = remaining
	switch {
	case remaining == 0:
		sub.Status = models.SubStatusCompleted
	case attended > 0 && (sub.Status == models.SubStatusWaiting || sub.Status == ""):
		sub.Status = models.SubStatusActive
	}

	// Хвост перестраивается только когда его длина неверна: иначе
	// будущие занятия без нужды меняли бы номера при каждом пересчете.
	if unmarked != remaining {
		deleted, err := s.lessonRepo.DeleteUnmarked(sub.ID)
		if err != nil {
			return err
		}
		report.Deleted += deleted

		if remaining > 0 {
			entries, err := s.templateRepo.GetBySubscription(sub.ID)
			if err != nil {
				return err
			}
			from := sub.StartDate
			if !lastMarked.IsZero() {
				from = lastMarked.AddDate(0, 0, 1)
			}
			lastDate, created, err := s.scheduler.GenerateLessons(sub, from, remaining, entries)
			if err != nil {
				return err
			}
			report.Created += created
			sub.LastScheduled = lastDate
		}
	} else if last := maxLessonDate(lessons); !last.IsZero() {
		sub.LastScheduled = last
	}

	if err := s.subRepo.UpdateCounters(sub); err != nil {
		return err
	}
	report.Updated++
	return nil
}

func maxLessonDate(lessons []*models.Lesson) time.Time {
	var max time.Time
	for _, l := range lessons {
		if l.Date.After(max) {
			max = l.Date
		}
	}
	return max
}
