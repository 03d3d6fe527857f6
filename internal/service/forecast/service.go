package forecast

import (
	"fmt"
	"log"
	"sort"
	"time"

	"kruzhki-bot/internal/models"
	"kruzhki-bot/internal/repository"
	"kruzhki-bot/internal/service"
)

const (
	// Сколько виртуальных абонементов вперед строится по одной паре.
	maxProjections = 12
	// Сколько дней от конца абонемента ищется ближайший день оплаты.
	dueDateSearchDays = 14
	// Предел расчета конца виртуального абонемента.
	virtualEndScanDays = 365
)

type forecastService struct {
	subRepo      repository.SubscriptionRepository
	lessonRepo   repository.LessonRepository
	forecastRepo repository.ForecastRepository
	paidRepo     repository.PaidRepository

	now func() time.Time
}

func NewForecastService(
	subRepo repository.SubscriptionRepository,
	lessonRepo repository.LessonRepository,
	forecastRepo repository.ForecastRepository,
	paidRepo repository.PaidRepository,
) service.ForecastService {
	return &forecastService{
		subRepo:      subRepo,
		lessonRepo:   lessonRepo,
		forecastRepo: forecastRepo,
		paidRepo:     paidRepo,
		now:          time.Now,
	}
}

// RebuildForecast полностью пересобирает лист "Прогноз": по каждой паре
// (ребенок, кружок) от конца последнего абонемента цепочкой строятся
// виртуальные абонементы, и даты их оплат, попавшие в окно "начало
// текущего месяца - конец следующего", становятся строками прогноза.
func (s *forecastService) RebuildForecast() (*models.RunReport, error) {
	report := models.NewRunReport("Пересборка прогноза")
	defer report.Finish()

	subs, err := s.subRepo.GetAll()
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessonRepo.GetAll()
	if err != nil {
		return nil, err
	}
	paid, err := s.paidRepo.GetAll()
	if err != nil {
		return nil, err
	}

	lessonsBySub := make(map[string][]*models.Lesson)
	for _, l := range lessons {
		lessonsBySub[l.SubscriptionID] = append(lessonsBySub[l.SubscriptionID], l)
	}
	alreadyPaid := make(map[string]bool, len(paid))
	for _, p := range paid {
		alreadyPaid[pairDateKey(p.Child, p.Circle, p.Date)] = true
	}

	windowStart, windowEnd := s.window()

	groups := make(map[string][]*models.Subscription)
	var order []string
	for _, sub := range subs {
		key := sub.Child + "|" + sub.Circle
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], sub)
	}
	sort.Strings(order)

	var payments []*models.ForecastPayment
	emitted := make(map[string]bool)
	for _, key := range order {
		rows := s.projectGroup(groups[key], lessonsBySub, windowStart, windowEnd, report)
		for _, p := range rows {
			k := pairDateKey(p.Child, p.Circle, p.DueDate)
			if emitted[k] || alreadyPaid[k] {
				continue
			}
			emitted[k] = true
			payments = append(payments, p)
		}
	}

	sort.Slice(payments, func(i, j int) bool {
		if !payments[i].DueDate.Equal(payments[j].DueDate) {
			return payments[i].DueDate.Before(payments[j].DueDate)
		}
		if payments[i].Child != payments[j].Child {
			return payments[i].Child < payments[j].Child
		}
		return payments[i].Circle < payments[j].Circle
	})

	if err := s.forecastRepo.Replace(payments); err != nil {
		return nil, fmt.Errorf("ошибка записи прогноза: %w", err)
	}
	report.Created = len(payments)

	log.Printf("💰 Прогноз пересобран: %d оплат в окне %s - %s",
		len(payments), windowStart.Format(models.DateLayout), windowEnd.Format(models.DateLayout))
	return report, nil
}

// projectGroup строит цепочку виртуальных абонементов одной пары.
// Якорь - абонемент с самой поздней датой последнего занятия; ритм
// недели берется из его занятий.
func (s *forecastService) projectGroup(
	group []*models.Subscription,
	lessonsBySub map[string][]*models.Lesson,
	windowStart, windowEnd time.Time,
	report *models.RunReport,
) []*models.ForecastPayment {
	anchor := group[0]
	for _, sub := range group[1:] {
		if sub.LastScheduled.After(anchor.LastScheduled) {
			anchor = sub
		}
	}

	end := anchor.LastScheduled
	if end.IsZero() {
		for _, l := range lessonsBySub[anchor.ID] {
			if l.Date.After(end) {
				end = l.Date
			}
		}
	}
	if end.IsZero() {
		report.AddWarning("%s / %s: у абонемента %s нет занятий, пара пропущена",
			anchor.Child, anchor.Circle, anchor.ID)
		return nil
	}
	if anchor.TotalClasses <= 0 {
		report.AddWarning("%s / %s: у абонемента %s нулевое количество занятий, пара пропущена",
			anchor.Child, anchor.Circle, anchor.ID)
		return nil
	}

	cadence := make(map[time.Weekday]bool)
	for _, l := range lessonsBySub[anchor.ID] {
		cadence[l.Date.Weekday()] = true
	}
	if len(cadence) == 0 {
		report.AddWarning("%s / %s: по абонементу %s не определить дни недели, пара пропущена",
			anchor.Child, anchor.Circle, anchor.ID)
		return nil
	}

	var payments []*models.ForecastPayment
	for i := 0; i < maxProjections; i++ {
		due, ok := nextCadenceDay(end, cadence)
		if !ok {
			report.AddWarning("%s / %s: за %d дней после %s нет дня оплаты",
				anchor.Child, anchor.Circle, dueDateSearchDays, end.Format(models.DateLayout))
			break
		}
		if due.After(windowEnd) {
			break
		}
		if !due.Before(windowStart) {
			payments = append(payments, &models.ForecastPayment{
				Circle:  anchor.Circle,
				Child:   anchor.Child,
				DueDate: due,
				Amount:  costAt(group, due, anchor.Cost),
				Status:  models.PaymentStatusPlanned,
			})
		}

		virtualEnd, ok := virtualEndDate(due, anchor.TotalClasses, cadence)
		if !ok {
			report.AddWarning("%s / %s: виртуальный абонемент от %s не уместился в %d дней",
				anchor.Child, anchor.Circle, due.Format(models.DateLayout), virtualEndScanDays)
			break
		}
		end = virtualEnd
	}
	return payments
}

// window возвращает границы прогноза: первый день текущего месяца и
// последний день следующего.
func (s *forecastService) window() (time.Time, time.Time) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 2, -1)
	return start, end
}

// nextCadenceDay ищет первый день ритма после end.
func nextCadenceDay(end time.Time, cadence map[time.Weekday]bool) (time.Time, bool) {
	for i := 1; i <= dueDateSearchDays; i++ {
		day := end.AddDate(0, 0, i)
		if cadence[day.Weekday()] {
			return day, true
		}
	}
	return time.Time{}, false
}

// virtualEndDate считает от дня оплаты total занятий по ритму недели
// (день оплаты - первое занятие) и возвращает дату последнего.
func virtualEndDate(due time.Time, total int, cadence map[time.Weekday]bool) (time.Time, bool) {
	matches := 0
	for i := 0; i <= virtualEndScanDays; i++ {
		day := due.AddDate(0, 0, i)
		if cadence[day.Weekday()] {
			matches++
			if matches == total {
				return day, true
			}
		}
	}
	return time.Time{}, false
}

// costAt возвращает стоимость того абонемента группы, чей период
// покрывает дату, иначе стоимость якоря.
func costAt(group []*models.Subscription, date time.Time, fallback int) int {
	for _, sub := range group {
		if sub.StartDate.IsZero() || sub.LastScheduled.IsZero() {
			continue
		}
		if !date.Before(sub.StartDate) && !date.After(sub.LastScheduled) {
			return sub.Cost
		}
	}
	return fallback
}

// MarkPaid убирает оплату из прогноза и дописывает ее в "Оплачено".
func (s *forecastService) MarkPaid(payment *models.ForecastPayment) (*models.RunReport, error) {
	report := models.NewRunReport("Отметка оплаты")
	defer report.Finish()

	if err := s.forecastRepo.Delete(payment); err != nil {
		return nil, err
	}
	report.Deleted++

	if err := s.paidRepo.Append(&models.PaidPayment{
		Circle: payment.Circle,
		Child:  payment.Child,
		Date:   payment.DueDate,
		Amount: payment.Amount,
		Status: models.PaymentStatusPaid,
	}); err != nil {
		return nil, err
	}
	report.Created++

	log.Printf("✅ Оплата %s / %s на %s перенесена в Оплачено",
		payment.Child, payment.Circle, payment.DueDate.Format(models.DateLayout))
	return report, nil
}

func (s *forecastService) TransferToPaid(child, circle string) (int, error) {
	payments, err := s.forecastRepo.GetAll()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, p := range payments {
		if p.Child != child || p.Circle != circle {
			continue
		}
		if _, err := s.MarkPaid(p); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

func pairDateKey(child, circle string, date time.Time) string {
	return child + "|" + circle + "|" + date.Format(models.DateLayout)
}
