package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"kruzhki-bot/internal/models"
	"kruzhki-bot/internal/service"
)

const newSubscriptionUsage = `Формат:
/new Ребенок; Кружок; Стоимость; Занятий; ДД.ММ.ГГГГ; дни; НН:ММ-НН:ММ [; тип [; оплата]]

дни - дни недели через запятую (1=пн ... 7=вс)
тип - "Фиксированный" (по умолчанию) или "С переносами"
оплата - значение столбца "Тип оплаты", например "Наличные"

Пример:
/new Маша; Шахматы; 4000; 8; 01.09.2025; 1,3; 17:00-18:00`

// handleNewSubscription разбирает /new и создает абонемент: строка в
// Абонементах, шаблон расписания и сразу все занятия.
func (b *Bot) handleNewSubscription(chatID int64, args string) {
	data, err := parseNewSubscription(args)
	if err != nil {
		b.send(chatID, fmt.Sprintf("❌ %v\n\n%s", err, newSubscriptionUsage))
		return
	}
	b.runOperation(chatID, func() (*models.RunReport, error) {
		return b.SubscriptionService.CreateSubscription(data)
	})
}

// handleRenewSubscription: /renew <ID абонемента> <ДД.ММ.ГГГГ>
func (b *Bot) handleRenewSubscription(chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		b.send(chatID, "Формат: /renew <ID абонемента> <ДД.ММ.ГГГГ>")
		return
	}
	startDate, err := time.Parse(models.DateLayout, fields[1])
	if err != nil {
		b.send(chatID, fmt.Sprintf("❌ Некорректная дата %q, ожидается ДД.ММ.ГГГГ", fields[1]))
		return
	}
	b.runOperation(chatID, func() (*models.RunReport, error) {
		return b.SubscriptionService.RenewSubscription(fields[0], startDate)
	})
}

// handleDeleteSubscription: /delsub <ID абонемента>
func (b *Bot) handleDeleteSubscription(chatID int64, args string) {
	id := strings.TrimSpace(args)
	if id == "" {
		b.send(chatID, "Формат: /delsub <ID абонемента>")
		return
	}
	b.runOperation(chatID, func() (*models.RunReport, error) {
		return b.SubscriptionService.DeleteSubscription(id)
	})
}

func parseNewSubscription(args string) (service.NewSubscription, error) {
	var data service.NewSubscription

	parts := strings.Split(args, ";")
	if len(parts) < 7 || len(parts) > 9 {
		return data, fmt.Errorf("ожидается 7-9 полей через точку с запятой, получено %d", len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	cost, err := strconv.Atoi(parts[2])
	if err != nil {
		return data, fmt.Errorf("некорректная стоимость %q", parts[2])
	}
	total, err := strconv.Atoi(parts[3])
	if err != nil {
		return data, fmt.Errorf("некорректное количество занятий %q", parts[3])
	}
	startDate, err := time.Parse(models.DateLayout, parts[4])
	if err != nil {
		return data, fmt.Errorf("некорректная дата начала %q, ожидается ДД.ММ.ГГГГ", parts[4])
	}
	startTime, endTime, err := parseTimeRange(parts[6])
	if err != nil {
		return data, err
	}

	var schedule []models.ScheduleTemplateEntry
	for _, raw := range strings.Split(parts[5], ",") {
		day, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || day < 1 || day > 7 {
			return data, fmt.Errorf("некорректный день недели %q, ожидается 1-7", raw)
		}
		schedule = append(schedule, models.ScheduleTemplateEntry{
			DayOfWeek: day,
			StartTime: startTime,
			EndTime:   endTime,
		})
	}

	kind := models.SubKindFixed
	if len(parts) >= 8 && parts[7] != "" {
		if parts[7] != models.SubKindFixed && parts[7] != models.SubKindTransferable {
			return data, fmt.Errorf("некорректный тип %q", parts[7])
		}
		kind = parts[7]
	}
	var paymentKind string
	if len(parts) == 9 {
		paymentKind = parts[8]
	}

	data = service.NewSubscription{
		Child:        parts[0],
		Circle:       parts[1],
		Kind:         kind,
		PaymentKind:  paymentKind,
		Cost:         cost,
		TotalClasses: total,
		StartDate:    startDate,
		Schedule:     schedule,
	}
	return data, nil
}

func parseTimeRange(raw string) (string, string, error) {
	parts := strings.SplitN(raw, "-", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("некорректное время %q, ожидается НН:ММ-НН:ММ", raw)
	}
	start, end := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if _, err := time.Parse(models.TimeLayout, start); err != nil {
		return "", "", fmt.Errorf("некорректное время начала %q", start)
	}
	if _, err := time.Parse(models.TimeLayout, end); err != nil {
		return "", "", fmt.Errorf("некорректное время завершения %q", end)
	}
	return start, end, nil
}
