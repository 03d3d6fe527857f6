package subscription

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"kruzhki-bot/internal/models"
	"kruzhki-bot/internal/repository"
	"kruzhki-bot/internal/sheets"
)

// Названия столбцов листа "Абонементы".
const (
	colSeq         = "№"
	colID          = "ID абонемента"
	colChild       = "Ребенок"
	colCircle      = "Кружок"
	colTotal       = "К-во занятий"
	colStartDate   = "Дата начала"
	colLastDate    = "Последнее занятие"
	colAttended    = "Прошло занятий"
	colRemaining   = "Осталось занятий"
	colStatus      = "Статус"
	colCost        = "Стоимость"
	colLastDateDup = "Дата последнего занятия"
	colMissed      = "Пропущено"
	colKind        = "Тип абонемента"
	colPaymentKind = "Тип оплаты"
)

var requiredColumns = []string{
	colID, colChild, colCircle, colTotal, colStartDate,
	colAttended, colRemaining, colStatus, colKind,
}

type subscriptionRepository struct {
	store sheets.TableStore
}

func NewSubscriptionRepository(store sheets.TableStore) repository.SubscriptionRepository {
	return &subscriptionRepository{store: store}
}

func (r *subscriptionRepository) GetAll() ([]*models.Subscription, error) {
	table, err := r.store.ReadTable(repository.SheetSubscriptions)
	if err != nil {
		return nil, err
	}

	schema, err := table.Resolve(requiredColumns...)
	if err != nil {
		return nil, err
	}

	var subs []*models.Subscription
	for _, row := range table.Rows {
		sub, err := parseRow(schema, row)
		if err != nil {
			log.Printf("⚠️ Лист %q, строка %d: %v - строка пропущена", repository.SheetSubscriptions, row.Index, err)
			continue
		}
		subs = append(subs, sub)
	}

	return subs, nil
}

func (r *subscriptionRepository) GetByID(id string) (*models.Subscription, error) {
	subs, err := r.GetAll()
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		if sub.ID == id {
			return sub, nil
		}
	}
	return nil, fmt.Errorf("абонемент %q: %w", id, repository.ErrNotFound)
}

func (r *subscriptionRepository) Create(sub *models.Subscription) error {
	table, err := r.store.ReadTable(repository.SheetSubscriptions)
	if err != nil {
		return err
	}
	schema, err := table.Resolve(requiredColumns...)
	if err != nil {
		return err
	}
	sub.Seq = len(table.Rows) + 1

	return r.store.Append(repository.SheetSubscriptions, [][]interface{}{rowValues(schema, nil, sub)})
}

func (r *subscriptionRepository) UpdateCounters(sub *models.Subscription) error {
	row, schema, err := r.findRow(sub.ID)
	if err != nil {
		return err
	}
	// Существующие ячейки берутся за основу: столбцы, которых движок не
	// знает, переживают обновление нетронутыми.
	base := make([]interface{}, len(row.Cells))
	for i, c := range row.Cells {
		base[i] = c
	}
	return r.store.UpdateRow(repository.SheetSubscriptions, row.Index, rowValues(schema, base, sub))
}

func (r *subscriptionRepository) Delete(id string) error {
	row, _, err := r.findRow(id)
	if err != nil {
		return err
	}
	return r.store.DeleteRows(repository.SheetSubscriptions, []int{row.Index})
}

func (r *subscriptionRepository) findRow(id string) (sheets.Row, *sheets.Schema, error) {
	table, err := r.store.ReadTable(repository.SheetSubscriptions)
	if err != nil {
		return sheets.Row{}, nil, err
	}
	schema, err := table.Resolve(requiredColumns...)
	if err != nil {
		return sheets.Row{}, nil, err
	}
	for _, row := range table.Rows {
		if schema.Value(row, colID) == id {
			return row, schema, nil
		}
	}
	return sheets.Row{}, nil, fmt.Errorf("абонемент %q: %w", id, repository.ErrNotFound)
}

func parseRow(schema *sheets.Schema, row sheets.Row) (*models.Subscription, error) {
	total, err := strconv.Atoi(schema.Value(row, colTotal))
	if err != nil {
		return nil, fmt.Errorf("некорректное количество занятий %q", schema.Value(row, colTotal))
	}

	startDate, err := time.Parse(models.DateLayout, schema.Value(row, colStartDate))
	if err != nil {
		return nil, fmt.Errorf("некорректная дата начала %q", schema.Value(row, colStartDate))
	}

	id := schema.Value(row, colID)
	if id == "" {
		return nil, fmt.Errorf("пустой ID абонемента")
	}

	sub := &models.Subscription{
		ID:           id,
		Child:        schema.Value(row, colChild),
		Circle:       schema.Value(row, colCircle),
		TotalClasses: total,
		StartDate:    startDate,
		Status:       schema.Value(row, colStatus),
		Kind:         schema.Value(row, colKind),
		PaymentKind:  schema.Value(row, colPaymentKind),
	}

	// Числовые счетчики могут быть пустыми у свежесозданного абонемента.
	sub.Seq, _ = strconv.Atoi(schema.Value(row, colSeq))
	sub.Attended, _ = strconv.Atoi(schema.Value(row, colAttended))
	sub.Remaining, _ = strconv.Atoi(schema.Value(row, colRemaining))
	sub.Missed, _ = strconv.Atoi(schema.Value(row, colMissed))
	sub.Cost, _ = strconv.Atoi(schema.Value(row, colCost))
	if last := schema.Value(row, colLastDate); last != "" {
		sub.LastScheduled, _ = time.Parse(models.DateLayout, last)
	}

	return sub, nil
}

// rowValues раскладывает поля абонемента поверх base по фактическим
// позициям столбцов листа.
func rowValues(schema *sheets.Schema, base []interface{}, sub *models.Subscription) []interface{} {
	lastDate := ""
	if !sub.LastScheduled.IsZero() {
		lastDate = sub.LastScheduled.Format(models.DateLayout)
	}
	values := base
	values = schema.Place(values, colSeq, sub.Seq)
	values = schema.Place(values, colID, sub.ID)
	values = schema.Place(values, colChild, sub.Child)
	values = schema.Place(values, colCircle, sub.Circle)
	values = schema.Place(values, colTotal, sub.TotalClasses)
	values = schema.Place(values, colStartDate, sub.StartDate.Format(models.DateLayout))
	values = schema.Place(values, colLastDate, lastDate)
	values = schema.Place(values, colAttended, sub.Attended)
	values = schema.Place(values, colRemaining, sub.Remaining)
	values = schema.Place(values, colStatus, sub.Status)
	values = schema.Place(values, colCost, sub.Cost)
	values = schema.Place(values, colLastDateDup, lastDate)
	values = schema.Place(values, colMissed, sub.Missed)
	values = schema.Place(values, colKind, sub.Kind)
	values = schema.Place(values, colPaymentKind, sub.PaymentKind)
	return values
}
