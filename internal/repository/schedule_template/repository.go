package schedule_template

import (
	"fmt"
	"log"
	"strconv"

	"kruzhki-bot/internal/models"
	"kruzhki-bot/internal/repository"
	"kruzhki-bot/internal/sheets"
)

// Названия столбцов листа "Шаблон расписания". Первый столбец листа
// пустой, адресуемся по остальным.
const (
	colSubID     = "ID абонемента"
	colDayOfWeek = "День недели"
	colStartTime = "Время начала"
	colEndTime   = "Время завершения"
)

type templateRepository struct {
	store sheets.TableStore
}

func NewTemplateRepository(store sheets.TableStore) repository.TemplateRepository {
	return &templateRepository{store: store}
}

func (r *templateRepository) GetBySubscription(subscriptionID string) ([]models.ScheduleTemplateEntry, error) {
	table, err := r.store.ReadTable(repository.SheetTemplates)
	if err != nil {
		return nil, err
	}
	schema, err := table.Resolve(colSubID, colDayOfWeek, colStartTime, colEndTime)
	if err != nil {
		return nil, err
	}

	var entries []models.ScheduleTemplateEntry
	for _, row := range table.Rows {
		if schema.Value(row, colSubID) != subscriptionID {
			continue
		}

		day, err := strconv.Atoi(schema.Value(row, colDayOfWeek))
		if err != nil || day < 1 || day > 7 {
			log.Printf("⚠️ Лист %q, строка %d: некорректный день недели %q - строка пропущена",
				repository.SheetTemplates, row.Index, schema.Value(row, colDayOfWeek))
			continue
		}

		entries = append(entries, models.ScheduleTemplateEntry{
			SubscriptionID: subscriptionID,
			DayOfWeek:      day,
			StartTime:      schema.Value(row, colStartTime),
			EndTime:        schema.Value(row, colEndTime),
		})
	}

	return entries, nil
}

func (r *templateRepository) Create(entries []models.ScheduleTemplateEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("пустой шаблон расписания")
	}
	table, err := r.store.ReadTable(repository.SheetTemplates)
	if err != nil {
		return err
	}
	schema, err := table.Resolve(colSubID, colDayOfWeek, colStartTime, colEndTime)
	if err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		var values []interface{}
		values = schema.Place(values, colSubID, e.SubscriptionID)
		values = schema.Place(values, colDayOfWeek, e.DayOfWeek)
		values = schema.Place(values, colStartTime, e.StartTime)
		values = schema.Place(values, colEndTime, e.EndTime)
		rows = append(rows, values)
	}
	return r.store.Append(repository.SheetTemplates, rows)
}

func (r *templateRepository) DeleteBySubscription(subscriptionID string) (int, error) {
	table, err := r.store.ReadTable(repository.SheetTemplates)
	if err != nil {
		return 0, err
	}
	schema, err := table.Resolve(colSubID)
	if err != nil {
		return 0, err
	}

	var rowIndexes []int
	for _, row := range table.Rows {
		if schema.Value(row, colSubID) == subscriptionID {
			rowIndexes = append(rowIndexes, row.Index)
		}
	}

	if err := r.store.DeleteRows(repository.SheetTemplates, rowIndexes); err != nil {
		return 0, err
	}
	return len(rowIndexes), nil
}
