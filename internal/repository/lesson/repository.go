package lesson

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"kruzhki-bot/internal/models"
	"kruzhki-bot/internal/repository"
	"kruzhki-bot/internal/sheets"
)

// Названия столбцов листа "Календарь занятий".
const (
	colID        = "№"
	colSubID     = "ID абонемента"
	colDate      = "Дата занятия"
	colStartTime = "Время начала"
	colStatus    = "Статус посещения"
	colChild     = "Ребенок"
	colMark      = "Отметка"
	colEndTime   = "Время завершения"
)

var requiredColumns = []string{colID, colSubID, colDate, colStartTime, colStatus, colChild, colMark, colEndTime}

type lessonRepository struct {
	store sheets.TableStore
}

func NewLessonRepository(store sheets.TableStore) repository.LessonRepository {
	return &lessonRepository{store: store}
}

func (r *lessonRepository) GetAll() ([]*models.Lesson, error) {
	lessons, _, err := r.readAll()
	return lessons, err
}

func (r *lessonRepository) GetByID(id int) (*models.Lesson, error) {
	lessons, _, err := r.readAll()
	if err != nil {
		return nil, err
	}
	for _, l := range lessons {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, fmt.Errorf("занятие №%d: %w", id, repository.ErrNotFound)
}

func (r *lessonRepository) GetBySubscription(subscriptionID string) ([]*models.Lesson, error) {
	lessons, _, err := r.readAll()
	if err != nil {
		return nil, err
	}
	var result []*models.Lesson
	for _, l := range lessons {
		if l.SubscriptionID == subscriptionID {
			result = append(result, l)
		}
	}
	return result, nil
}

func (r *lessonRepository) GetByDate(date string) ([]*models.Lesson, error) {
	lessons, _, err := r.readAll()
	if err != nil {
		return nil, err
	}
	var result []*models.Lesson
	for _, l := range lessons {
		if l.Date.Format(models.DateLayout) == date {
			result = append(result, l)
		}
	}
	return result, nil
}

// MaxID смотрит на весь журнал, включая строки с нечитаемыми датами:
// номер не должен столкнуться ни с одним когда-либо выданным.
func (r *lessonRepository) MaxID() (int, error) {
	table, err := r.store.ReadTable(repository.SheetLessons)
	if err != nil {
		return 0, err
	}
	schema, err := table.Resolve(colID)
	if err != nil {
		return 0, err
	}

	maxID := 0
	for _, row := range table.Rows {
		if id, err := strconv.Atoi(schema.Value(row, colID)); err == nil && id > maxID {
			maxID = id
		}
	}
	return maxID, nil
}

// Append собирает строки по фактическому порядку столбцов листа:
// запись ходит через ту же схему, что и чтение.
func (r *lessonRepository) Append(lessons []*models.Lesson) error {
	if len(lessons) == 0 {
		return nil
	}
	table, err := r.store.ReadTable(repository.SheetLessons)
	if err != nil {
		return err
	}
	schema, err := table.Resolve(requiredColumns...)
	if err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(lessons))
	for _, l := range lessons {
		var values []interface{}
		values = schema.Place(values, colID, l.ID)
		values = schema.Place(values, colSubID, l.SubscriptionID)
		values = schema.Place(values, colDate, l.Date.Format(models.DateLayout))
		values = schema.Place(values, colStartTime, l.StartTime)
		values = schema.Place(values, colStatus, l.Status)
		values = schema.Place(values, colChild, l.Child)
		values = schema.Place(values, colMark, l.Mark)
		values = schema.Place(values, colEndTime, l.EndTime)
		rows = append(rows, values)
	}
	return r.store.Append(repository.SheetLessons, rows)
}

func (r *lessonRepository) UpdateMark(lessonID int, mark, status string) error {
	table, err := r.store.ReadTable(repository.SheetLessons)
	if err != nil {
		return err
	}
	schema, err := table.Resolve(requiredColumns...)
	if err != nil {
		return err
	}

	for _, row := range table.Rows {
		if schema.Value(row, colID) != strconv.Itoa(lessonID) {
			continue
		}
		// Меняются только отметка и статус, остальные ячейки строки
		// переписываются как были.
		values := make([]interface{}, len(row.Cells))
		for i, c := range row.Cells {
			values[i] = c
		}
		values = schema.Place(values, colStatus, status)
		values = schema.Place(values, colMark, mark)
		return r.store.UpdateRow(repository.SheetLessons, row.Index, values)
	}
	return fmt.Errorf("занятие №%d: %w", lessonID, repository.ErrNotFound)
}

func (r *lessonRepository) DeleteUnmarked(subscriptionID string) (int, error) {
	return r.deleteMatching(subscriptionID, true)
}

func (r *lessonRepository) DeleteBySubscription(subscriptionID string) (int, error) {
	return r.deleteMatching(subscriptionID, false)
}

func (r *lessonRepository) deleteMatching(subscriptionID string, unmarkedOnly bool) (int, error) {
	table, err := r.store.ReadTable(repository.SheetLessons)
	if err != nil {
		return 0, err
	}
	schema, err := table.Resolve(colSubID, colMark)
	if err != nil {
		return 0, err
	}

	var rowIndexes []int
	for _, row := range table.Rows {
		if schema.Value(row, colSubID) != subscriptionID {
			continue
		}
		if unmarkedOnly && schema.Value(row, colMark) != "" {
			continue
		}
		rowIndexes = append(rowIndexes, row.Index)
	}

	if err := r.store.DeleteRows(repository.SheetLessons, rowIndexes); err != nil {
		return 0, err
	}
	return len(rowIndexes), nil
}

func (r *lessonRepository) readAll() ([]*models.Lesson, int, error) {
	table, err := r.store.ReadTable(repository.SheetLessons)
	if err != nil {
		return nil, 0, err
	}
	schema, err := table.Resolve(requiredColumns...)
	if err != nil {
		return nil, 0, err
	}

	var lessons []*models.Lesson
	skipped := 0
	for _, row := range table.Rows {
		l, err := parseRow(schema, row)
		if err != nil {
			skipped++
			log.Printf("⚠️ Лист %q, строка %d: %v - строка пропущена", repository.SheetLessons, row.Index, err)
			continue
		}
		lessons = append(lessons, l)
	}
	return lessons, skipped, nil
}

func parseRow(schema *sheets.Schema, row sheets.Row) (*models.Lesson, error) {
	id, err := strconv.Atoi(schema.Value(row, colID))
	if err != nil {
		return nil, fmt.Errorf("некорректный номер занятия %q", schema.Value(row, colID))
	}

	date, err := time.Parse(models.DateLayout, schema.Value(row, colDate))
	if err != nil {
		return nil, fmt.Errorf("некорректная дата занятия %q", schema.Value(row, colDate))
	}

	return &models.Lesson{
		ID:             id,
		SubscriptionID: schema.Value(row, colSubID),
		Date:           date,
		StartTime:      schema.Value(row, colStartTime),
		Status:         schema.Value(row, colStatus),
		Child:          schema.Value(row, colChild),
		Mark:           schema.Value(row, colMark),
		EndTime:        schema.Value(row, colEndTime),
	}, nil
}
