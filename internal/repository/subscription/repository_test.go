package subscription

import (
	"fmt"
	"testing"
	"time"

	"kruzhki-bot/internal/models"
	"kruzhki-bot/internal/repository"
	"kruzhki-bot/internal/sheets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore - лист "Абонементы" в памяти. Первая строка - заголовок.
type fakeStore struct {
	cells [][]string
}

func (f *fakeStore) ReadTable(name string) (*sheets.Table, error) {
	t := &sheets.Table{Name: name}
	for i, row := range f.cells {
		if i == 0 {
			t.Header = row
			continue
		}
		t.Rows = append(t.Rows, sheets.Row{Index: i + 1, Cells: row})
	}
	return t, nil
}

func (f *fakeStore) Append(name string, rows [][]interface{}) error {
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprintf("%v", v)
		}
		f.cells = append(f.cells, cells)
	}
	return nil
}

func (f *fakeStore) UpdateRow(name string, rowIndex int, values []interface{}) error {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = fmt.Sprintf("%v", v)
	}
	f.cells[rowIndex-1] = cells
	return nil
}

func (f *fakeStore) DeleteRows(name string, rowIndexes []int) error {
	for _, idx := range rowIndexes {
		f.cells = append(f.cells[:idx-1], f.cells[idx:]...)
	}
	return nil
}

func (f *fakeStore) ClearDataRows(string) error                  { return nil }
func (f *fakeStore) ReadCell(string, string) (string, error)     { return "", nil }
func (f *fakeStore) WriteCell(string, string, interface{}) error { return nil }

var header = []string{
	"№", "ID абонемента", "Ребенок", "Кружок", "К-во занятий", "Дата начала",
	"Последнее занятие", "Прошло занятий", "Осталось занятий", "Статус",
	"Стоимость", "Дата последнего занятия", "Пропущено", "Тип абонемента", "Тип оплаты",
}

func newRepo(rows ...[]string) (*fakeStore, *subscriptionRepository) {
	store := &fakeStore{cells: append([][]string{header}, rows...)}
	return store, NewSubscriptionRepository(store).(*subscriptionRepository)
}

func TestGetAllParsesRows(t *testing.T) {
	_, repo := newRepo(
		[]string{"1", "1сен.МашаШахматы-25", "Маша", "Шахматы", "8", "01.09.2025",
			"22.09.2025", "2", "6", "Активен", "4000", "22.09.2025", "1", "Фиксированный", "Наличные"},
	)

	subs, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, subs, 1)

	sub := subs[0]
	assert.Equal(t, "1сен.МашаШахматы-25", sub.ID)
	assert.Equal(t, 8, sub.TotalClasses)
	assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), sub.StartDate)
	assert.Equal(t, time.Date(2025, 9, 22, 0, 0, 0, 0, time.UTC), sub.LastScheduled)
	assert.Equal(t, 2, sub.Attended)
	assert.Equal(t, 6, sub.Remaining)
	assert.Equal(t, models.SubKindFixed, sub.Kind)
}

func TestGetAllSkipsMalformedRows(t *testing.T) {
	_, repo := newRepo(
		[]string{"1", "хороший", "Маша", "Шахматы", "8", "01.09.2025", "", "0", "8", "Ожидание", "4000", "", "0", "Фиксированный", ""},
		[]string{"2", "без даты", "Петя", "Лего", "8", "скоро", "", "0", "8", "Ожидание", "4000", "", "0", "Фиксированный", ""},
		[]string{"3", "", "Без ID", "Лего", "8", "01.09.2025", "", "0", "8", "Ожидание", "4000", "", "0", "Фиксированный", ""},
	)

	subs, err := repo.GetAll()
	require.NoError(t, err)
	// Кривые строки пропущены, валидная уцелела.
	require.Len(t, subs, 1)
	assert.Equal(t, "хороший", subs[0].ID)
}

func TestGetAllMissingColumnFails(t *testing.T) {
	store := &fakeStore{cells: [][]string{{"№", "Ребенок"}}}
	repo := NewSubscriptionRepository(store)

	_, err := repo.GetAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ID абонемента")
}

func TestCreateAndUpdateCounters(t *testing.T) {
	store, repo := newRepo()

	sub := &models.Subscription{
		ID: "x", Child: "Маша", Circle: "Шахматы", TotalClasses: 8,
		StartDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		Remaining: 8, Status: models.SubStatusWaiting, Cost: 4000,
		Kind: models.SubKindFixed,
	}
	require.NoError(t, repo.Create(sub))
	assert.Equal(t, 1, sub.Seq)
	require.Len(t, store.cells, 2)

	sub.Attended = 3
	sub.Remaining = 5
	sub.Status = models.SubStatusActive
	sub.LastScheduled = time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateCounters(sub))

	got, err := repo.GetByID("x")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Attended)
	assert.Equal(t, 5, got.Remaining)
	assert.Equal(t, models.SubStatusActive, got.Status)
	assert.Equal(t, sub.LastScheduled, got.LastScheduled)
}

func TestDelete(t *testing.T) {
	_, repo := newRepo(
		[]string{"1", "первый", "Маша", "Шахматы", "8", "01.09.2025", "", "0", "8", "Ожидание", "4000", "", "0", "Фиксированный", ""},
		[]string{"2", "второй", "Петя", "Лего", "8", "01.09.2025", "", "0", "8", "Ожидание", "4000", "", "0", "Фиксированный", ""},
	)

	require.NoError(t, repo.Delete("первый"))

	_, err := repo.GetByID("первый")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetByID("второй")
	assert.NoError(t, err)
}

// Запись ходит по тем же разрешенным индексам, что и чтение: лист с
// переставленными столбцами иначе читается верно, а пишется мимо.
func TestWritesFollowHeaderOrder(t *testing.T) {
	reordered := []string{
		"Статус", "ID абонемента", "№", "Ребенок", "Кружок", "К-во занятий",
		"Дата начала", "Прошло занятий", "Осталось занятий", "Стоимость",
		"Последнее занятие", "Дата последнего занятия", "Пропущено", "Тип абонемента", "Тип оплаты",
	}
	store := &fakeStore{cells: [][]string{reordered}}
	repo := NewSubscriptionRepository(store)

	sub := &models.Subscription{
		ID: "x", Child: "Маша", Circle: "Шахматы", TotalClasses: 8,
		StartDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		Remaining: 8, Status: models.SubStatusWaiting, Cost: 4000,
		Kind: models.SubKindFixed, PaymentKind: "Наличные",
	}
	require.NoError(t, repo.Create(sub))
	assert.Equal(t, models.SubStatusWaiting, store.cells[1][0])
	assert.Equal(t, "x", store.cells[1][1])
	assert.Equal(t, "01.09.2025", store.cells[1][6])

	sub.Attended = 2
	sub.Remaining = 6
	sub.Status = models.SubStatusActive
	require.NoError(t, repo.UpdateCounters(sub))

	got, err := repo.GetByID("x")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Attended)
	assert.Equal(t, 6, got.Remaining)
	assert.Equal(t, models.SubStatusActive, got.Status)
	assert.Equal(t, "Наличные", got.PaymentKind)
	assert.Equal(t, models.SubStatusActive, store.cells[1][0])
}
