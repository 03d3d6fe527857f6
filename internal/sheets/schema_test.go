package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveByHeaderName(t *testing.T) {
	table := &Table{
		Name:   "Абонементы",
		Header: []string{"№", " Ребенок ", "Кружок"},
		Rows: []Row{
			{Index: 2, Cells: []string{"1", " Маша ", "Шахматы"}},
		},
	}

	schema, err := table.Resolve("Ребенок", "Кружок")
	require.NoError(t, err)

	// Значения находятся по имени столбца и очищаются от пробелов.
	assert.Equal(t, "Маша", schema.Value(table.Rows[0], "Ребенок"))
	assert.Equal(t, "Шахматы", schema.Value(table.Rows[0], "Кружок"))
}

func TestResolveColumnsReordered(t *testing.T) {
	table := &Table{
		Name:   "Прогноз",
		Header: []string{"Ребенок", "Кружок"},
		Rows:   []Row{{Index: 2, Cells: []string{"Маша", "Шахматы"}}},
	}

	schema, err := table.Resolve("Кружок", "Ребенок")
	require.NoError(t, err)
	assert.Equal(t, "Шахматы", schema.Value(table.Rows[0], "Кружок"))
}

func TestResolveMissingColumns(t *testing.T) {
	table := &Table{Name: "Абонементы", Header: []string{"№", "Ребенок"}}

	_, err := table.Resolve("Ребенок", "Кружок", "Статус")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Абонементы")
	assert.Contains(t, err.Error(), "Кружок")
	assert.Contains(t, err.Error(), "Статус")
	assert.NotContains(t, err.Error(), "Ребенок,")
}

func TestValueShortRow(t *testing.T) {
	table := &Table{Name: "Лист", Header: []string{"А", "Б", "В"}}
	schema, err := table.Resolve("В")
	require.NoError(t, err)

	short := Row{Index: 3, Cells: []string{"только А"}}
	assert.Equal(t, "", schema.Value(short, "В"))
	assert.Equal(t, "", schema.Value(short, "нет такого столбца"))
}

func TestResolveDuplicateHeaderKeepsFirst(t *testing.T) {
	table := &Table{
		Name:   "Абонементы",
		Header: []string{"Дата", "Дата"},
		Rows:   []Row{{Index: 2, Cells: []string{"01.09.2025", "02.09.2025"}}},
	}
	schema, err := table.Resolve("Дата")
	require.NoError(t, err)
	assert.Equal(t, "01.09.2025", schema.Value(table.Rows[0], "Дата"))
}
