package sheets

import (
	"fmt"
	"strings"
)

// Row - одна строка данных листа с ее фактическим номером в таблице.
type Row struct {
	Index int // номер строки листа, 1-based
	Cells []string
}

// Table - прочитанный лист: заголовок плюс строки данных.
type Table struct {
	Name   string
	Header []string
	Rows   []Row
}

// Schema - разрешенное один раз на чтение соответствие
// "название столбца -> индекс". Перестановка столбцов в таблице
// после этого не ломает семантику.
type Schema struct {
	index map[string]int
}

// Resolve строит схему по заголовку листа. Отсутствие обязательного
// столбца - структурная ошибка, операция с таким листом не выполняется.
func (t *Table) Resolve(required ...string) (*Schema, error) {
	index := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	var missing []string
	for _, name := range required {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("в листе %q нет обязательных столбцов: %s", t.Name, strings.Join(missing, ", "))
	}

	return &Schema{index: index}, nil
}

// Value возвращает значение столбца в строке или пустую строку,
// если строка короче.
func (s *Schema) Value(row Row, column string) string {
	i, ok := s.index[column]
	if !ok || i >= len(row.Cells) {
		return ""
	}
	return strings.TrimSpace(row.Cells[i])
}

// Place кладет значение в позицию столбца, при необходимости расширяя
// строку. Запись обязана ходить через те же индексы, что и чтение,
// иначе переставленные столбцы читаются верно, а пишутся мимо.
// Столбец, которого нет в заголовке, пропускается.
func (s *Schema) Place(values []interface{}, column string, value interface{}) []interface{} {
	i, ok := s.index[column]
	if !ok {
		return values
	}
	for len(values) <= i {
		values = append(values, "")
	}
	values[i] = value
	return values
}
