// Package sheets - адаптер табличного хранилища поверх Google Sheets.
// Все чтения и записи идут через него, с повторами при сетевых сбоях
// и превышении квоты API.
package sheets

import (
	"fmt"
	"log"

	"kruzhki-bot/internal/retry"

	api "google.golang.org/api/sheets/v4"
)

// TableStore - доступ к именованным листам таблицы. Репозитории работают
// только с этим интерфейсом, в тестах его подменяет in-memory реализация.
type TableStore interface {
	ReadTable(name string) (*Table, error)
	Append(name string, rows [][]interface{}) error
	UpdateRow(name string, rowIndex int, values []interface{}) error
	DeleteRows(name string, rowIndexes []int) error
	ClearDataRows(name string) error
	ReadCell(name, cell string) (string, error)
	WriteCell(name, cell string, value interface{}) error
}

// Store - боевая реализация поверх Google Sheets API.
type Store struct {
	srv           *api.Service
	spreadsheetID string
	sheetIDs      map[string]int64 // название листа -> числовой sheetId
}

func NewStore(srv *api.Service, spreadsheetID string) *Store {
	return &Store{
		srv:           srv,
		spreadsheetID: spreadsheetID,
		sheetIDs:      make(map[string]int64),
	}
}

// ReadTable читает лист целиком: первая строка - заголовки, остальные -
// данные с номерами строк листа.
func (s *Store) ReadTable(name string) (*Table, error) {
	var resp *api.ValueRange
	err := retry.Call("чтение листа "+name, func() error {
		var callErr error
		resp, callErr = s.srv.Spreadsheets.Values.Get(s.spreadsheetID, name).Do()
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать лист %q: %w", name, err)
	}

	t := &Table{Name: name}
	for i, raw := range resp.Values {
		cells := make([]string, len(raw))
		for j, v := range raw {
			cells[j] = fmt.Sprintf("%v", v)
		}
		if i == 0 {
			t.Header = cells
			continue
		}
		t.Rows = append(t.Rows, Row{Index: i + 1, Cells: cells})
	}

	log.Printf("📊 Лист %q: прочитано %d строк", name, len(t.Rows))
	return t, nil
}

// Append дописывает строки в конец листа. Существующие строки не трогаются
// и не переупорядочиваются.
func (s *Store) Append(name string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	vr := &api.ValueRange{Values: rows}
	return retry.Call("запись в лист "+name, func() error {
		_, err := s.srv.Spreadsheets.Values.Append(s.spreadsheetID, name, vr).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Do()
		return err
	})
}

// UpdateRow перезаписывает одну строку листа начиная со столбца A.
func (s *Store) UpdateRow(name string, rowIndex int, values []interface{}) error {
	vr := &api.ValueRange{Values: [][]interface{}{values}}
	rng := fmt.Sprintf("%s!A%d", name, rowIndex)
	return retry.Call("обновление строки "+rng, func() error {
		_, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").
			Do()
		return err
	})
}

// DeleteRows удаляет строки листа по номерам. Удаляем снизу вверх, чтобы
// номера не съезжали по ходу удаления.
func (s *Store) DeleteRows(name string, rowIndexes []int) error {
	if len(rowIndexes) == 0 {
		return nil
	}

	sheetID, err := s.sheetID(name)
	if err != nil {
		return err
	}

	sorted := append([]int(nil), rowIndexes...)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j] > sorted[i] {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}

	var requests []*api.Request
	for _, idx := range sorted {
		requests = append(requests, &api.Request{
			DeleteDimension: &api.DeleteDimensionRequest{
				Range: &api.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(idx - 1),
					EndIndex:   int64(idx),
				},
			},
		})
	}

	return retry.Call("удаление строк из "+name, func() error {
		_, err := s.srv.Spreadsheets.BatchUpdate(s.spreadsheetID, &api.BatchUpdateSpreadsheetRequest{
			Requests: requests,
		}).Do()
		return err
	})
}

// ClearDataRows очищает все строки данных листа, заголовок остается.
func (s *Store) ClearDataRows(name string) error {
	rng := fmt.Sprintf("%s!A2:Z", name)
	return retry.Call("очистка листа "+name, func() error {
		_, err := s.srv.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &api.ClearValuesRequest{}).Do()
		return err
	})
}

// ReadCell читает одну ячейку, например "N2" Справочника.
func (s *Store) ReadCell(name, cell string) (string, error) {
	var resp *api.ValueRange
	rng := fmt.Sprintf("%s!%s", name, cell)
	err := retry.Call("чтение ячейки "+rng, func() error {
		var callErr error
		resp, callErr = s.srv.Spreadsheets.Values.Get(s.spreadsheetID, rng).Do()
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("не удалось прочитать ячейку %s: %w", rng, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return "", nil
	}
	return fmt.Sprintf("%v", resp.Values[0][0]), nil
}

// WriteCell записывает одну ячейку.
func (s *Store) WriteCell(name, cell string, value interface{}) error {
	rng := fmt.Sprintf("%s!%s", name, cell)
	vr := &api.ValueRange{Values: [][]interface{}{{value}}}
	return retry.Call("запись ячейки "+rng, func() error {
		_, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").
			Do()
		return err
	})
}

// sheetID находит числовой id листа по названию (нужен для batchUpdate).
func (s *Store) sheetID(name string) (int64, error) {
	if id, ok := s.sheetIDs[name]; ok {
		return id, nil
	}

	var meta *api.Spreadsheet
	err := retry.Call("чтение структуры таблицы", func() error {
		var callErr error
		meta, callErr = s.srv.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Do()
		return callErr
	})
	if err != nil {
		return 0, fmt.Errorf("не удалось получить структуру таблицы: %w", err)
	}

	for _, sh := range meta.Sheets {
		if sh.Properties != nil {
			s.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}

	id, ok := s.sheetIDs[name]
	if !ok {
		return 0, fmt.Errorf("лист %q не найден в таблице", name)
	}
	return id, nil
}
