package forecast

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"kruzhki-bot/internal/models"
	"kruzhki-bot/internal/repository"
	"kruzhki-bot/internal/sheets"
)

// Названия столбцов листа "Прогноз".
const (
	colCircle  = "Кружок"
	colChild   = "Ребенок"
	colDueDate = "Дата оплаты"
	colAmount  = "Бюджет"
	colStatus  = "Статус"
)

type forecastRepository struct {
	store sheets.TableStore
}

func NewForecastRepository(store sheets.TableStore) repository.ForecastRepository {
	return &forecastRepository{store: store}
}

func (r *forecastRepository) GetAll() ([]*models.ForecastPayment, error) {
	table, err := r.store.ReadTable(repository.SheetForecast)
	if err != nil {
		return nil, err
	}
	schema, err := table.Resolve(colCircle, colChild, colDueDate, colAmount, colStatus)
	if err != nil {
		return nil, err
	}

	var payments []*models.ForecastPayment
	for _, row := range table.Rows {
		dueDate, err := time.Parse(models.DateLayout, schema.Value(row, colDueDate))
		if err != nil {
			log.Printf("⚠️ Лист %q, строка %d: некорректная дата оплаты %q - строка пропущена",
				repository.SheetForecast, row.Index, schema.Value(row, colDueDate))
			continue
		}
		amount, _ := strconv.Atoi(schema.Value(row, colAmount))

		payments = append(payments, &models.ForecastPayment{
			Circle:  schema.Value(row, colCircle),
			Child:   schema.Value(row, colChild),
			DueDate: dueDate,
			Amount:  amount,
			Status:  schema.Value(row, colStatus),
		})
	}

	return payments, nil
}

// Replace полностью пересобирает лист: старые строки стираются, новые
// пишутся разом. Ручные правки листа между запусками не переживают
// пересборку - это осознанная цена отсутствия накопления мусора.
func (r *forecastRepository) Replace(payments []*models.ForecastPayment) error {
	table, err := r.store.ReadTable(repository.SheetForecast)
	if err != nil {
		return err
	}
	schema, err := table.Resolve(colCircle, colChild, colDueDate, colAmount, colStatus)
	if err != nil {
		return err
	}
	if err := r.store.ClearDataRows(repository.SheetForecast); err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(payments))
	for _, p := range payments {
		var values []interface{}
		values = schema.Place(values, colCircle, p.Circle)
		values = schema.Place(values, colChild, p.Child)
		values = schema.Place(values, colDueDate, p.DueDate.Format(models.DateLayout))
		values = schema.Place(values, colAmount, p.Amount)
		values = schema.Place(values, colStatus, p.Status)
		rows = append(rows, values)
	}
	return r.store.Append(repository.SheetForecast, rows)
}

func (r *forecastRepository) Delete(payment *models.ForecastPayment) error {
	table, err := r.store.ReadTable(repository.SheetForecast)
	if err != nil {
		return err
	}
	schema, err := table.Resolve(colCircle, colChild, colDueDate)
	if err != nil {
		return err
	}

	for _, row := range table.Rows {
		if schema.Value(row, colCircle) == payment.Circle &&
			schema.Value(row, colChild) == payment.Child &&
			schema.Value(row, colDueDate) == payment.DueDate.Format(models.DateLayout) {
			return r.store.DeleteRows(repository.SheetForecast, []int{row.Index})
		}
	}
	return fmt.Errorf("оплата %s / %s на %s не найдена в прогнозе",
		payment.Child, payment.Circle, payment.DueDate.Format(models.DateLayout))
}
