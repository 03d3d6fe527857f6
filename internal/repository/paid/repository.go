package paid

import (
	"log"
	"strconv"
	"time"

	"kruzhki-bot/internal/models"
	"kruzhki-bot/internal/repository"
	"kruzhki-bot/internal/sheets"
)

// Названия столбцов листа "Оплачено".
const (
	colCircle = "Кружок"
	colChild  = "Ребенок"
	colDate   = "Дата"
	colAmount = "Сумма"
	colStatus = "Статус"
)

type paidRepository struct {
	store sheets.TableStore
}

func NewPaidRepository(store sheets.TableStore) repository.PaidRepository {
	return &paidRepository{store: store}
}

func (r *paidRepository) GetAll() ([]*models.PaidPayment, error) {
	table, err := r.store.ReadTable(repository.SheetPaid)
	if err != nil {
		return nil, err
	}
	schema, err := table.Resolve(colCircle, colChild, colDate, colAmount, colStatus)
	if err != nil {
		return nil, err
	}

	var payments []*models.PaidPayment
	for _, row := range table.Rows {
		date, err := time.Parse(models.DateLayout, schema.Value(row, colDate))
		if err != nil {
			log.Printf("⚠️ Лист %q, строка %d: некорректная дата %q - строка пропущена",
				repository.SheetPaid, row.Index, schema.Value(row, colDate))
			continue
		}
		amount, _ := strconv.Atoi(schema.Value(row, colAmount))

		payments = append(payments, &models.PaidPayment{
			Circle: schema.Value(row, colCircle),
			Child:  schema.Value(row, colChild),
			Date:   date,
			Amount: amount,
			Status: schema.Value(row, colStatus),
		})
	}

	return payments, nil
}

// Append только дописывает: лист "Оплачено" - исторический, его строки
// никогда не правятся и не удаляются.
func (r *paidRepository) Append(payment *models.PaidPayment) error {
	table, err := r.store.ReadTable(repository.SheetPaid)
	if err != nil {
		return err
	}
	schema, err := table.Resolve(colCircle, colChild, colDate, colAmount, colStatus)
	if err != nil {
		return err
	}

	status := payment.Status
	if status == "" {
		status = models.PaymentStatusPaid
	}
	var values []interface{}
	values = schema.Place(values, colCircle, payment.Circle)
	values = schema.Place(values, colChild, payment.Child)
	values = schema.Place(values, colDate, payment.Date.Format(models.DateLayout))
	values = schema.Place(values, colAmount, payment.Amount)
	values = schema.Place(values, colStatus, status)
	return r.store.Append(repository.SheetPaid, [][]interface{}{values})
}
