package models

import (
	"fmt"
	"time"
)

// Статусы прогнозной оплаты.
const (
	PaymentStatusPlanned = "Запланировано"
	PaymentStatusPaid    = "Оплачено"
)

// ForecastPayment - прогнозная дата оплаты.
// Лист "Прогноз": A Кружок, B Ребенок, C Дата оплаты, D Бюджет, E Статус.
type ForecastPayment struct {
	Circle  string
	Child   string
	DueDate time.Time
	Amount  int
	Status  string
}

// Key - детерминированный ключ события прогноза. Одинаковое содержимое
// всегда дает один ключ, поэтому после полной пересборки листа "Прогноз"
// события в календаре находятся без хранения ID событий.
func (f *ForecastPayment) Key() string {
	return fmt.Sprintf("%s|%s|%s|%d", f.Circle, f.Child, f.DueDate.Format(DateLayout), f.Amount)
}

// PaidPayment - историческая запись об оплате.
// Лист "Оплачено": A Кружок, B Ребенок, C Дата, D Сумма, E Статус.
// Только добавление, строки никогда не правятся.
type PaidPayment struct {
	Circle string
	Child  string
	Date   time.Time
	Amount int
	Status string
}
