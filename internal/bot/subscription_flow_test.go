package bot

import (
	"testing"
	"time"

	"kruzhki-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNewSubscription(t *testing.T) {
	data, err := parseNewSubscription("Маша; Шахматы; 4000; 8; 01.09.2025; 1,3; 17:00-18:00")
	require.NoError(t, err)

	assert.Equal(t, "Маша", data.Child)
	assert.Equal(t, "Шахматы", data.Circle)
	assert.Equal(t, 4000, data.Cost)
	assert.Equal(t, 8, data.TotalClasses)
	assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), data.StartDate)
	assert.Equal(t, models.SubKindFixed, data.Kind)
	assert.Empty(t, data.PaymentKind)

	require.Len(t, data.Schedule, 2)
	assert.Equal(t, 1, data.Schedule[0].DayOfWeek)
	assert.Equal(t, 3, data.Schedule[1].DayOfWeek)
	assert.Equal(t, "17:00", data.Schedule[0].StartTime)
	assert.Equal(t, "18:00", data.Schedule[0].EndTime)
}

func TestParseNewSubscriptionExplicitKind(t *testing.T) {
	data, err := parseNewSubscription("Маша; Шахматы; 4000; 8; 01.09.2025; 1; 17:00-18:00; С переносами")
	require.NoError(t, err)
	assert.Equal(t, models.SubKindTransferable, data.Kind)
}

func TestParseNewSubscriptionPaymentKind(t *testing.T) {
	data, err := parseNewSubscription("Маша; Шахматы; 4000; 8; 01.09.2025; 1; 17:00-18:00; С переносами; Наличные")
	require.NoError(t, err)
	assert.Equal(t, models.SubKindTransferable, data.Kind)
	assert.Equal(t, "Наличные", data.PaymentKind)

	// Тип оплаты без типа абонемента: пустое восьмое поле оставляет
	// тип по умолчанию.
	data, err = parseNewSubscription("Маша; Шахматы; 4000; 8; 01.09.2025; 1; 17:00-18:00; ; Перевод")
	require.NoError(t, err)
	assert.Equal(t, models.SubKindFixed, data.Kind)
	assert.Equal(t, "Перевод", data.PaymentKind)
}

func TestParseNewSubscriptionErrors(t *testing.T) {
	tests := []struct {
		name string
		args string
	}{
		{"мало полей", "Маша; Шахматы; 4000"},
		{"кривая стоимость", "Маша; Шахматы; дорого; 8; 01.09.2025; 1; 17:00-18:00"},
		{"кривая дата", "Маша; Шахматы; 4000; 8; 2025-09-01; 1; 17:00-18:00"},
		{"день недели вне 1-7", "Маша; Шахматы; 4000; 8; 01.09.2025; 8; 17:00-18:00"},
		{"нет диапазона времени", "Маша; Шахматы; 4000; 8; 01.09.2025; 1; 17:00"},
		{"неизвестный тип", "Маша; Шахматы; 4000; 8; 01.09.2025; 1; 17:00-18:00; Абонемент"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseNewSubscription(tt.args)
			assert.Error(t, err)
		})
	}
}
