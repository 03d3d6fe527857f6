package models

import (
	"fmt"
	"strings"
	"time"
)

// Сколько ошибок показываем пользователю, остальное сворачиваем в "+N ещё".
const reportErrorLimit = 5

// RunReport - итог одного запуска операции движка. Ошибки по отдельным
// строкам копятся здесь и не прерывают обработку остальных; наружу
// операция возвращает error только при структурном сбое (нет листа,
// нет обязательного столбца).
type RunReport struct {
	Operation  string
	Created    int
	Updated    int
	Unchanged  int
	Deleted    int
	Duplicates int
	Errors     []string
	Warnings   []string
	Elapsed    time.Duration

	started time.Time
}

func NewRunReport(operation string) *RunReport {
	return &RunReport{Operation: operation, started: time.Now()}
}

// Finish фиксирует длительность запуска. Удобно вызывать через defer.
func (r *RunReport) Finish() {
	r.Elapsed = time.Since(r.started)
}

// AddError фиксирует ошибку одной строки/абонемента/группы.
func (r *RunReport) AddError(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// AddWarning фиксирует именованное предупреждение (например, группа
// прогноза без расписания).
func (r *RunReport) AddWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// HasProblems сообщает, был ли запуск частично неуспешным.
func (r *RunReport) HasProblems() bool {
	return len(r.Errors) > 0
}

// RunEntry - строка журнала запусков.
type RunEntry struct {
	ID         int64     `db:"id"`
	Operation  string    `db:"operation"`
	Created    int       `db:"created"`
	Updated    int       `db:"updated"`
	Unchanged  int       `db:"unchanged"`
	Deleted    int       `db:"deleted"`
	Duplicates int       `db:"duplicates"`
	ErrorCount int       `db:"error_count"`
	Message    string    `db:"message"`
	StartedAt  time.Time `db:"started_at"`
	ElapsedMs  int64     `db:"elapsed_ms"`
}

// String собирает человекочитаемую сводку для бота.
func (r *RunReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 %s\n", r.Operation)
	if r.Created > 0 {
		fmt.Fprintf(&b, "➕ Создано: %d\n", r.Created)
	}
	if r.Updated > 0 {
		fmt.Fprintf(&b, "🔄 Обновлено: %d\n", r.Updated)
	}
	if r.Unchanged > 0 {
		fmt.Fprintf(&b, "✅ Без изменений: %d\n", r.Unchanged)
	}
	if r.Deleted > 0 {
		fmt.Fprintf(&b, "🗑️ Удалено: %d\n", r.Deleted)
	}
	if r.Duplicates > 0 {
		fmt.Fprintf(&b, "♻️ Дублей убрано: %d\n", r.Duplicates)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "⚠️ %s\n", w)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "❌ Ошибок: %d\n", len(r.Errors))
		shown := r.Errors
		if len(shown) > reportErrorLimit {
			shown = shown[:reportErrorLimit]
		}
		for _, e := range shown {
			fmt.Fprintf(&b, "  • %s\n", e)
		}
		if rest := len(r.Errors) - reportErrorLimit; rest > 0 {
			fmt.Fprintf(&b, "  … +%d ещё\n", rest)
		}
	}
	if r.Elapsed > 0 {
		fmt.Fprintf(&b, "⏱️ Время: %s", r.Elapsed.Round(time.Millisecond))
	}
	return strings.TrimRight(b.String(), "\n")
}
