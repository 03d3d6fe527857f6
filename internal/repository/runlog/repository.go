package runlog

import (
	"log"
	"strings"
	"time"

	"kruzhki-bot/internal/models"
	"kruzhki-bot/internal/repository"

	"github.com/jmoiron/sqlx"
)

// CREATE TABLE kruzhki.run_log (
//     id SERIAL PRIMARY KEY,
//     operation TEXT NOT NULL,
//     created INT NOT NULL DEFAULT 0,
//     updated INT NOT NULL DEFAULT 0,
//     unchanged INT NOT NULL DEFAULT 0,
//     deleted INT NOT NULL DEFAULT 0,
//     duplicates INT NOT NULL DEFAULT 0,
//     error_count INT NOT NULL DEFAULT 0,
//     message TEXT NOT NULL DEFAULT '',
//     started_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
//     elapsed_ms BIGINT NOT NULL DEFAULT 0
// );

type runLogRepository struct {
	db *sqlx.DB
}

// NewRunLogRepository создает журнал запусков. При db == nil (БД не
// настроена) журнал молча ничего не пишет.
func NewRunLogRepository(db *sqlx.DB) repository.RunLogRepository {
	return &runLogRepository{db: db}
}

func (r *runLogRepository) Record(report *models.RunReport) error {
	if r.db == nil {
		return nil
	}

	query := `
        INSERT INTO kruzhki.run_log
        (operation, created, updated, unchanged, deleted, duplicates, error_count, message, started_at, elapsed_ms)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	_, err := r.db.Exec(
		query,
		report.Operation,
		report.Created,
		report.Updated,
		report.Unchanged,
		report.Deleted,
		report.Duplicates,
		len(report.Errors),
		strings.Join(report.Errors, "; "),
		time.Now().Add(-report.Elapsed),
		report.Elapsed.Milliseconds(),
	)
	if err != nil {
		// Журнал вспомогательный: его сбой не должен ронять операцию.
		log.Printf("⚠️ Не удалось записать журнал запуска %q: %v", report.Operation, err)
	}
	return nil
}

func (r *runLogRepository) LastRuns(limit int) ([]models.RunEntry, error) {
	if r.db == nil {
		return nil, nil
	}

	var entries []models.RunEntry
	query := `
        SELECT id, operation, created, updated, unchanged, deleted, duplicates,
               error_count, message, started_at, elapsed_ms
        FROM kruzhki.run_log
        ORDER BY started_at DESC
        LIMIT $1
    `
	if err := r.db.Select(&entries, query, limit); err != nil {
		return nil, err
	}
	return entries, nil
}
