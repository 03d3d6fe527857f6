package database

import (
	"fmt"
	"log"

	"kruzhki-bot/internal/models/config"

	"github.com/jmoiron/sqlx"
)

// NewPostgres открывает БД журнала запусков. Если БД не настроена,
// возвращает nil без ошибки - журнал тогда не ведется.
func NewPostgres() (*sqlx.DB, error) {
	cfg := config.AppConfig.Database
	if !cfg.Enabled() {
		log.Println("🗄️  БД журнала не настроена - журнал запусков отключен")
		return nil, nil
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	log.Printf("🗄️  Подключено к PostgreSQL: %s:%d/%s", cfg.Host, cfg.Port, cfg.Name)
	return db, nil
}
