package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DatabaseConfig конфигурация БД журнала запусков.
// БД не обязательна: без DB_USER журнал просто не ведется.
type DatabaseConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Name     string
	SSLMode  string
}

// Enabled сообщает, настроена ли БД журнала.
func (c DatabaseConfig) Enabled() bool {
	return c.Username != ""
}

// Load загружает конфигурацию
func Load() error {
	// Сначала .env.local (разработка), потом .env (продакшн)
	if _, err := os.Stat(".env.local"); err == nil {
		_ = godotenv.Load(".env.local")
		log.Println("🔧 Загружен .env.local (локальная разработка)")
	} else if err := godotenv.Load(); err == nil {
		log.Println("🔧 Загружен .env")
	}

	env := getEnv("APP_ENV", "development")

	AppConfig = &Config{
		Environment: env,
		Bot: BotConfig{
			Token:    getEnv("TELEGRAM_BOT_TOKEN", ""),
			Debug:    getEnvAsBool("BOT_DEBUG", env != "production"),
			AdminIDs: parseAdminIDs(getEnv("ADMIN_IDS", "")),
		},
		Google: GoogleConfig{
			CredentialsPath: getEnv("GOOGLE_CREDENTIALS_PATH", "service_account.json"),
			CredentialsJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
			SpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
			CalendarID:      getEnv("GOOGLE_CALENDAR_ID", ""),
			Timezone:        getEnv("CALENDAR_TIMEZONE", "Asia/Yekaterinburg"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Username: getEnv("DB_USER", ""),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "kruzhki-db"),
			SSLMode:  getSSLMode(env),
		},
	}

	return validate()
}

// validate проверяет обязательные параметры
func validate() error {
	var errors []string

	if AppConfig.Bot.Token == "" {
		errors = append(errors, "TELEGRAM_BOT_TOKEN is required")
	}

	if AppConfig.Google.SpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required")
	}

	if AppConfig.Database.Password == "" && AppConfig.Database.Enabled() && AppConfig.Environment == "production" {
		errors = append(errors, "DB_PASSWORD is required in production")
	}

	if len(errors) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errors, ", "))
	}

	return nil
}

// getSSLMode возвращает режим SSL в зависимости от окружения
func getSSLMode(env string) string {
	if env == "production" {
		return "require"
	}
	return "disable"
}

// parseAdminIDs парсит список ID администраторов
func parseAdminIDs(ids string) []int64 {
	if ids == "" {
		return []int64{}
	}

	var result []int64
	for _, idStr := range strings.Split(ids, ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64); err == nil {
			result = append(result, id)
		}
	}
	return result
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
