package config

// AppConfig глобальная конфигурация приложения
var AppConfig *Config

// Config основной конфиг
type Config struct {
	Environment string
	Bot         BotConfig
	Google      GoogleConfig
	Database    DatabaseConfig
}

type BotConfig struct {
	Token    string
	Debug    bool
	AdminIDs []int64 // ID администраторов, которым разрешены команды
}

// GoogleConfig - доступ к Google Sheets и Google Calendar.
// Если задан CredentialsJSON, он имеет приоритет над файлом.
type GoogleConfig struct {
	CredentialsPath string
	CredentialsJSON string
	SpreadsheetID   string
	CalendarID      string
	Timezone        string // часовой пояс событий занятий
}
