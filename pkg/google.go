package database

import (
	"context"
	"fmt"
	"log"
	"os"

	"kruzhki-bot/internal/models/config"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// NewSheetsAPI подключается к Google Sheets API от имени сервисного
// аккаунта.
func NewSheetsAPI() (*sheets.Service, error) {
	creds, err := credentialsJSON()
	if err != nil {
		return nil, err
	}

	jwt, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("не удалось разобрать service account: %w", err)
	}

	srv, err := sheets.NewService(context.Background(), option.WithHTTPClient(jwt.Client(context.Background())))
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к Google Sheets: %w", err)
	}

	log.Println("📊 Подключено к Google Sheets API")
	return srv, nil
}

// NewCalendarAPI подключается к Google Calendar API. Если календарь не
// настроен, возвращает nil - синхронизация тогда недоступна.
func NewCalendarAPI() (*calendar.Service, error) {
	cfg := config.AppConfig.Google
	if cfg.CalendarID == "" || cfg.CalendarID == "disabled" {
		log.Println("📅 Google Calendar отключен в конфигурации")
		return nil, nil
	}

	creds, err := credentialsJSON()
	if err != nil {
		return nil, err
	}

	jwt, err := google.JWTConfigFromJSON(creds, calendar.CalendarScope, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("не удалось разобрать service account: %w", err)
	}

	srv, err := calendar.NewService(context.Background(), option.WithHTTPClient(jwt.Client(context.Background())))
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к Google Calendar: %w", err)
	}

	log.Println("✅ Успешное подключение к Google Calendar API")
	return srv, nil
}

// credentialsJSON отдает JSON сервисного аккаунта: из переменной окружения
// (деплой) или из файла (локальный запуск).
func credentialsJSON() ([]byte, error) {
	cfg := config.AppConfig.Google
	if cfg.CredentialsJSON != "" {
		return []byte(cfg.CredentialsJSON), nil
	}

	data, err := os.ReadFile(cfg.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("service account недоступен (%s): %w", cfg.CredentialsPath, err)
	}
	return data, nil
}
