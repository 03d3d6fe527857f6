package handbook

import (
	"strconv"

	"kruzhki-bot/internal/repository"
	"kruzhki-bot/internal/sheets"
)

// Ячейки настроек в Справочнике.
const (
	cellNotificationTime   = "N2"
	cellNotificationChatID = "O2"
)

type handbookRepository struct {
	store sheets.TableStore
}

func NewHandbookRepository(store sheets.TableStore) repository.HandbookRepository {
	return &handbookRepository{store: store}
}

// NotificationTime возвращает время ежедневных уведомлений в формате
// "HH:MM" или пустую строку, если уведомления не настроены.
func (r *handbookRepository) NotificationTime() (string, error) {
	return r.store.ReadCell(repository.SheetHandbook, cellNotificationTime)
}

func (r *handbookRepository) NotificationChatID() (int64, error) {
	raw, err := r.store.ReadCell(repository.SheetHandbook, cellNotificationChatID)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (r *handbookRepository) SetNotificationChatID(chatID int64) error {
	return r.store.WriteCell(repository.SheetHandbook, cellNotificationChatID, chatID)
}
