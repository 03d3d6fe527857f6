package bot

import (
	"log"
	"time"

	"kruzhki-bot/internal/models"
)

// Как часто планировщик сверяется со временем из Справочника.
const notifierPollInterval = 5 * time.Minute

// Notifier раз в notifierPollInterval проверяет, не настало ли время
// ежедневного уведомления из Справочника (ячейка N2), и шлет занятия
// на сегодня в привязанный чат. Повторная отправка в тот же день
// не происходит.
type Notifier struct {
	bot  *Bot
	stop chan struct{}

	lastSent string // дата последней отправки, DD.MM.YYYY
}

func NewNotifier(bot *Bot) *Notifier {
	return &Notifier{bot: bot, stop: make(chan struct{})}
}

func (n *Notifier) Start() {
	go n.loop()
	log.Println("⏰ Планировщик уведомлений запущен")
}

func (n *Notifier) Stop() {
	close(n.stop)
}

func (n *Notifier) loop() {
	ticker := time.NewTicker(notifierPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-n.stop:
			return
		case <-ticker.C:
			n.tick(time.Now())
		}
	}
}

func (n *Notifier) tick(now time.Time) {
	today := now.Format(models.DateLayout)
	if n.lastSent == today {
		return
	}

	raw, err := n.bot.HandbookRepo.NotificationTime()
	if err != nil {
		log.Printf("Ошибка чтения времени уведомлений: %v", err)
		return
	}
	if raw == "" {
		return
	}
	target, err := time.Parse(models.TimeLayout, raw)
	if err != nil {
		log.Printf("⚠️ Некорректное время уведомлений в Справочнике: %q", raw)
		return
	}

	targetToday := time.Date(now.Year(), now.Month(), now.Day(), target.Hour(), target.Minute(), 0, 0, now.Location())
	diff := now.Sub(targetToday)
	if diff < -notifierPollInterval || diff > notifierPollInterval {
		return
	}

	chatID, err := n.bot.HandbookRepo.NotificationChatID()
	if err != nil {
		log.Printf("Ошибка чтения чата уведомлений: %v", err)
		return
	}
	if chatID == 0 {
		log.Println("⚠️ Чат уведомлений не привязан, отправьте боту /start")
		return
	}

	n.lastSent = today
	log.Printf("⏰ Отправляю занятия на %s в чат %d", today, chatID)
	n.bot.handleToday(chatID)
}
