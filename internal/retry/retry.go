// Package retry - общая политика повторных попыток для сетевых вызовов
// Google API. Прогноз и синхронизация календаря используют одни и те же
// политики, чтобы не плодить ручные циклы со sleep.
package retry

import (
	"errors"
	"log"
	"net"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
)

// Policy описывает, сколько раз и с какой задержкой повторять вызов.
type Policy struct {
	MaxAttempts int
	// Backoff возвращает задержку перед попыткой attempt (считая с 1).
	Backoff func(attempt int) time.Duration
	// Retryable решает, имеет ли смысл повторять после этой ошибки.
	Retryable func(err error) bool
}

// Network - политика для временных сетевых ошибок: до 3 попыток,
// экспоненциальная задержка 2s, 4s.
func Network() Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(1<<(attempt-1)) * 2 * time.Second
		},
		Retryable: IsNetworkError,
	}
}

// RateLimit - политика для превышения квоты API: до 3 попыток,
// линейная задержка 15s, 30s, 45s.
func RateLimit() Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * 15 * time.Second
		},
		Retryable: IsRateLimitError,
	}
}

// Do выполняет fn по политике p. Ошибки, которые политика не считает
// повторяемыми, возвращаются сразу.
func (p Policy) Do(what string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !p.Retryable(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}
		delay := p.Backoff(attempt)
		log.Printf("🔄 %s: попытка %d/%d не удалась (%v), жду %s", what, attempt, p.MaxAttempts, err, delay)
		time.Sleep(delay)
	}
	return err
}

// IsNetworkError распознает временные сетевые сбои: обрыв соединения,
// broken pipe, таймауты.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{"connection reset", "broken pipe", "connection refused", "EOF", "timeout"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// IsRateLimitError распознает ответы Google API о превышении квоты.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 {
			return true
		}
		if apiErr.Code == 403 {
			for _, e := range apiErr.Errors {
				if e.Reason == "rateLimitExceeded" || e.Reason == "userRateLimitExceeded" || e.Reason == "quotaExceeded" {
					return true
				}
			}
		}
	}
	return strings.Contains(err.Error(), "RATE_LIMIT_EXCEEDED")
}

// Call выполняет вызов Google API сначала по сетевой политике, затем,
// если исчерпана квота, по политике лимитов.
func Call(what string, fn func() error) error {
	err := Network().Do(what, fn)
	if err != nil && IsRateLimitError(err) {
		err = RateLimit().Do(what, fn)
	}
	return err
}
