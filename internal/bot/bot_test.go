package bot

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kruzhki-bot/internal/models"

	"github.com/stretchr/testify/assert"
)

// Каждое обновление обрабатывается в своей горутине, поэтому две
// быстрые отметки подряд запускают пересчет одновременно. Замок движка
// обязан выстроить их в очередь: параллельные пересчеты по одной
// таблице выдают занятиям совпадающие номера.
func TestGuardSerializesEngineOperations(t *testing.T) {
	b := &Bot{}

	var inFlight, overlaps int32
	op := func() (*models.RunReport, error) {
		if atomic.AddInt32(&inFlight, 1) > 1 {
			atomic.AddInt32(&overlaps, 1)
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return models.NewRunReport("тест"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report, err := b.guard(op)
			assert.NoError(t, err)
			assert.NotNil(t, report)
		}()
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&overlaps))
}
