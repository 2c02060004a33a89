// Package realtime реализует подписку на значения поля через периодический опрос
package realtime

import (
	"context"
	"sync"
	"time"

	"telemachus-gateway/internal/models"
)

// DefaultInterval период опроса по умолчанию
const DefaultInterval = time.Second

// Source возвращает текущее значение поля; false, если значения нет
type Source interface {
	Latest(ctx context.Context, field string) (models.Value, bool)
}

// Callback получает измерение поля. Вызывается из горутины подписки;
// не должен синхронно вызывать функцию отписки.
type Callback func(models.Sample)

// Poller опрашивает Source с фиксированным периодом
type Poller struct {
	source   Source
	interval time.Duration
	now      func() time.Time
}

// NewPoller создает Poller; interval <= 0 заменяется на DefaultInterval
func NewPoller(source Source, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{source: source, interval: interval, now: time.Now}
}

type subscription struct {
	mu        sync.Mutex
	cancelled bool
}

// Subscribe начинает опрос поля. Первый опрос выполняется через interval.
// Измерение получает метку времени начала опроса.
//
// После возврата из функции отписки callback больше не вызывается,
// в том числе для опросов, начатых до отписки.
func (p *Poller) Subscribe(field string, callback Callback) (unsubscribe func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscription{}

	go p.run(ctx, sub, field, callback)

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.mu.Lock()
			sub.cancelled = true
			sub.mu.Unlock()
			cancel()
		})
	}
}

func (p *Poller) run(ctx context.Context, sub *subscription, field string, callback Callback) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			started := p.now()
			value, ok := p.source.Latest(ctx, field)
			if !ok {
				continue
			}
			if !sub.deliver(callback, models.NewSample(started, value)) {
				return
			}
		}
	}
}

// deliver вызывает callback под блокировкой подписки, чтобы отписка
// дождалась текущего вызова
func (s *subscription) deliver(callback Callback, sample models.Sample) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled {
		return false
	}
	callback(sample)
	return true
}
