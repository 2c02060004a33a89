// Package mirror передает записанные измерения во внешнее хранилище
// в фоновых горутинах, не задерживая обработку запросов
package mirror

import (
	"context"
	"hash/fnv"
	"log"
	"sync"
	"time"

	"telemachus-gateway/internal/metrics"
	"telemachus-gateway/internal/models"
)

// WriteTimeout ограничение на одну запись в хранилище
const WriteTimeout = 3 * time.Second

// Sink хранилище, принимающее измерения
type Sink interface {
	MirrorSample(ctx context.Context, field string, sample models.Sample) error
}

// Entry измерение поля, ожидающее записи
type Entry struct {
	Field  string
	Sample models.Sample
}

// Pipeline очередь измерений с пулом воркеров. Каждое поле закреплено
// за одним воркером, поэтому измерения поля пишутся в порядке поступления.
type Pipeline struct {
	sink     Sink
	queues   []chan Entry
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewPipeline создает numWorkers очередей, bufferSize измерений на все очереди
func NewPipeline(sink Sink, bufferSize, numWorkers int) *Pipeline {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	perQueue := (bufferSize + numWorkers - 1) / numWorkers
	if perQueue <= 0 {
		perQueue = 1
	}

	queues := make([]chan Entry, numWorkers)
	for i := range queues {
		queues[i] = make(chan Entry, perQueue)
	}
	return &Pipeline{
		sink:     sink,
		queues:   queues,
		stopChan: make(chan struct{}),
	}
}

// Start запускает по горутине на каждую очередь
func (p *Pipeline) Start() {
	for _, queue := range p.queues {
		p.wg.Add(1)
		go p.worker(queue)
	}
}

// worker горутина для записи измерений
func (p *Pipeline) worker(queue <-chan Entry) {
	defer p.wg.Done()
	for {
		select {
		case entry := <-queue:
			p.write(entry)
		case <-p.stopChan:
			return
		}
	}
}

// shard выбирает очередь поля
func (p *Pipeline) shard(field string) int {
	h := fnv.New32a()
	h.Write([]byte(field))
	return int(h.Sum32() % uint32(len(p.queues)))
}

func (p *Pipeline) write(entry Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), WriteTimeout)
	defer cancel()

	if err := p.sink.MirrorSample(ctx, entry.Field, entry.Sample); err != nil {
		metrics.MirrorErrors.Inc()
		log.Printf("Mirror write failed: %v", err)
	}
}

// Submit ставит измерение в очередь поля. Возвращает false, если очередь переполнена
// и измерение отброшено.
func (p *Pipeline) Submit(field string, sample models.Sample) bool {
	select {
	case p.queues[p.shard(field)] <- Entry{Field: field, Sample: sample}:
		metrics.MirrorQueued.Inc()
		return true
	default:
		metrics.MirrorDropped.Inc()
		return false
	}
}

// Stop останавливает воркеры. Измерения, оставшиеся в очереди, не записываются.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
	})
	p.wg.Wait()
}
