package history

import (
	"math"
	"sync"

	"telemachus-gateway/internal/models"
)

// RingBuffer хранит последние size измерений одного поля.
// Попутно ведет сумму и сумму квадратов числовых значений для сводки по окну.
type RingBuffer struct {
	mu      sync.RWMutex
	samples []models.Sample
	size    int
	index   int // позиция самого старого измерения после заполнения буфера
	numeric int
	sum     float64
	sumSq   float64
}

// Summary сводка по текущему окну истории поля
type Summary struct {
	Count   int     `json:"count"`
	Numeric int     `json:"numeric"`
	First   int64   `json:"first"`
	Last    int64   `json:"last"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
}

// NewRingBuffer создает буфер заданного размера. Память под измерения
// выделяется по мере записи, а не сразу.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultMaxHistory
	}
	return &RingBuffer{size: size}
}

// Add добавляет измерение и возвращает true, если было вытеснено старое
func (rb *RingBuffer) Add(sample models.Sample) bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if len(rb.samples) < rb.size {
		rb.samples = append(rb.samples, sample)
		rb.track(sample.Value, 1)
		return false
	}

	// Удаляем старое значение из статистики
	rb.track(rb.samples[rb.index].Value, -1)
	rb.samples[rb.index] = sample
	rb.track(sample.Value, 1)
	rb.index = (rb.index + 1) % rb.size
	return true
}

func (rb *RingBuffer) track(v models.Value, sign float64) {
	f, ok := v.Float()
	if !ok {
		return
	}
	rb.numeric += int(sign)
	rb.sum += sign * f
	rb.sumSq += sign * f * f
}

// Snapshot возвращает копию измерений от старого к новому
func (rb *RingBuffer) Snapshot() []models.Sample {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	out := make([]models.Sample, len(rb.samples))
	n := copy(out, rb.samples[rb.index:])
	copy(out[n:], rb.samples[:rb.index])
	return out
}

// Count возвращает количество измерений в буфере
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return len(rb.samples)
}

// Summary возвращает сводку по окну. Среднее и отклонение считаются
// только по числовым и булевым значениям.
func (rb *RingBuffer) Summary() Summary {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	s := Summary{Count: len(rb.samples), Numeric: rb.numeric}
	if len(rb.samples) == 0 {
		return s
	}
	s.First = rb.samples[rb.index].Timestamp
	s.Last = rb.samples[(rb.index+len(rb.samples)-1)%len(rb.samples)].Timestamp

	if rb.numeric > 0 {
		s.Mean = rb.sum / float64(rb.numeric)
	}
	if rb.numeric >= 2 {
		n := float64(rb.numeric)
		variance := (rb.sumSq - (rb.sum*rb.sum)/n) / (n - 1)
		if variance < 0 {
			variance = 0
		}
		s.StdDev = math.Sqrt(variance)
	}
	return s
}
