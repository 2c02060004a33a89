// Package history реализует ограниченное хранилище истории телеметрии в памяти.
// Для каждого поля хранится кольцевой буфер не длиннее maxHistory измерений;
// при переполнении вытесняется самое старое измерение.
package history

import (
	"sort"
	"sync"

	"telemachus-gateway/internal/models"
)

// DefaultMaxHistory размер истории поля по умолчанию
const DefaultMaxHistory = 1000

// Store хранит историю всех полей. Безопасен для конкурентного использования.
//
// Количество полей не ограничено, ограничена только длина истории каждого поля.
type Store struct {
	mu         sync.RWMutex
	fields     map[string]*RingBuffer
	maxHistory int
}

// New создает хранилище; maxHistory <= 0 заменяется на DefaultMaxHistory
func New(maxHistory int) *Store {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Store{
		fields:     make(map[string]*RingBuffer),
		maxHistory: maxHistory,
	}
}

// MaxHistory возвращает максимальную длину истории поля
func (s *Store) MaxHistory() int {
	return s.maxHistory
}

// Append добавляет измерение в историю поля, создавая ее при первой записи.
// Возвращает true, если при этом было вытеснено самое старое измерение.
func (s *Store) Append(field string, sample models.Sample) bool {
	return s.buffer(field).Add(sample)
}

// Read возвращает копию истории поля в порядке добавления.
// Для неизвестного поля возвращается пустой срез.
func (s *Store) Read(field string) []models.Sample {
	s.mu.RLock()
	rb, ok := s.fields[field]
	s.mu.RUnlock()

	if !ok {
		return []models.Sample{}
	}
	return rb.Snapshot()
}

// Len возвращает текущую длину истории поля
func (s *Store) Len(field string) int {
	s.mu.RLock()
	rb, ok := s.fields[field]
	s.mu.RUnlock()

	if !ok {
		return 0
	}
	return rb.Count()
}

// Summary возвращает сводку по истории поля; false для неизвестного поля
func (s *Store) Summary(field string) (Summary, bool) {
	s.mu.RLock()
	rb, ok := s.fields[field]
	s.mu.RUnlock()

	if !ok {
		return Summary{}, false
	}
	return rb.Summary(), true
}

// Fields возвращает отсортированный список полей, для которых есть история
func (s *Store) Fields() []string {
	s.mu.RLock()
	fields := make([]string, 0, len(s.fields))
	for field := range s.fields {
		fields = append(fields, field)
	}
	s.mu.RUnlock()

	sort.Strings(fields)
	return fields
}

// Stats возвращает количество полей и общее количество хранимых измерений
func (s *Store) Stats() (fields, samples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rb := range s.fields {
		samples += rb.Count()
	}
	return len(s.fields), samples
}

// buffer возвращает буфер поля, создавая его при необходимости
func (s *Store) buffer(field string) *RingBuffer {
	s.mu.RLock()
	rb, ok := s.fields[field]
	s.mu.RUnlock()
	if ok {
		return rb
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Другой писатель мог создать буфер, пока блокировка была отпущена
	if rb, ok = s.fields[field]; ok {
		return rb
	}
	rb = NewRingBuffer(s.maxHistory)
	s.fields[field] = rb
	return rb
}
