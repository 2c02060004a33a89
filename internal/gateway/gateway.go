// Package gateway связывает datalink, историю и выполнение запросов.
// Все операции деградируют до пустого результата вместо ошибки.
package gateway

import (
	"context"
	"log"
	"net/url"
	"time"

	"telemachus-gateway/internal/history"
	"telemachus-gateway/internal/metrics"
	"telemachus-gateway/internal/models"
	"telemachus-gateway/internal/query"
)

// streamAlias алиас, под которым Latest запрашивает одно поле
const streamAlias = "a0"

// Fetcher получает текущие значения из datalink. Ошибки поглощаются: при сбое
// возвращается пустой результат.
type Fetcher interface {
	FetchLatest(ctx context.Context, rawQuery string) map[string]models.Value
}

// Mirror принимает записанные измерения для внешнего хранилища
type Mirror interface {
	Submit(field string, sample models.Sample) bool
}

// Gateway обслуживает запросы последних значений и истории
type Gateway struct {
	fetcher Fetcher
	store   *history.Store
	mirror  Mirror
	now     func() time.Time
}

// New создает Gateway; mirror может быть nil
func New(fetcher Fetcher, store *history.Store, mirror Mirror) *Gateway {
	return &Gateway{
		fetcher: fetcher,
		store:   store,
		mirror:  mirror,
		now:     time.Now,
	}
}

// WithClock подменяет источник времени
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	return g
}

// Store возвращает хранилище истории
func (g *Gateway) Store() *history.Store {
	return g.store
}

// GetLatest запрашивает datalink с алиасами из rawQuery и записывает каждое
// полученное значение в историю поля, сопоставленного алиасу. Все измерения
// одного запроса получают метку времени начала запроса.
//
// Возвращает ответ datalink без изменений, включая алиасы без поля.
func (g *Gateway) GetLatest(ctx context.Context, rawQuery string) map[string]models.Value {
	aliases := models.ParseAliasMap(rawQuery)
	now := g.now()

	data := g.fetcher.FetchLatest(ctx, rawQuery)
	if data == nil {
		return map[string]models.Value{}
	}

	for alias, value := range data {
		field, ok := aliases.Resolve(alias)
		if !ok {
			metrics.UnresolvedAliases.Inc()
			continue
		}
		g.record(field, models.NewSample(now, value))
	}

	return data
}

func (g *Gateway) record(field string, sample models.Sample) {
	if g.store.Append(field, sample) {
		metrics.SamplesEvicted.Inc()
	}
	metrics.SamplesAppended.Inc()

	if g.mirror != nil {
		g.mirror.Submit(field, sample)
	}
}

// Latest запрашивает одно поле и возвращает его значение. Значение
// записывается в историю так же, как при GetLatest. Отсутствующее
// значение и null дают false.
func (g *Gateway) Latest(ctx context.Context, field string) (models.Value, bool) {
	q := url.Values{streamAlias: []string{field}}
	data := g.GetLatest(ctx, q.Encode())
	v, ok := data[streamAlias]
	if !ok || v.IsNull() {
		return models.Value{}, false
	}
	return v, true
}

// GetHistory возвращает всю хранимую историю поля
func (g *Gateway) GetHistory(field string) []models.Sample {
	return g.store.Read(field)
}

// QueryHistory выполняет запрос к истории поля. Сбой при выполнении дает пустой результат.
func (g *Gateway) QueryHistory(field string, spec models.QuerySpec) (result []models.Sample) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("History query for %s failed: %v", field, r)
			result = []models.Sample{}
		}
	}()

	return query.Evaluate(g.store.Read(field), spec)
}
