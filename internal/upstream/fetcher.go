// Package upstream получает текущие значения телеметрии из Telemachus datalink
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"telemachus-gateway/internal/metrics"
	"telemachus-gateway/internal/models"
)

const (
	// DefaultBaseURL адрес datalink по умолчанию
	DefaultBaseURL = "http://localhost:8085/telemachus/datalink"
	// DefaultTimeout ограничение на одно обращение к datalink
	DefaultTimeout = 3 * time.Second

	maxResponseBytes = 4 << 20
)

// Fetcher выполняет запросы к datalink
type Fetcher struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// NewFetcher создает клиента datalink. Пустой baseURL и нулевой timeout
// заменяются значениями по умолчанию; client может быть nil.
func NewFetcher(baseURL string, timeout time.Duration, client *http.Client) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Fetcher{
		baseURL: strings.TrimRight(baseURL, "?&"),
		timeout: timeout,
		client:  client,
	}
}

// BaseURL возвращает адрес datalink
func (f *Fetcher) BaseURL() string {
	return f.baseURL
}

// FetchLatest запрашивает текущие значения для алиасов из rawQuery.
// Строка запроса передается в datalink без изменений. Любая ошибка
// (сеть, таймаут, статус не 200, некорректный JSON) дает пустой результат.
func (f *Fetcher) FetchLatest(ctx context.Context, rawQuery string) map[string]models.Value {
	start := time.Now()
	data, result, err := f.fetch(ctx, rawQuery)
	metrics.UpstreamLatency.Observe(time.Since(start).Seconds())
	metrics.UpstreamFetches.WithLabelValues(result).Inc()

	if err != nil {
		log.Printf("Datalink fetch failed: %v", err)
		return map[string]models.Value{}
	}
	return data
}

// Ping проверяет доступность datalink пустым запросом
func (f *Fetcher) Ping(ctx context.Context) error {
	_, _, err := f.fetch(ctx, "")
	return err
}

// requestURL добавляет rawQuery к адресу datalink, который может уже содержать
// собственные параметры
func (f *Fetcher) requestURL(rawQuery string) string {
	if rawQuery == "" {
		return f.baseURL
	}
	if strings.Contains(f.baseURL, "?") {
		return f.baseURL + "&" + rawQuery
	}
	return f.baseURL + "?" + rawQuery
}

func (f *Fetcher) fetch(ctx context.Context, rawQuery string) (map[string]models.Value, string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.requestURL(rawQuery), nil)
	if err != nil {
		return nil, metrics.FetchError, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, metrics.FetchError, fmt.Errorf("failed to reach datalink: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, metrics.FetchBadStatus, fmt.Errorf("datalink responded with status %d", resp.StatusCode)
	}

	data := make(map[string]models.Value)
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&data); err != nil {
		return nil, metrics.FetchBadResponse, fmt.Errorf("failed to decode datalink response: %w", err)
	}
	if data == nil {
		// Ответ "null"
		data = make(map[string]models.Value)
	}

	return data, metrics.FetchOK, nil
}
