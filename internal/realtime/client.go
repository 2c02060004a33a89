package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"telemachus-gateway/internal/models"
)

const clientAlias = "a0"

// Client обращается к HTTP API шлюза так же, как провайдер телеметрии визуализации:
// последние значения через GET /latest, история через POST /history/{field}
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient создает клиента для шлюза, смонтированного по адресу baseURL
// (например http://localhost:8080/proxy/telemachus)
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Latest запрашивает текущее значение поля. Ответ без значения или
// любая ошибка дают false.
func (c *Client) Latest(ctx context.Context, field string) (models.Value, bool) {
	q := url.Values{clientAlias: []string{field}}

	data := make(map[string]models.Value)
	if err := c.do(ctx, http.MethodGet, "/latest?"+q.Encode(), nil, &data); err != nil {
		log.Printf("Latest %s failed: %v", field, err)
		return models.Value{}, false
	}

	v, ok := data[clientAlias]
	if !ok || v.IsNull() {
		return models.Value{}, false
	}
	return v, true
}

// Request запрашивает историю поля и возвращает ответ без изменений.
// При ошибке возвращается пустой срез.
func (c *Client) Request(ctx context.Context, field string, req models.QueryRequest) []models.Sample {
	body, err := json.Marshal(req)
	if err != nil {
		return []models.Sample{}
	}

	var samples []models.Sample
	if err := c.do(ctx, http.MethodPost, "/history/"+url.PathEscape(field), body, &samples); err != nil {
		log.Printf("History request for %s failed: %v", field, err)
		return []models.Sample{}
	}
	if samples == nil {
		return []models.Sample{}
	}
	return samples
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
