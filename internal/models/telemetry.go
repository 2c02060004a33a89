package models

import (
	"net/url"
	"time"
)

// Sample представляет одно измерение поля телеметрии
type Sample struct {
	Timestamp int64 `json:"timestamp"` // epoch, миллисекунды
	Value     Value `json:"value"`
}

// NewSample создает измерение с временной меткой t
func NewSample(t time.Time, v Value) Sample {
	return Sample{Timestamp: t.UnixMilli(), Value: v}
}

// AliasMap сопоставляет алиас запроса к Telemachus (например "a0") с идентификатором поля
type AliasMap map[string]string

// ParseAliasMap разбирает строку запроса /latest в AliasMap.
// Для повторяющегося алиаса используется первое значение.
func ParseAliasMap(rawQuery string) AliasMap {
	values, err := url.ParseQuery(rawQuery)
	if err != nil && len(values) == 0 {
		return AliasMap{}
	}
	aliases := make(AliasMap, len(values))
	for alias, fields := range values {
		if len(fields) > 0 {
			aliases[alias] = fields[0]
		}
	}
	return aliases
}

// Resolve возвращает поле для алиаса; пустое поле не считается сопоставленным
func (m AliasMap) Resolve(alias string) (string, bool) {
	field, ok := m[alias]
	if !ok || field == "" {
		return "", false
	}
	return field, true
}

// HealthStatus представляет статус здоровья сервиса
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Redis     string    `json:"redis"`
	Upstream  string    `json:"upstream"`
	Uptime    string    `json:"uptime"`
}

// StatsResponse содержит статистику хранилища истории
type StatsResponse struct {
	Fields        int      `json:"fields"`
	Samples       int      `json:"samples"`
	MaxHistory    int      `json:"max_history"`
	MirroredTotal int64    `json:"mirrored_total"`
	ActiveStreams int      `json:"active_streams"`
	TrackedFields []string `json:"tracked_fields"`
}
