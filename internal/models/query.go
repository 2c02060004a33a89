package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// StrategyKind определяет способ сокращения выборки
type StrategyKind int

const (
	// StrategyNone возвращает отфильтрованную выборку целиком
	StrategyNone StrategyKind = iota
	// StrategyLatest возвращает последние Size измерений
	StrategyLatest
	// StrategyMinMax возвращает пару [min, max] по значению
	StrategyMinMax
	// StrategyUnrecognized неизвестная стратегия, ведет себя как StrategyNone
	StrategyUnrecognized
)

const (
	strategyLatestName = "latest"
	strategyMinMaxName = "minmax"
)

// Strategy описывает стратегию, разобранную из тела запроса.
// Size имеет смысл только для StrategyLatest, Name только для StrategyUnrecognized.
type Strategy struct {
	Kind StrategyKind
	Size int
	Name string
}

// NoStrategy стратегия без сокращения
func NoStrategy() Strategy { return Strategy{Kind: StrategyNone} }

// Latest стратегия последних size измерений
func Latest(size int) Strategy { return Strategy{Kind: StrategyLatest, Size: size} }

// MinMax стратегия минимума и максимума
func MinMax() Strategy { return Strategy{Kind: StrategyMinMax} }

// Unrecognized стратегия с неизвестным именем
func Unrecognized(name string) Strategy { return Strategy{Kind: StrategyUnrecognized, Name: name} }

// ParseStrategy сопоставляет имя стратегии с ее видом
func ParseStrategy(name string, size int) Strategy {
	switch name {
	case "":
		return NoStrategy()
	case strategyLatestName:
		return Latest(size)
	case strategyMinMaxName:
		return MinMax()
	default:
		return Unrecognized(name)
	}
}

func (s Strategy) String() string {
	switch s.Kind {
	case StrategyNone:
		return "none"
	case StrategyLatest:
		return fmt.Sprintf("%s(%d)", strategyLatestName, s.Size)
	case StrategyMinMax:
		return strategyMinMaxName
	default:
		return fmt.Sprintf("unrecognized(%q)", s.Name)
	}
}

// QuerySpec описывает запрос к истории поля: окно [Start, End] включительно и стратегию
type QuerySpec struct {
	Start    int64
	End      int64
	Strategy Strategy
}

// QueryRequest тело POST /history/{field} в том виде, в котором его отправляет клиент
type QueryRequest struct {
	Start    int64  `json:"start"`
	End      int64  `json:"end"`
	Strategy string `json:"strategy,omitempty"`
	Size     int    `json:"size,omitempty"`
}

// Spec переводит тело запроса в QuerySpec
func (q QueryRequest) Spec() QuerySpec {
	return QuerySpec{Start: q.Start, End: q.End, Strategy: ParseStrategy(q.Strategy, q.Size)}
}

// ErrEmptyQuery возвращается для пустого тела запроса
var ErrEmptyQuery = errors.New("empty query body")

// queryBody принимает любые JSON-типы, чтобы разбор не падал на числах с дробной частью
// или на нестроковой стратегии
type queryBody struct {
	Start    *float64        `json:"start"`
	End      *float64        `json:"end"`
	Strategy json.RawMessage `json:"strategy"`
	Size     *float64        `json:"size"`
}

// DecodeQuery разбирает тело запроса к истории. Тело может быть JSON-объектом
// или JSON-строкой, содержащей такой объект.
//
// Отсутствующая граница окна дает пустое окно: ни одно измерение в него не попадет.
func DecodeQuery(data []byte) (QuerySpec, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return QuerySpec{}, ErrEmptyQuery
	}

	if data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return QuerySpec{}, fmt.Errorf("invalid query string: %w", err)
		}
		data = bytes.TrimSpace([]byte(encoded))
		if len(data) == 0 {
			return QuerySpec{}, ErrEmptyQuery
		}
	}

	var body queryBody
	if err := json.Unmarshal(data, &body); err != nil {
		return QuerySpec{}, fmt.Errorf("invalid query body: %w", err)
	}

	spec := QuerySpec{Start: math.MaxInt64, End: math.MinInt64}
	if body.Start != nil && body.End != nil {
		spec.Start = lowerBound(*body.Start)
		spec.End = upperBound(*body.End)
	}

	size := 0
	if body.Size != nil {
		size = clampInt(*body.Size)
	}
	spec.Strategy = decodeStrategy(body.Strategy, size)

	return spec, nil
}

func decodeStrategy(raw json.RawMessage, size int) Strategy {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) || bytes.Equal(raw, jsonFalse) {
		return NoStrategy()
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		f, isNumber := RawValue(raw).Float()
		if isNumber && f == 0 {
			return NoStrategy()
		}
		return Unrecognized(string(raw))
	}
	return ParseStrategy(name, size)
}

// lowerBound переводит дробную нижнюю границу в целые миллисекунды без потери включительности
func lowerBound(f float64) int64 {
	return clampInt64(math.Ceil(f))
}

func upperBound(f float64) int64 {
	return clampInt64(math.Floor(f))
}

func clampInt64(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

func clampInt(f float64) int {
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	}
	return int(f)
}
