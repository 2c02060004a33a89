// Package query выполняет запросы к истории поля: фильтрацию по окну времени
// и сокращение выборки по стратегии
package query

import "telemachus-gateway/internal/models"

// Evaluate фильтрует history по окну [spec.Start, spec.End] и применяет стратегию.
// Результат никогда не равен nil; пустое окно дает пустой срез при любой стратегии.
func Evaluate(history []models.Sample, spec models.QuerySpec) []models.Sample {
	filtered := Filter(history, spec.Start, spec.End)
	if len(filtered) == 0 {
		return filtered
	}

	switch spec.Strategy.Kind {
	case models.StrategyLatest:
		return LatestN(filtered, spec.Strategy.Size)
	case models.StrategyMinMax:
		return MinMax(filtered)
	default:
		// StrategyNone и неизвестные стратегии возвращают окно без изменений
		return filtered
	}
}

// Filter возвращает измерения с start <= timestamp <= end в исходном порядке
func Filter(history []models.Sample, start, end int64) []models.Sample {
	out := make([]models.Sample, 0)
	if start > end {
		return out
	}
	for _, s := range history {
		if s.Timestamp >= start && s.Timestamp <= end {
			out = append(out, s)
		}
	}
	return out
}

// LatestN возвращает последние size измерений; size меньше 1 считается равным 1
func LatestN(samples []models.Sample, size int) []models.Sample {
	if size < 1 {
		size = 1
	}
	if size > len(samples) {
		size = len(samples)
	}
	return samples[len(samples)-size:]
}

// MinMax возвращает [min, max] по значению. При равенстве побеждает первое измерение.
// Значения, которые нельзя сравнить, не вытесняют текущие min и max.
func MinMax(samples []models.Sample) []models.Sample {
	if len(samples) == 0 {
		return []models.Sample{}
	}

	minIdx, maxIdx := 0, 0
	minVal, minOK := samples[0].Value.Float()
	maxVal, maxOK := minVal, minOK

	for i := 1; i < len(samples); i++ {
		v, ok := samples[i].Value.Float()
		if !ok {
			continue
		}
		if !minOK || v < minVal {
			minIdx, minVal, minOK = i, v, true
		}
		if !maxOK || v > maxVal {
			maxIdx, maxVal, maxOK = i, v, true
		}
	}

	return []models.Sample{samples[minIdx], samples[maxIdx]}
}
