package query

import (
	"reflect"
	"testing"

	"telemachus-gateway/internal/models"
)

func s(ts int64, v float64) models.Sample {
	return models.Sample{Timestamp: ts, Value: models.NumberValue(v)}
}

func TestEvaluate(t *testing.T) {
	linear := []models.Sample{s(1, 1), s(2, 2), s(3, 3)}
	peaks := []models.Sample{s(1, 5), s(2, 1), s(3, 9)}

	tests := []struct {
		name    string
		history []models.Sample
		spec    models.QuerySpec
		want    []models.Sample
	}{
		{
			name:    "range filter",
			history: linear,
			spec:    models.QuerySpec{Start: 2, End: 3},
			want:    []models.Sample{s(2, 2), s(3, 3)},
		},
		{
			name:    "range is inclusive on both ends",
			history: linear,
			spec:    models.QuerySpec{Start: 1, End: 3},
			want:    linear,
		},
		{
			name:    "latest with size",
			history: linear,
			spec:    models.QuerySpec{Start: 1, End: 3, Strategy: models.Latest(2)},
			want:    []models.Sample{s(2, 2), s(3, 3)},
		},
		{
			name:    "latest without size defaults to one",
			history: linear,
			spec:    models.QuerySpec{Start: 1, End: 3, Strategy: models.Latest(0)},
			want:    []models.Sample{s(3, 3)},
		},
		{
			name:    "latest with negative size",
			history: linear,
			spec:    models.QuerySpec{Start: 1, End: 3, Strategy: models.Latest(-4)},
			want:    []models.Sample{s(3, 3)},
		},
		{
			name:    "latest larger than window",
			history: linear,
			spec:    models.QuerySpec{Start: 2, End: 3, Strategy: models.Latest(10)},
			want:    []models.Sample{s(2, 2), s(3, 3)},
		},
		{
			name:    "minmax compares values not timestamps",
			history: peaks,
			spec:    models.QuerySpec{Start: 1, End: 3, Strategy: models.MinMax()},
			want:    []models.Sample{s(2, 1), s(3, 9)},
		},
		{
			name:    "minmax single sample",
			history: peaks,
			spec:    models.QuerySpec{Start: 3, End: 3, Strategy: models.MinMax()},
			want:    []models.Sample{s(3, 9), s(3, 9)},
		},
		{
			name:    "minmax ties keep first occurrence",
			history: []models.Sample{s(1, 4), s(2, 4), s(3, 7), s(4, 7)},
			spec:    models.QuerySpec{Start: 0, End: 10, Strategy: models.MinMax()},
			want:    []models.Sample{s(1, 4), s(3, 7)},
		},
		{
			name:    "unrecognized strategy passes through",
			history: linear,
			spec:    models.QuerySpec{Start: 1, End: 2, Strategy: models.Unrecognized("average")},
			want:    []models.Sample{s(1, 1), s(2, 2)},
		},
		{
			name:    "empty window",
			history: linear,
			spec:    models.QuerySpec{Start: 100, End: 200},
			want:    []models.Sample{},
		},
		{
			name:    "empty window ignores strategy",
			history: linear,
			spec:    models.QuerySpec{Start: 100, End: 200, Strategy: models.MinMax()},
			want:    []models.Sample{},
		},
		{
			name:    "start after end",
			history: linear,
			spec:    models.QuerySpec{Start: 3, End: 1, Strategy: models.Latest(1)},
			want:    []models.Sample{},
		},
		{
			name:    "empty history",
			history: []models.Sample{},
			spec:    models.QuerySpec{Start: 0, End: 10},
			want:    []models.Sample{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.history, tt.spec)
			if got == nil {
				t.Fatal("Evaluate returned nil")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMinMax_MixedValues(t *testing.T) {
	kerbin := models.Sample{Timestamp: 1, Value: models.RawValue([]byte(`"Kerbin"`))}
	off := models.Sample{Timestamp: 2, Value: models.BoolValue(false)}
	on := models.Sample{Timestamp: 3, Value: models.BoolValue(true)}

	got := MinMax([]models.Sample{kerbin, on, off})
	want := []models.Sample{off, on}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	// Nothing comparable: the first sample stands for both ends
	got = MinMax([]models.Sample{kerbin})
	if !reflect.DeepEqual(got, []models.Sample{kerbin, kerbin}) {
		t.Errorf("Expected [kerbin kerbin], got %v", got)
	}
}

func TestEvaluate_DoesNotModifyHistory(t *testing.T) {
	history := []models.Sample{s(1, 3), s(2, 1), s(3, 2)}
	original := append([]models.Sample(nil), history...)

	Evaluate(history, models.QuerySpec{Start: 1, End: 3, Strategy: models.MinMax()})
	Evaluate(history, models.QuerySpec{Start: 1, End: 3, Strategy: models.Latest(2)})

	if !reflect.DeepEqual(history, original) {
		t.Errorf("History was modified: %v", history)
	}
}

func BenchmarkEvaluateMinMax(b *testing.B) {
	history := make([]models.Sample, 1000)
	for i := range history {
		history[i] = s(int64(i), float64(i%97))
	}
	spec := models.QuerySpec{Start: 0, End: 1000, Strategy: models.MinMax()}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Evaluate(history, spec)
	}
}
