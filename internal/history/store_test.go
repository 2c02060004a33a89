package history

import (
	"math"
	"reflect"
	"sync"
	"testing"

	"telemachus-gateway/internal/models"
)

func sample(ts int64, v float64) models.Sample {
	return models.Sample{Timestamp: ts, Value: models.NumberValue(v)}
}

func TestStore_ReadUnseenField(t *testing.T) {
	store := New(10)

	got := store.Read("unseen")
	if got == nil || len(got) != 0 {
		t.Fatalf("Expected empty non-nil slice, got %#v", got)
	}
	if store.Len("unseen") != 0 {
		t.Errorf("Expected length 0, got %d", store.Len("unseen"))
	}
	if _, ok := store.Summary("unseen"); ok {
		t.Error("Summary should report unknown field")
	}
}

func TestStore_DefaultMaxHistory(t *testing.T) {
	if got := New(0).MaxHistory(); got != DefaultMaxHistory {
		t.Errorf("Expected default max history %d, got %d", DefaultMaxHistory, got)
	}
	if got := New(-5).MaxHistory(); got != DefaultMaxHistory {
		t.Errorf("Expected default max history %d, got %d", DefaultMaxHistory, got)
	}
}

func TestStore_AppendWithinBound(t *testing.T) {
	store := New(5)

	for i := int64(1); i <= 3; i++ {
		if evicted := store.Append("v.altitude", sample(i, float64(i*10))); evicted {
			t.Errorf("Append %d should not evict", i)
		}
	}

	want := []models.Sample{sample(1, 10), sample(2, 20), sample(3, 30)}
	if got := store.Read("v.altitude"); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestStore_BoundedRetention(t *testing.T) {
	const maxHistory = 4
	store := New(maxHistory)

	// Push 3 more than the bound, oldest must be evicted in FIFO order
	evictions := 0
	for i := int64(1); i <= maxHistory+3; i++ {
		if store.Append("v.altitude", sample(i, float64(i))) {
			evictions++
		}
	}

	if evictions != 3 {
		t.Errorf("Expected 3 evictions, got %d", evictions)
	}

	got := store.Read("v.altitude")
	want := []models.Sample{sample(4, 4), sample(5, 5), sample(6, 6), sample(7, 7)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestStore_FieldsAreIndependent(t *testing.T) {
	store := New(2)

	store.Append("a", sample(1, 1))
	store.Append("a", sample(2, 2))
	store.Append("a", sample(3, 3))
	store.Append("b", sample(1, 100))

	if store.Len("a") != 2 || store.Len("b") != 1 {
		t.Errorf("Unexpected lengths a=%d b=%d", store.Len("a"), store.Len("b"))
	}

	if got := store.Fields(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Expected fields [a b], got %v", got)
	}

	fields, samples := store.Stats()
	if fields != 2 || samples != 3 {
		t.Errorf("Expected stats 2/3, got %d/%d", fields, samples)
	}
}

func TestStore_ReadReturnsCopy(t *testing.T) {
	store := New(3)
	store.Append("f", sample(1, 1))

	snapshot := store.Read("f")
	snapshot[0] = sample(99, 99)
	store.Append("f", sample(2, 2))

	got := store.Read("f")
	want := []models.Sample{sample(1, 1), sample(2, 2)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Store was modified through snapshot: %v", got)
	}
}

func TestStore_ConcurrentAppend(t *testing.T) {
	tests := []struct {
		name       string
		appenders  int
		maxHistory int
	}{
		{"below bound", 50, 100},
		{"above bound", 500, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := New(tt.maxHistory)

			var wg sync.WaitGroup
			for i := 0; i < tt.appenders; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					store.Append("shared", sample(int64(i), float64(i)))
				}(i)
			}
			wg.Wait()

			got := store.Read("shared")
			want := tt.appenders
			if want > tt.maxHistory {
				want = tt.maxHistory
			}
			if len(got) != want {
				t.Fatalf("Expected %d samples, got %d", want, len(got))
			}

			seen := make(map[int64]bool, len(got))
			for _, s := range got {
				if seen[s.Timestamp] {
					t.Fatalf("Duplicated sample %d", s.Timestamp)
				}
				seen[s.Timestamp] = true
			}
		})
	}
}

func TestStore_ConcurrentReadWrite(t *testing.T) {
	store := New(50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := int64(0); i < 2000; i++ {
			store.Append("f", sample(i, float64(i)))
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
		}
		snapshot := store.Read("f")
		if len(snapshot) > 50 {
			t.Fatalf("Snapshot exceeds bound: %d", len(snapshot))
		}
		// Single writer appends increasing timestamps, so every snapshot is ordered
		for i := 1; i < len(snapshot); i++ {
			if snapshot[i].Timestamp != snapshot[i-1].Timestamp+1 {
				t.Fatalf("Torn snapshot at %d: %v", i, snapshot)
			}
		}
	}
}

func TestRingBuffer_Summary(t *testing.T) {
	rb := NewRingBuffer(3)

	rb.Add(sample(1, 10))
	rb.Add(sample(2, 20))
	rb.Add(models.Sample{Timestamp: 3, Value: models.RawValue([]byte(`"Kerbin"`))})

	s := rb.Summary()
	if s.Count != 3 || s.Numeric != 2 {
		t.Fatalf("Expected count 3 numeric 2, got %+v", s)
	}
	if s.First != 1 || s.Last != 3 {
		t.Errorf("Expected first 1 last 3, got %d %d", s.First, s.Last)
	}
	if math.Abs(s.Mean-15) > 0.001 {
		t.Errorf("Expected mean 15, got %.2f", s.Mean)
	}

	// Push out 10, window becomes [20, "Kerbin", 40]
	rb.Add(sample(4, 40))
	s = rb.Summary()
	if s.First != 2 || s.Last != 4 {
		t.Errorf("Expected first 2 last 4, got %d %d", s.First, s.Last)
	}
	if math.Abs(s.Mean-30) > 0.001 {
		t.Errorf("Expected mean 30, got %.2f", s.Mean)
	}
	if math.Abs(s.StdDev-math.Sqrt(200)) > 0.001 {
		t.Errorf("Expected stddev %.3f, got %.3f", math.Sqrt(200), s.StdDev)
	}
}

func TestRingBuffer_SummaryBooleans(t *testing.T) {
	rb := NewRingBuffer(4)
	rb.Add(models.Sample{Timestamp: 1, Value: models.BoolValue(true)})
	rb.Add(models.Sample{Timestamp: 2, Value: models.BoolValue(false)})

	s := rb.Summary()
	if s.Numeric != 2 || math.Abs(s.Mean-0.5) > 0.001 {
		t.Errorf("Expected booleans to count as 0/1, got %+v", s)
	}
}

func BenchmarkStoreAppend(b *testing.B) {
	store := New(DefaultMaxHistory)
	s := sample(1, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.Append("v.altitude", s)
	}
}

func BenchmarkStoreRead(b *testing.B) {
	store := New(DefaultMaxHistory)
	for i := 0; i < DefaultMaxHistory; i++ {
		store.Append("v.altitude", sample(int64(i), float64(i)))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.Read("v.altitude")
	}
}
