package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"telemachus-gateway/internal/models"
	"telemachus-gateway/internal/realtime"
)

// options параметры наблюдения
type options struct {
	Field    string
	Interval time.Duration
	Window   time.Duration
	Strategy string
	Size     int
	Count    int
}

// watch печатает историю поля, затем подписывается на новые значения.
// Возвращается после Count живых измерений или при отмене ctx.
func watch(ctx context.Context, client *realtime.Client, opts options, out io.Writer) error {
	if opts.Window > 0 {
		now := time.Now()
		req := models.QueryRequest{
			Start:    now.Add(-opts.Window).UnixMilli(),
			End:      now.UnixMilli(),
			Strategy: opts.Strategy,
			Size:     opts.Size,
		}
		for _, s := range client.Request(ctx, opts.Field, req) {
			printSample(out, opts.Field, s)
		}
	}

	samples := make(chan models.Sample, 16)
	unsubscribe := realtime.NewPoller(client, opts.Interval).Subscribe(opts.Field, func(s models.Sample) {
		select {
		case samples <- s:
		default:
		}
	})
	defer unsubscribe()

	for received := 0; opts.Count <= 0 || received < opts.Count; received++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s := <-samples:
			printSample(out, opts.Field, s)
		}
	}
	return nil
}

func printSample(out io.Writer, field string, s models.Sample) {
	ts := time.UnixMilli(s.Timestamp).UTC().Format(time.RFC3339Nano)
	fmt.Fprintf(out, "%s %s=%s\n", ts, field, s.Value)
}
