package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/annel0/chunk-mesher/internal/eventbus"
)

const (
	defaultNatsURL = "nats://127.0.0.1:4222"
	timeFormat     = "2006-01-02T15:04:05Z"
)

// Утилита для просмотра событий MeshRefreshed, которые мешер публикует в JetStream.
func main() {
	var (
		natsURL = flag.String("nats", defaultNatsURL, "NATS server URL")
		stream  = flag.String("stream", "MESHER", "JetStream stream name")
		sources = flag.String("sources", "", "Sources filter (comma-separated)")
		limit   = flag.Int("limit", 100, "Maximum number of events (0: без ограничения)")
		timeout = flag.Duration("timeout", 0, "Stop after duration (0: до сигнала)")
	)
	flag.Parse()

	bus, err := eventbus.NewJetStreamBus(*natsURL, *stream, 0)
	if err != nil {
		log.Fatalf("❌ Failed to connect to NATS: %v", err)
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	if err := tailEvents(ctx, bus, &TailOptions{
		Sources: parseStringList(*sources),
		Limit:   *limit,
	}, stop); err != nil {
		log.Fatalf("❌ Tail failed: %v", err)
	}
}

type TailOptions struct {
	Sources []string
	Limit   int
}

// tailEvents выводит события в реальном времени до лимита или отмены ctx
func tailEvents(ctx context.Context, bus eventbus.EventBus, opts *TailOptions, done func()) error {
	fmt.Printf("🎬 Tailing MeshRefreshed (limit: %d)\n", opts.Limit)

	var seen atomic.Int64
	sub, err := bus.Subscribe(ctx, eventbus.Filter{
		Types:   []string{eventbus.EventMeshRefreshed},
		Sources: opts.Sources,
	}, func(_ context.Context, ev *eventbus.Envelope) {
		n := seen.Add(1)
		if opts.Limit > 0 && n > int64(opts.Limit) {
			return
		}
		fmt.Fprintln(os.Stdout, formatEvent(ev))
		if opts.Limit > 0 && n == int64(opts.Limit) {
			done()
		}
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	fmt.Printf("📊 Received %d events\n", seen.Load())
	return nil
}

func formatEvent(ev *eventbus.Envelope) string {
	m, err := eventbus.DecodeMeshRefreshed(ev)
	if err != nil {
		return fmt.Sprintf("%s [%s] %s: bad payload: %v", ev.Timestamp.Format(timeFormat), ev.Source, ev.ID, err)
	}
	return fmt.Sprintf("%s [%s] chunk(%d,%d,%d) quads=%d v%d tick=%d",
		ev.Timestamp.UTC().Format(timeFormat), ev.Source, m.X, m.Y, m.Z, m.Quads, m.Version, m.TickID)
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
