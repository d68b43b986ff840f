package eventbus

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollector_ExportsBusStats(t *testing.T) {
	bus := NewMemoryBus(8)
	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: EventMeshRefreshed}))
	}
	require.NoError(t, bus.Close())

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewMetricsCollector(bus)))

	expected := `
# HELP eventbus_messages_published_total Общее число опубликованных сообщений.
# TYPE eventbus_messages_published_total counter
eventbus_messages_published_total 3
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "eventbus_messages_published_total"))
}
