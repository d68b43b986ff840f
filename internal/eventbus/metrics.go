package eventbus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector экспортирует Stats шины в Prometheus.
// Значения читаются из bus.Metrics() в момент сбора, без фонового опроса.
type MetricsCollector struct {
	bus EventBus

	published *prometheus.Desc
	consumed  *prometheus.Desc
	dropped   *prometheus.Desc
	inflight  *prometheus.Desc
}

// NewMetricsCollector создаёт коллектор для шины
func NewMetricsCollector(bus EventBus) *MetricsCollector {
	return &MetricsCollector{
		bus: bus,
		published: prometheus.NewDesc("eventbus_messages_published_total",
			"Общее число опубликованных сообщений.", nil, nil),
		consumed: prometheus.NewDesc("eventbus_messages_consumed_total",
			"Общее число доставленных сообщений подписчикам.", nil, nil),
		dropped: prometheus.NewDesc("eventbus_messages_dropped_total",
			"Сообщений, отброшенных из-за ошибок или ограничения back-pressure.", nil, nil),
		inflight: prometheus.NewDesc("eventbus_messages_inflight",
			"Количество сообщений, находящихся в очереди (не доставленных).", nil, nil),
	}
}

// Describe реализует prometheus.Collector
func (m *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.published
	ch <- m.consumed
	ch <- m.dropped
	ch <- m.inflight
}

// Collect реализует prometheus.Collector
func (m *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	s := m.bus.Metrics()
	ch <- prometheus.MustNewConstMetric(m.published, prometheus.CounterValue, float64(s.Published))
	ch <- prometheus.MustNewConstMetric(m.consumed, prometheus.CounterValue, float64(s.Consumed))
	ch <- prometheus.MustNewConstMetric(m.dropped, prometheus.CounterValue, float64(s.Dropped))
	ch <- prometheus.MustNewConstMetric(m.inflight, prometheus.GaugeValue, float64(s.InFlight))
}
