package meshing

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Метрики планировщика:
// * mesher_chunks_meshed_total: counter
// * mesher_quads_emitted_total: counter
// * mesher_faces_culled_total: counter
// * mesher_ticks_total: counter
// * mesher_mesh_build_seconds: histogram
// * mesher_dirty_backlog: gauge (чанки, отложенные на следующие тики)
type metrics struct {
	chunksMeshed prometheus.Counter
	quadsEmitted prometheus.Counter
	facesCulled  prometheus.Counter
	ticks        prometheus.Counter
	buildSeconds prometheus.Histogram
	dirtyBacklog prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		chunksMeshed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mesher",
			Name:      "chunks_meshed_total",
			Help:      "Количество перестроенных мешей чанков.",
		}),
		quadsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mesher",
			Name:      "quads_emitted_total",
			Help:      "Количество выпущенных граней.",
		}),
		facesCulled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mesher",
			Name:      "faces_culled_total",
			Help:      "Количество скрытых граней.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mesher",
			Name:      "ticks_total",
			Help:      "Количество тиков планировщика.",
		}),
		buildSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mesher",
			Name:      "mesh_build_seconds",
			Help:      "Длительность сборки меша одного чанка.",
			Buckets:   []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		}),
		dirtyBacklog: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mesher",
			Name:      "dirty_backlog",
			Help:      "Грязные чанки, отложенные ограничением тика.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.chunksMeshed, m.quadsEmitted, m.facesCulled, m.ticks, m.buildSeconds, m.dirtyBacklog)
	}
	return m
}

func (m *metrics) observeIntent(in Intent) {
	m.chunksMeshed.Inc()
	m.quadsEmitted.Add(float64(in.Stats.Quads))
	m.facesCulled.Add(float64(in.Stats.Culled))
	m.buildSeconds.Observe(in.Elapsed.Seconds())
}
