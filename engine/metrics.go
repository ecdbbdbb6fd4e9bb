package engine

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/VanDung-dev/parquet-core/pqerr"
)

// Metrics holds the Prometheus collectors of readers and writers. A nil
// *Metrics records nothing.
type Metrics struct {
	// Write metrics
	RowsWritten      prometheus.Counter
	RowGroupsWritten prometheus.Counter
	RowGroupRows     prometheus.Histogram
	FlushLatency     prometheus.Histogram
	WriteErrors      *prometheus.CounterVec

	// Read metrics
	RowsRead        prometheus.Counter
	BatchesRead     prometheus.Counter
	ReadErrors      *prometheus.CounterVec
	ActiveIterators prometheus.Gauge
}

// NewMetrics registers the collectors with reg under namespace. A nil reg
// leaves them unregistered.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RowsWritten: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Total number of rows accepted by writers",
		}),
		RowGroupsWritten: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "row_groups_written_total",
			Help:      "Total number of row groups flushed",
		}),
		RowGroupRows: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "row_group_rows",
			Help:      "Number of rows per flushed row group",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		FlushLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_latency_seconds",
			Help:      "Row group encode and flush latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		WriteErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_errors_total",
			Help:      "Writer failures by error kind",
		}, []string{"kind"}),

		RowsRead: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Total number of rows decoded by readers",
		}),
		BatchesRead: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_read_total",
			Help:      "Total number of column batches decoded",
		}),
		ReadErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_errors_total",
			Help:      "Reader failures by error kind",
		}, []string{"kind"}),
		ActiveIterators: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_iterators",
			Help:      "Number of open row and column iterators",
		}),
	}
}

func (m *Metrics) recordRows(n int) {
	if m != nil {
		m.RowsWritten.Add(float64(n))
	}
}

func (m *Metrics) recordFlush(rows int, d time.Duration) {
	if m == nil {
		return
	}
	m.RowGroupsWritten.Inc()
	m.RowGroupRows.Observe(float64(rows))
	m.FlushLatency.Observe(d.Seconds())
}

func (m *Metrics) recordWriteError(err error) {
	if m != nil {
		m.WriteErrors.WithLabelValues(pqerr.KindOf(err).String()).Inc()
	}
}

func (m *Metrics) recordBatch(rows int) {
	if m == nil {
		return
	}
	m.BatchesRead.Inc()
	m.RowsRead.Add(float64(rows))
}

func (m *Metrics) recordReadError(err error) {
	if m != nil {
		m.ReadErrors.WithLabelValues(pqerr.KindOf(err).String()).Inc()
	}
}

func (m *Metrics) iteratorOpened() {
	if m != nil {
		m.ActiveIterators.Inc()
	}
}

func (m *Metrics) iteratorClosed() {
	if m != nil {
		m.ActiveIterators.Dec()
	}
}

// MetricsServer runs an HTTP server exposing /metrics.
type MetricsServer struct {
	server *http.Server
}

// NewMetricsServer serves the metrics gathered by g on addr.
func NewMetricsServer(addr string, g prometheus.Gatherer) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return &MetricsServer{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// StartAsync starts the metrics server in a goroutine.
func (s *MetricsServer) StartAsync() {
	go func() {
		_ = s.server.ListenAndServe()
	}()
}

// Handler returns the server's handler.
func (s *MetricsServer) Handler() http.Handler { return s.server.Handler }

// Stop stops the metrics server.
func (s *MetricsServer) Stop() error {
	return s.server.Close()
}
