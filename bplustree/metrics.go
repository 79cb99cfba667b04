package bplus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the prometheus collectors of one index. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	NodesWritten      prometheus.Counter
	LeavesWritten     prometheus.Counter
	BytesWritten      prometheus.Counter
	NodesRead         prometheus.Counter
	Evictions         prometheus.Counter
	WriteBackFailures prometheus.Counter
	RetentionQueueLen prometheus.Gauge
	DistinctOnQueue   prometheus.Gauge
}

// NewMetrics creates the collectors for the named index and registers them
// on reg when it is not nil.
func NewMetrics(reg prometheus.Registerer, index string) (*Metrics, error) {
	labels := prometheus.Labels{"index": index}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "stratum",
			Subsystem:   "btree",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "stratum",
			Subsystem:   "btree",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}

	m := &Metrics{
		NodesWritten:      counter("nodes_written_total", "Internal nodes written to the store."),
		LeavesWritten:     counter("leaves_written_total", "Leaves written to the store."),
		BytesWritten:      counter("bytes_written_total", "Encoded bytes written to the store."),
		NodesRead:         counter("nodes_read_total", "Nodes and leaves decoded from the store."),
		Evictions:         counter("evictions_total", "Nodes whose reference count dropped to zero on eviction."),
		WriteBackFailures: counter("write_back_failures_total", "Failed write-backs that poisoned the tree."),
		RetentionQueueLen: gauge("retention_queue_len", "Entries on the retention queue."),
		DistinctOnQueue:   gauge("retention_queue_distinct", "Distinct nodes referenced by the retention queue."),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{
			m.NodesWritten, m.LeavesWritten, m.BytesWritten, m.NodesRead,
			m.Evictions, m.WriteBackFailures, m.RetentionQueueLen, m.DistinctOnQueue,
		} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) written(kind NodeKind, size int) {
	if m == nil {
		return
	}
	if kind == KindLeaf {
		m.LeavesWritten.Inc()
	} else {
		m.NodesWritten.Inc()
	}
	m.BytesWritten.Add(float64(size))
}

func (m *Metrics) read() {
	if m != nil {
		m.NodesRead.Inc()
	}
}

func (m *Metrics) evicted() {
	if m != nil {
		m.Evictions.Inc()
	}
}

func (m *Metrics) writeBackFailed() {
	if m != nil {
		m.WriteBackFailures.Inc()
	}
}

func (m *Metrics) observeQueue(n, distinct int) {
	if m == nil {
		return
	}
	m.RetentionQueueLen.Set(float64(n))
	m.DistinctOnQueue.Set(float64(distinct))
}
