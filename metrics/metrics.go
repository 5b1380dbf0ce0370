// Package metrics exposes the Prometheus collectors an embedding
// application can register to observe the folder engine: lock contention,
// delayed-body realisation pressure and how many folders are open.
//
// Nothing in this package starts an HTTP server or registers a default
// handler; that decision belongs to the embedder.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	LockWaitSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mailbox",
			Subsystem: "lock",
			Name:      "wait_seconds",
			Help:      "Time spent waiting to acquire a folder lock",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	LockFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mailbox",
			Subsystem: "lock",
			Name:      "failures_total",
			Help:      "Number of lock acquisitions that timed out",
		},
		[]string{"strategy"},
	)

	DelayedRealisations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mailbox",
			Subsystem: "message",
			Name:      "delayed_realisations_total",
			Help:      "Number of times a delayed head or body was realised",
		},
		[]string{"part"},
	)

	OpenFolders = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mailbox",
			Subsystem: "folder",
			Name:      "open",
			Help:      "Number of folders currently open, by backend",
		},
		[]string{"backend"},
	)
)

// Register adds every collector in this package to reg. Call it once at
// startup with a *prometheus.Registry the embedder owns; the zero value of
// prometheus.DefaultRegisterer also works for simple programs.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{LockWaitSeconds, LockFailures, DelayedRealisations, OpenFolders} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
