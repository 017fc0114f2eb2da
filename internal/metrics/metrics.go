// Package metrics exposes Prometheus counters and gauges for a running
// linspectord daemon, plus a cheap in-process Snapshot for log lines,
// following the ambient observability stack the rest of this module's
// teacher codebase carries.
package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/linspector/linspector/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus counters and gauges
var (
	LinFramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linspector_lin_frames_total",
		Help: "Total LIN frames observed in the trace.",
	})
	CanFramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linspector_can_frames_total",
		Help: "Total CAN/CAN-FD frames observed in the trace.",
	})
	FindingsByKind = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linspector_findings_total",
		Help: "Findings raised, by kind.",
	}, []string{"kind"})
	BusLoadRatio = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "linspector_bus_load_ratio",
		Help: "Most recent bus-load ratio observed per channel.",
	}, []string{"channel"})
	ScheduleJitterSeconds = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "linspector_schedule_jitter_seconds",
		Help: "Most recent observed inter-arrival jitter per LIN frame id.",
	}, []string{"frame_id"})
	GatewayLatencySeconds = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "linspector_gateway_latency_seconds",
		Help: "Most recent observed gateway correlation latency per rule.",
	}, []string{"rule"})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "linspector_build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})
	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linspector_errors_total",
		Help: "Hard-failure error counters by subsystem.",
	}, []string{"where"})

	HubDroppedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linspector_hub_dropped_events_total",
		Help: "Total finding events dropped by the dashboard hub due to slow clients.",
	})
	HubKickedClients = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linspector_hub_kicked_clients_total",
		Help: "Total dashboard clients disconnected by the backpressure kick policy.",
	})
	HubActiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linspector_hub_active_clients",
		Help: "Current number of connected dashboard clients.",
	})
	HubBroadcastFanout = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linspector_hub_broadcast_fanout",
		Help: "Number of clients targeted in the most recent broadcast.",
	})
	HubQueueDepthMax = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linspector_hub_queue_depth_max",
		Help: "Observed max queued events among clients since last sample.",
	})
	HubQueueDepthAvg = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linspector_hub_queue_depth_avg",
		Help: "Approximate average queued events per client since last sample.",
	})
	EventsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linspector_events_sent_total",
		Help: "Total finding events flushed to dashboard TCP clients.",
	})

	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants (stable label values to bound cardinality).
const (
	ErrInputRead   = "input_read"
	ErrDescription = "description_load"
	ErrWireEncode  = "wire_encode"
	ErrWireDecode  = "wire_decode"
	ErrTCPAccept   = "tcp_accept"
)

// StartHTTP serves Prometheus metrics at /metrics and readiness at /ready.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// Local mirrored counters, cheap to read for the periodic metrics log line
// without scraping Prometheus in-process.
var (
	localLinFrames uint64
	localCanFrames uint64
	localFindings  uint64
	localErrors    uint64
	localHubDrop   uint64
	localHubKick   uint64
)

// Snapshot is a cheap copy of the local counters.
type Snapshot struct {
	LinFrames uint64
	CanFrames uint64
	Findings  uint64
	Errors    uint64
	HubDrops  uint64
	HubKicks  uint64
}

// Snap returns the current Snapshot.
func Snap() Snapshot {
	return Snapshot{
		LinFrames: atomic.LoadUint64(&localLinFrames),
		CanFrames: atomic.LoadUint64(&localCanFrames),
		Findings:  atomic.LoadUint64(&localFindings),
		Errors:    atomic.LoadUint64(&localErrors),
		HubDrops:  atomic.LoadUint64(&localHubDrop),
		HubKicks:  atomic.LoadUint64(&localHubKick),
	}
}

// IncLinFrame records one observed LIN frame.
func IncLinFrame() {
	LinFramesTotal.Inc()
	atomic.AddUint64(&localLinFrames, 1)
}

// IncCanFrame records one observed CAN frame.
func IncCanFrame() {
	CanFramesTotal.Inc()
	atomic.AddUint64(&localCanFrames, 1)
}

// IncFinding records one finding of the given kind.
func IncFinding(kind string) {
	FindingsByKind.WithLabelValues(kind).Inc()
	atomic.AddUint64(&localFindings, 1)
}

// SetBusLoad records the most recent bus-load ratio for a channel.
func SetBusLoad(channel string, ratio float64) {
	BusLoadRatio.WithLabelValues(channel).Set(ratio)
}

// SetScheduleJitter records the most recent jitter for a LIN frame id.
func SetScheduleJitter(frameID string, seconds float64) {
	ScheduleJitterSeconds.WithLabelValues(frameID).Set(seconds)
}

// SetGatewayLatency records the most recent correlation latency for a rule.
func SetGatewayLatency(rule string, seconds float64) {
	GatewayLatencySeconds.WithLabelValues(rule).Set(seconds)
}

// IncHubDrop records one finding event dropped by the hub's drop policy.
func IncHubDrop() {
	HubDroppedEvents.Inc()
	atomic.AddUint64(&localHubDrop, 1)
}

// IncHubKick records one client disconnected by the hub's kick policy.
func IncHubKick() {
	HubKickedClients.Inc()
	atomic.AddUint64(&localHubKick, 1)
}

// AddEventsSent records n finding events flushed to TCP dashboard clients.
func AddEventsSent(n int) { EventsSentTotal.Add(float64(n)) }

// SetHubClients records the current connected-client count.
func SetHubClients(n int) { HubActiveClients.Set(float64(n)) }

// SetBroadcastFanout records how many clients the most recent broadcast
// targeted.
func SetBroadcastFanout(n int) { HubBroadcastFanout.Set(float64(n)) }

// SetQueueDepth records a snapshot of max and average per-client queue
// depth.
func SetQueueDepth(max, avg int) {
	HubQueueDepthMax.Set(float64(max))
	HubQueueDepthAvg.Set(float64(avg))
}

// IncError records a hard-failure error by subsystem label.
func IncError(where string) {
	ErrorsTotal.WithLabelValues(where).Inc()
	atomic.AddUint64(&localErrors, 1)
}

// InitBuildInfo sets the build info gauge (called once at startup) and
// pre-registers common error label series so the first error doesn't pay
// registration latency.
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	for _, lbl := range []string{ErrInputRead, ErrDescription, ErrWireEncode, ErrWireDecode, ErrTCPAccept} {
		ErrorsTotal.WithLabelValues(lbl).Add(0)
	}
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function if present.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil {
		return true
	}
	return fn()
}
