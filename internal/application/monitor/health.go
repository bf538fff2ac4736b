package monitor

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/aescanero/sparqlproxy/pkg/adapters/sparql"
	"go.uber.org/zap"
)

// ProbeQuery is the cheapest query every SPARQL endpoint must answer
const ProbeQuery = "ASK {}"

// Prober submits a query to the upstream endpoint
type Prober interface {
	Query(ctx context.Context, query string) (json.RawMessage, error)
}

// ProbeRecorder receives probe results for metrics
type ProbeRecorder interface {
	RecordProbe(outcome string, up bool)
}

// StatusSink is notified after every probe
type StatusSink interface {
	SetUpstreamHealthy(healthy bool)
}

// HealthStatus represents the result of the last probe
type HealthStatus struct {
	Checked   bool
	Healthy   bool
	Outcome   string
	Error     string
	Latency   time.Duration
	Timestamp time.Time
}

// HealthMonitor probes the upstream endpoint on a fixed interval
type HealthMonitor struct {
	prober   Prober
	interval time.Duration
	recorder ProbeRecorder
	sinks    []StatusSink
	logger   *zap.Logger

	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	status  HealthStatus
}

// NewHealthMonitor creates a new health monitor. recorder may be nil.
func NewHealthMonitor(prober Prober, interval time.Duration, recorder ProbeRecorder, logger *zap.Logger, sinks ...StatusSink) *HealthMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthMonitor{
		prober:   prober,
		interval: interval,
		recorder: recorder,
		sinks:    sinks,
		logger:   logger,
	}
}

// Start probes once immediately and then every interval
func (h *HealthMonitor) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.stopCh = make(chan struct{})
	h.doneCh = make(chan struct{})
	stopCh, doneCh := h.stopCh, h.doneCh
	h.mu.Unlock()

	go h.run(stopCh, doneCh)
}

// Stop stops the health monitor and waits for an in-progress probe
func (h *HealthMonitor) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	stopCh, doneCh := h.stopCh, h.doneCh
	h.mu.Unlock()

	close(stopCh)
	<-doneCh
}

// run is the main health monitoring loop
func (h *HealthMonitor) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	h.checkHealth(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			h.checkHealth(ctx)
		}
	}
}

// checkHealth sends one probe and publishes its result
func (h *HealthMonitor) checkHealth(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, h.interval)
	defer cancel()

	start := time.Now()
	_, err := h.prober.Query(ctx, ProbeQuery)
	latency := time.Since(start)

	if ctx.Err() == context.Canceled {
		// stopping
		return
	}

	status := HealthStatus{
		Checked:   true,
		Healthy:   err == nil,
		Outcome:   sparql.Outcome(err),
		Latency:   latency,
		Timestamp: time.Now(),
	}
	if err != nil {
		status.Error = err.Error()
	}

	h.mu.Lock()
	previous := h.status
	h.status = status
	h.mu.Unlock()

	if h.recorder != nil {
		h.recorder.RecordProbe(status.Outcome, status.Healthy)
	}
	for _, sink := range h.sinks {
		sink.SetUpstreamHealthy(status.Healthy)
	}

	switch {
	case !status.Healthy:
		h.logger.Warn("upstream probe failed",
			zap.String("outcome", status.Outcome),
			zap.Duration("latency", latency),
			zap.Error(err))
	case !previous.Healthy:
		h.logger.Info("upstream is reachable", zap.Duration("latency", latency))
	default:
		h.logger.Debug("upstream probe ok", zap.Duration("latency", latency))
	}
}

// GetStatus returns the result of the last probe
func (h *HealthMonitor) GetStatus() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// IsHealthy returns true if the last probe succeeded
func (h *HealthMonitor) IsHealthy() bool {
	return h.GetStatus().Healthy
}
