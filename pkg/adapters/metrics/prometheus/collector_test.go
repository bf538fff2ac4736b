package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorQueries(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.IncQueries("http", "ok")
	c.IncQueries("http", "ok")
	c.IncQueries("websocket", "bad_request")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.queries.WithLabelValues("http", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.queries.WithLabelValues("websocket", "bad_request")))
}

func TestCollectorInFlight(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.IncInFlight()
	c.IncInFlight()
	c.DecInFlight()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.inFlight))
}

func TestCollectorProbe(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordProbe("ok", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.upstreamUp))

	c.RecordProbe("transport_error", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.upstreamUp))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.probes.WithLabelValues("transport_error")))
}

func TestCollectorUpstreamDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveUpstreamDuration("ok", 120*time.Millisecond)

	count, err := testutil.GatherAndCount(reg, "sparqlproxy_upstream_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCollectorsOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCollector(prometheus.NewRegistry())
		NewCollector(prometheus.NewRegistry())
	})
}
