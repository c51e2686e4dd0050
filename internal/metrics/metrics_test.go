package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveDetection(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveDetection(time.Millisecond, 2, 3, nil)
	m.ObserveDetection(time.Millisecond, 0, 0, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Detections.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Detections.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ConditionsFound))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 4)
}

func TestIncrementToolCall(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.IncrementToolCall("simplify", true)
	m.IncrementToolCall("simplify", true)
	m.IncrementToolCall("parse", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("simplify", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("parse", "error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveDetection(time.Second, 1, 1, nil)
		m.IncrementToolCall("parse", true)
	})
}
