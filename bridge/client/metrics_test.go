package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordsCalls(t *testing.T) {
	m := NewMetrics(true)

	m.RecordCall("Read", 10*time.Millisecond, 1, nil)
	m.RecordCall("Read", 20*time.Millisecond, 3, newServerError("Read", 500, []byte("x")))
	m.RecordCall("Bash", 5*time.Millisecond, 1, &ToolExecutionError{Tool: "Bash", Message: "exit 1"})

	s := m.Summary()

	assert.Equal(t, int64(3), s.Calls)
	assert.Equal(t, int64(2), s.Retries)
	assert.Equal(t, int64(1), s.Failures[KindServer])
	assert.Equal(t, int64(1), s.ToolFailures)
	assert.Equal(t, int64(0), s.Aborted)

	read := s.ToolStats["Read"]
	assert.Equal(t, int64(2), read.Calls)
	assert.Equal(t, int64(1), read.Failures)
	assert.Equal(t, 30*time.Millisecond, read.TotalLatency)

	assert.Equal(t, 10*time.Millisecond, s.Latency.P50)
	assert.Equal(t, 20*time.Millisecond, s.Latency.P95)
	assert.Equal(t, 20*time.Millisecond, s.Latency.P99)
}

func TestMetrics_AbortedBucket(t *testing.T) {
	m := NewMetrics(true)

	m.RecordCall("Read", time.Millisecond, 1, errors.New("context canceled"))

	s := m.Summary()
	assert.Equal(t, int64(1), s.Aborted)
	assert.Empty(t, s.Failures)
	assert.Equal(t, int64(0), s.ToolFailures)
}

func TestMetrics_DisabledRecordsNothing(t *testing.T) {
	m := NewMetrics(false)

	m.RecordCall("Read", time.Millisecond, 2, nil)

	s := m.Summary()
	assert.Equal(t, int64(0), s.Calls)
	assert.Equal(t, int64(0), s.Retries)
	assert.Empty(t, s.ToolStats)
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCall("Read", time.Millisecond, 1, nil)
	})
}

func TestMetrics_Reset(t *testing.T) {
	m := NewMetrics(true)

	m.RecordCall("Read", time.Millisecond, 2, newServerError("Read", 500, nil))
	require.Equal(t, int64(1), m.Summary().Calls)

	m.Reset()

	s := m.Summary()
	assert.Equal(t, int64(0), s.Calls)
	assert.Equal(t, int64(0), s.Retries)
	assert.Empty(t, s.Failures)
	assert.Empty(t, s.ToolStats)
	assert.Equal(t, LatencyPercentiles{}, s.Latency)
}

func TestMetrics_WiredIntoClient(t *testing.T) {
	var requests atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			writeJSON(w, http.StatusInternalServerError, "flaky")
			return
		}
		writeJSON(w, http.StatusOK, `{"success":true,"result":"ok"}`)
	}))
	defer srv.Close()

	m := NewMetrics(true)
	c := New(Settings{Endpoint: srv.URL, MaxRetries: 3, RetryDelay: time.Millisecond, Metrics: m})

	_, err := c.CallTool(context.Background(), "Echo", nil)
	require.NoError(t, err)

	s := c.Metrics().Summary()
	assert.Equal(t, int64(1), s.Calls, "one logical call")
	assert.Equal(t, int64(2), s.Retries, "two retries before success")
	assert.Equal(t, int64(1), s.ToolStats["Echo"].Calls)
}

func BenchmarkMetricsRecordCall(b *testing.B) {
	m := NewMetrics(true)
	err := newServerError("Echo", 500, []byte("x"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%3 == 0 {
			m.RecordCall("Echo", time.Millisecond, 2, err)
		} else {
			m.RecordCall("Echo", time.Millisecond, 1, nil)
		}
	}
}
