package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsApplied(t *testing.T) {
	c := New(Settings{})

	assert.Equal(t, DefaultMaxRetries, c.maxRetries)
	assert.Equal(t, DefaultRetryDelay, c.retryDelay)
	assert.Equal(t, DefaultCallTimeout, c.callTimeout)
	assert.Equal(t, DefaultToolConcurrency, c.toolConcurrency)
	assert.NotNil(t, c.tracer)
	assert.NotNil(t, c.schemas)
	assert.NotNil(t, c.limiter)
	assert.NotNil(t, c.metrics)
}

func TestClient_SessionLazyAndStable(t *testing.T) {
	c := New(Settings{Endpoint: "http://localhost:8080"})

	s1 := c.Session()
	s2 := c.Session()
	require.NotNil(t, s1)
	assert.Same(t, s1, s2)
}

func TestClient_CloseResetsSession(t *testing.T) {
	c := New(Settings{})

	s1 := c.Session()
	require.NoError(t, c.Close())
	require.NoError(t, c.Close()) // idempotent

	s2 := c.Session()
	assert.NotSame(t, s1, s2)
}

func TestClient_EndpointResolution(t *testing.T) {
	t.Setenv("BRIDGE_ENDPOINT", "")

	c := New(Settings{Endpoint: "http://explicit:1234"})
	assert.Equal(t, "http://explicit:1234", c.Endpoint())

	// trailing slashes are stripped
	c = New(Settings{Endpoint: "http://explicit:1234///"})
	assert.Equal(t, "http://explicit:1234", c.Endpoint())

	c = New(Settings{})
	assert.Equal(t, "http://localhost:8080", c.Endpoint())
}

func TestClient_EndpointFromEnvironment(t *testing.T) {
	t.Setenv("BRIDGE_ENDPOINT", "http://from-env:9999/")

	c := New(Settings{})
	assert.Equal(t, "http://from-env:9999", c.Endpoint())

	// an explicit setting wins over the environment
	c = New(Settings{Endpoint: "http://explicit:1234"})
	assert.Equal(t, "http://explicit:1234", c.Endpoint())
}

func TestClient_ConcurrentCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"result":"ok"}`)
	}))
	defer srv.Close()

	c := New(Settings{Endpoint: srv.URL})

	errs := make([]error, 20)
	wg := conc.NewWaitGroup()
	for i := range errs {
		i := i
		wg.Go(func() {
			_, errs[i] = c.CallTool(context.Background(), "Echo", map[string]any{"n": i})
		})
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "call %d", i)
	}
}
