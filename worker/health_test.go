package worker

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthServerAnswersOK(t *testing.T) {
	health, err := StartHealthServer("127.0.0.1:0")
	require.NoError(t, err)
	defer health.Shutdown(context.Background())

	resp, err := http.Get("http://" + health.Addr() + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestHealthServerShutdownStopsListener(t *testing.T) {
	health, err := StartHealthServer("127.0.0.1:0")
	require.NoError(t, err)
	addr := health.Addr()

	require.NoError(t, health.Shutdown(context.Background()))

	client := &http.Client{Timeout: time.Second}
	_, err = client.Get("http://" + addr + "/healthz")
	assert.Error(t, err)
}

func TestHealthServerBadAddress(t *testing.T) {
	_, err := StartHealthServer("not-an-address")

	assert.Error(t, err)
}
