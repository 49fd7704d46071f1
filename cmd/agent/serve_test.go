package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := lis.Addr().(*net.TCPAddr).Port
	require.NoError(t, lis.Close())
	return strconv.Itoa(port)
}

func TestStart_HealthPortBusyLeavesHTTPUnbound(t *testing.T) {
	busy, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer busy.Close()
	busyPort := strconv.Itoa(busy.Addr().(*net.TCPAddr).Port)

	httpPort := freePort(t)
	server := &http.Server{Addr: ":" + httpPort, Handler: http.NotFoundHandler()}

	_, err = start(context.Background(), server, busyPort, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gRPC health")

	// the HTTP port must still be free: nothing was left serving on it
	lis, err := net.Listen("tcp", ":"+httpPort)
	require.NoError(t, err)
	lis.Close()
}

func TestStart_ServesHTTPAndHealth(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpPort := freePort(t)
	server := &http.Server{Addr: ":" + httpPort, Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})}

	errCh, err := start(ctx, server, freePort(t), nil)
	require.NoError(t, err)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%s/", httpPort))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	require.NoError(t, server.Shutdown(shutdownCtx))
	cancel()

	select {
	case err := <-errCh:
		t.Fatalf("unexpected serve error: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
}
