package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afi-protocol/afi-gateway/internal/config"
)

func TestServer_StartShutdown(t *testing.T) {
	cfg := config.Default().Server
	cfg.Port = 0

	server := NewServer(gin.New(), cfg, nil)

	done := make(chan error, 1)
	go func() {
		done <- server.Start()
	}()

	// Give the listener a moment to bind before draining.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, server.Shutdown(context.Background()))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after shutdown")
	}
}

func TestServer_ShutdownWithoutStart(t *testing.T) {
	server := NewServer(gin.New(), config.Default().Server, nil)
	assert.NoError(t, server.Shutdown(context.Background()))
}
