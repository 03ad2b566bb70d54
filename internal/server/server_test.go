package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theblitlabs/parity-stake/internal/config"
)

func TestVerifyPortAvailable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	_, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	busy := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: port}, http.NotFoundHandler())
	assert.Error(t, busy.VerifyPortAvailable())

	free := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: "0"}, http.NotFoundHandler())
	assert.NoError(t, free.VerifyPortAvailable())
}

func TestStartStop(t *testing.T) {
	srv := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: "0"}, http.NotFoundHandler())
	assert.Equal(t, "127.0.0.1:0", srv.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	// give ListenAndServe a moment to bind before shutting down
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
