package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/ogurasousui/headcount-clean-arch/internal/platform/config"
)

type countingRegistrar struct {
	calls int
}

func (c *countingRegistrar) Register(grpc.ServiceRegistrar) {
	c.calls++
}

func freeAddr(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())
	return addr
}

func TestServer_RunServesAndStopsOnCancel(t *testing.T) {
	httpAddr := freeAddr(t)
	cfg := config.ServerConfig{
		HTTPListenAddr:  httpAddr,
		GRPCListenAddr:  freeAddr(t),
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}

	api := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	reg := &countingRegistrar{}
	srv := New(cfg, api, []Registrar{reg}, zerolog.Nop())
	require.Equal(t, 1, reg.calls)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		var err error
		resp, err = http.Get("http://" + httpAddr + "/")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, "pong", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestServer_RunFailsWhenAddressTaken(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer lis.Close()

	srv := New(config.ServerConfig{HTTPListenAddr: lis.Addr().String()}, http.NotFoundHandler(), nil, zerolog.Nop())
	require.Error(t, srv.Run(context.Background()))
}
