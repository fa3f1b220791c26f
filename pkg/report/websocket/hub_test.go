package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/robotalks/freqmeter/pkg/report/msgs"
)

func waitClients(t *testing.T, h *Hub, n int) {
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expect %d clients, got %d", n, h.Clients())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	var conns []*websocket.Conn
	for i := 0; i < 2; i++ {
		conn, err := websocket.Dial(url, "", srv.URL)
		require.NoError(t, err)
		conns = append(conns, conn)
	}
	waitClients(t, hub, 2)

	require.NoError(t, hub.Report(context.Background(), &msgs.Reading{MeterID: "m1", Hz: 3571}))
	for _, conn := range conns {
		var data []byte
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, websocket.Message.Receive(conn, &data))
		r, err := msgs.DecodeReading(data)
		require.NoError(t, err)
		require.Equal(t, uint32(3571), r.Hz)
		require.Equal(t, "m1", r.MeterID)
	}

	conns[0].Close()
	waitClients(t, hub, 1)
	conns[1].Close()
	waitClients(t, hub, 0)
}

func TestHubReportWithoutClients(t *testing.T) {
	require.NoError(t, NewHub().Report(context.Background(), &msgs.Reading{Hz: 1}))
}

func TestServerRun(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()
	cancel()
	select {
	case err := <-done:
		require.Equal(t, context.Canceled, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
