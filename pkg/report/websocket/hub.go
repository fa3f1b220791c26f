// Package websocket streams readings to websocket clients.
package websocket

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/freqmeter/pkg/framework"
	"github.com/robotalks/freqmeter/pkg/report/msgs"
)

// ReadingsPath is the HTTP path serving the reading stream.
const ReadingsPath = "/readings"

// DefaultBuffer is the number of readings queued per client. Readings
// are dropped for a client which falls behind.
const DefaultBuffer = 16

// Hub broadcasts readings as binary protobuf frames to all connected
// clients.
type Hub struct {
	Buffer int

	lock    sync.RWMutex
	clients map[*websocket.Conn]chan []byte
}

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{Buffer: DefaultBuffer}
}

// Handler returns the websocket handler.
func (h *Hub) Handler() http.Handler {
	return websocket.Handler(h.serve)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.clients)
}

// Report implements report.Sink.
func (h *Hub) Report(ctx context.Context, r *msgs.Reading) error {
	data, err := r.Encode()
	if err != nil {
		return err
	}
	h.lock.RLock()
	defer h.lock.RUnlock()
	for conn, ch := range h.clients {
		select {
		case ch <- data:
		default:
			glog.V(2).Infof("websocket client %s behind, reading dropped", conn.Request().RemoteAddr)
		}
	}
	return nil
}

func (h *Hub) serve(conn *websocket.Conn) {
	conn.PayloadType = websocket.BinaryFrame
	ch := h.add(conn)
	glog.V(2).Infof("websocket client %s connected", conn.Request().RemoteAddr)
	defer glog.V(2).Infof("websocket client %s disconnected", conn.Request().RemoteAddr)

	// clients only listen; a read error means they are gone.
	go func() {
		var discard []byte
		for websocket.Message.Receive(conn, &discard) == nil {
		}
		h.remove(conn)
	}()

	for data := range ch {
		if err := websocket.Message.Send(conn, data); err != nil {
			h.remove(conn)
			break
		}
	}
}

func (h *Hub) add(conn *websocket.Conn) chan []byte {
	size := h.Buffer
	if size <= 0 {
		size = DefaultBuffer
	}
	ch := make(chan []byte, size)
	h.lock.Lock()
	if h.clients == nil {
		h.clients = make(map[*websocket.Conn]chan []byte)
	}
	h.clients[conn] = ch
	h.lock.Unlock()
	return ch
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.lock.Lock()
	ch, ok := h.clients[conn]
	delete(h.clients, conn)
	h.lock.Unlock()
	if ok {
		close(ch)
	}
}

// Server serves the Hub over HTTP.
type Server struct {
	Addr string
	Hub  *Hub
}

// NewServer creates a Server with a new Hub.
func NewServer(addr string) *Server {
	return &Server{Addr: addr, Hub: NewHub()}
}

// Name implements Named.
func (s *Server) Name() string {
	return "websocket"
}

// Report implements report.Sink.
func (s *Server) Report(ctx context.Context, r *msgs.Reading) error {
	return s.Hub.Report(ctx, r)
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle(ReadingsPath, s.Hub.Handler())
	srv := &http.Server{Handler: mux}
	glog.Infof("websocket listening on %s%s", ln.Addr(), ReadingsPath)
	return fx.RunWithCloser(ctx, srv, func() error {
		return srv.Serve(ln)
	})
}
