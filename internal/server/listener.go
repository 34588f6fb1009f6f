package server

import (
	"context"
	"log"
	"net"
	"sync/atomic"

	"github.com/go-mclib/server/internal/protocol/login"
)

// Listener accepts TCP connections and hands each to its own Connection,
// the server-side mirror of go-mclib-client's single outbound
// Client.ConnectAndStart call.
type Listener struct {
	ln                   net.Listener
	sessionServer        login.SessionServer
	compressionThreshold int32
	status               StatusResponder
	onPlay               Handler
	logger               *log.Logger
	connected            atomic.Int32
}

// ConnectionCount reports the number of sockets currently being served,
// for operator dashboards (console.Sink) and status-response player
// counts.
func (l *Listener) ConnectionCount() int { return int(l.connected.Load()) }

func Listen(addr string, sessionServer login.SessionServer, compressionThreshold int32, status StatusResponder, onPlay Handler, logger *log.Logger) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{
		ln:                   ln,
		sessionServer:        sessionServer,
		compressionThreshold: compressionThreshold,
		status:               status,
		onPlay:               onPlay,
		logger:               logger,
	}, nil
}

func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

func (l *Listener) Close() error { return l.ln.Close() }

// Serve accepts connections until ctx is cancelled or the listener
// closes, spawning one goroutine per connection.
func (l *Listener) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		l.ln.Close()
	}()
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return err
			}
		}
		c := NewConnection(conn, l.sessionServer, l.compressionThreshold, l.status, l.onPlay, l.logger)
		l.connected.Add(1)
		go func() {
			defer l.connected.Add(-1)
			if err := c.Serve(ctx); err != nil {
				l.logger.Printf("connection %s closed: %v", conn.RemoteAddr(), err)
			}
		}()
	}
}
