package relay

import (
	"log"
	"net"
)

// Listener accepts TCP connections on one bound address and hands each one
// to a shared Hub as an Endpoint (spec.md §4.D). Multiple Listeners,
// possibly on different ports, may share one Hub.
type Listener struct {
	ln  net.Listener
	hub *Hub
}

// NewListener wraps an already-bound net.Listener.
func NewListener(ln net.Listener, hub *Hub) *Listener {
	return &Listener{ln: ln, hub: hub}
}

// Serve accepts connections until the listener is closed or hits a
// non-transient error. Transient accept errors (spec.md §4.D: "never
// terminate on transient accept errors") are logged and retried.
func (l *Listener) Serve() {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if isTemporary(err) {
				log.Printf("listener %s: transient accept error: %s", l.ln.Addr(), err)
				continue
			}
			log.Printf("listener %s: accept loop ending: %s", l.ln.Addr(), err)
			return
		}

		id := l.hub.nextClientID()
		ep := newEndpoint(conn, l.hub, id)
		go ep.Serve()
	}
}

// Close stops accepting new connections.
func (l *Listener) Close() error {
	return l.ln.Close()
}

func isTemporary(err error) bool {
	type temporary interface {
		Temporary() bool
	}
	te, ok := err.(temporary)
	return ok && te.Temporary()
}
