package relay

import (
	"io"
	"log"
	"net"
	"sync"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/summercat/relayd/internal/replies"
	"github.com/summercat/relayd/internal/wire"
)

// readChunkSize is the size of each read from the socket (spec.md §4.C.1).
const readChunkSize = 4096

type outboundMsg struct {
	prefix  string
	command interface{}
	params  []string
}

// Endpoint owns one TCP duplex: it frames inbound bytes into lines, decodes
// and parses them, publishes events to a Hub, and serialises outbound
// writes so at most one is ever in flight (spec.md §4.C).
type Endpoint struct {
	conn net.Conn
	hub  *Hub
	id   uint64

	writeCh chan outboundMsg

	mu     sync.Mutex
	closed bool
}

func newEndpoint(conn net.Conn, hub *Hub, id uint64) *Endpoint {
	return &Endpoint{
		conn:    conn,
		hub:     hub,
		id:      id,
		writeCh: make(chan outboundMsg, 256),
	}
}

// Serve drives the endpoint's lifecycle: publish NEW_CLIENT, run the reader
// until EOF/error, then publish exactly one LOST_CLIENT and close the
// socket (spec.md §4.C.6). It blocks until the connection ends.
func (e *Endpoint) Serve() {
	go e.writeLoop()

	remoteHost := hostOf(e.conn.RemoteAddr())
	localHost := hostOf(e.conn.LocalAddr())

	client := newClient(e.id, remoteHost, localHost, e)
	e.hub.publishNewClient(client)

	e.readLoop(client)

	e.hub.publishLostClient(client)
	e.Close()
}

func hostOf(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

// readLoop implements the inbound framing rules: read 4 KiB chunks, fold CR
// to LF, accumulate, and emit each LF-terminated, whitespace-trimmed,
// non-empty segment as one line (spec.md §4.C.1).
func (e *Endpoint) readLoop(client *Client) {
	chunk := make([]byte, readChunkSize)
	var buf []byte

	for {
		n, err := e.conn.Read(chunk)
		if n > 0 {
			for i := 0; i < n; i++ {
				b := chunk[i]
				if b == '\r' {
					b = '\n'
				}
				buf = append(buf, b)
			}
			buf = e.consumeLines(client, buf)
		}
		if err != nil {
			return
		}
	}
}

func (e *Endpoint) consumeLines(client *Client, buf []byte) []byte {
	for {
		idx := indexByte(buf, '\n')
		if idx == -1 {
			return buf
		}

		line := trimSpace(buf[:idx])
		buf = buf[idx+1:]

		if len(line) == 0 {
			continue
		}

		e.handleLine(client, string(line))
	}
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func trimSpace(b []byte) []byte {
	start := 0
	for start < len(b) && isSpace(b[start]) {
		start++
	}
	end := len(b)
	for end > start && isSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

// handleLine decodes, parses, and publishes one already-framed line. It
// runs on the Endpoint's read goroutine, so any reply for a framing
// failure is queued through publishProtocolError rather than sent
// directly -- sendNumeric itself may only run on the hub goroutine.
func (e *Endpoint) handleLine(client *Client, line string) {
	if !utf8.ValidString(line) {
		e.hub.publishProtocolError(client, replies.IncorrectEncoding,
			[]string{"Invalid UTF-8 encoding"})
		return
	}

	msg, err := wire.ParseLine(line)
	if err != nil {
		e.hub.publishProtocolError(client, replies.UnknownCommand,
			[]string{"*", "Malformed message"})
		return
	}

	e.hub.publishMessage(client, msg)
}

func (e *Endpoint) writeLoop() {
	for m := range e.writeCh {
		line, err := wire.Encode(m.prefix, m.command, m.params)
		if err != nil {
			log.Printf("client %d: %s", e.id, errors.Wrap(err, "encoding outbound message"))
			continue
		}
		if _, err := io.WriteString(e.conn, line); err != nil {
			log.Printf("client %d: %s", e.id, errors.Wrap(err, "writing to connection"))
			e.Close()
			return
		}
	}
}

// Send implements the sender interface used by Client/Hub. It never
// blocks: if the endpoint's outbound queue is full, the connection is
// dropped rather than stalling the hub (spec.md §5/§9).
func (e *Endpoint) Send(prefix string, command interface{}, params []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}

	select {
	case e.writeCh <- outboundMsg{prefix: prefix, command: command, params: params}:
	default:
		e.closeLocked()
	}
}

// Close closes the endpoint's outbound queue and socket. Safe to call more
// than once or concurrently.
func (e *Endpoint) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeLocked()
}

func (e *Endpoint) closeLocked() {
	if e.closed {
		return
	}
	e.closed = true
	close(e.writeCh)
	_ = e.conn.Close()
}
