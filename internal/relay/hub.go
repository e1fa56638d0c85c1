package relay

import (
	"log"
	"sync/atomic"

	"github.com/summercat/relayd/internal/motd"
	"github.com/summercat/relayd/internal/replies"
	"github.com/summercat/relayd/internal/wire"
)

type eventKind int

const (
	eventNewClient eventKind = iota
	eventLostClient
	eventMessage
	eventProtocolError
)

type event struct {
	kind    eventKind
	client  *Client
	msg     wire.Message
	numeric int
	params  []string
}

// Config carries the identity a Hub presents to clients: server name,
// version banner, and MOTD source. It holds no behaviour of its own.
type Config struct {
	ServerName  string
	ServerInfo  string
	Version     string
	CreatedDate string
	MOTD        motd.Provider
}

// Hub is the single-consumer dispatcher that owns all shared chat state:
// the nickname registry, the channel set, and channel memberships
// (spec.md §4.E). Every state mutation happens on Run's goroutine; no
// other code may read or write clients/nicks/channels. This is what makes
// every transition serialisable without locks (spec.md §5).
type Hub struct {
	serverName  string
	serverInfo  string
	version     string
	createdDate string
	motd        motd.Provider

	events chan event

	nextID uint64

	clients  map[uint64]*Client
	nicks    map[string]*Client // lowercase nick -> client
	channels map[string]*Channel
}

type noMOTD struct{}

func (noMOTD) Lines() []string { return nil }

// NewHub constructs a Hub. Call Run (typically in its own goroutine) to
// start the event loop.
func NewHub(cfg Config) *Hub {
	m := cfg.MOTD
	if m == nil {
		m = noMOTD{}
	}

	return &Hub{
		serverName:  cfg.ServerName,
		serverInfo:  cfg.ServerInfo,
		version:     cfg.Version,
		createdDate: cfg.CreatedDate,
		motd:        m,
		events:      make(chan event, 1024),
		clients:     make(map[uint64]*Client),
		nicks:       make(map[string]*Client),
		channels:    make(map[string]*Channel),
	}
}

func (h *Hub) nextClientID() uint64 {
	return atomic.AddUint64(&h.nextID, 1)
}

// Run drains events until the channel is closed. It is the hub's only
// consumer; every handler below runs to completion before the next event
// is read (spec.md §5 "Handlers do not suspend").
func (h *Hub) Run() {
	for ev := range h.events {
		switch ev.kind {
		case eventNewClient:
			h.onNewClient(ev.client)
		case eventLostClient:
			h.onLostClient(ev.client)
		case eventMessage:
			h.onMessage(ev.client, ev.msg)
		case eventProtocolError:
			h.onProtocolError(ev.client, ev.numeric, ev.params)
		}
	}
}

// Stop closes the event channel, ending Run once the queue drains.
func (h *Hub) Stop() {
	close(h.events)
}

func (h *Hub) publishNewClient(c *Client) {
	h.events <- event{kind: eventNewClient, client: c}
}

func (h *Hub) publishLostClient(c *Client) {
	h.events <- event{kind: eventLostClient, client: c}
}

func (h *Hub) publishMessage(c *Client, m wire.Message) {
	h.events <- event{kind: eventMessage, client: c, msg: m}
}

// publishProtocolError queues a numeric reply for a framing/decode failure
// observed on the Endpoint's read goroutine. It must not call sendNumeric
// directly: that method reads Client fields (e.g. Nick, for displayNick)
// that only the hub goroutine may touch (spec.md §5). Routing through the
// event queue keeps all such reads on Run's goroutine.
func (h *Hub) publishProtocolError(c *Client, numeric int, params []string) {
	h.events <- event{kind: eventProtocolError, client: c, numeric: numeric, params: params}
}

func (h *Hub) onNewClient(c *Client) {
	h.clients[c.ID] = c
}

// onLostClient performs best-effort cleanup only -- no broadcast. An
// abrupt disconnect is not the same event as an explicit QUIT, which
// broadcasts before closing (spec.md §4.E).
func (h *Hub) onLostClient(c *Client) {
	if _, exists := h.clients[c.ID]; !exists {
		return
	}

	if c.Nick != "" {
		if cur, ok := h.nicks[lowerNick(c.Nick)]; ok && cur.ID == c.ID {
			delete(h.nicks, lowerNick(c.Nick))
		}
	}

	for name, ch := range c.Channels {
		ch.remove(c.ID)
		if ch.isEmpty() {
			delete(h.channels, name)
		}
	}

	delete(h.clients, c.ID)
}

// onProtocolError answers a framing/decode failure reported by
// publishProtocolError. The client may already be gone if LOST_CLIENT beat
// it through the queue; in that case there is nothing to reply to.
func (h *Hub) onProtocolError(c *Client, numeric int, params []string) {
	if _, exists := h.clients[c.ID]; !exists {
		return
	}
	h.sendNumeric(c, numeric, params)
}

type handlerFunc func(*Client, wire.Message) error

// onMessage dispatches one parsed message to its command handler and
// converts any resulting RelayError into a numeric reply at this single
// conversion point (spec.md §4.E/§7). Any other error is logged and
// answered with a generic reply -- it never crashes the hub.
func (h *Hub) onMessage(c *Client, m wire.Message) {
	if _, exists := h.clients[c.ID]; !exists {
		return
	}

	var err error

	switch m.Command {
	case "NICK":
		err = h.cmdNick(c, m)
	case "USER":
		err = h.cmdUser(c, m)
	case "PING":
		err = h.cmdPing(c, m)
	case "CAP":
		// Accepted and ignored: capability negotiation is not implemented.
	case "JOIN":
		err = h.gate(c, m, h.cmdJoin)
	case "PART":
		err = h.gate(c, m, h.cmdPart)
	case "PRIVMSG":
		err = h.gate(c, m, h.cmdPrivmsg)
	case "NOTICE":
		err = h.cmdNotice(c, m)
	case "QUIT":
		err = h.cmdQuit(c, m)
	default:
		err = errUnknownCommand(m.Command)
	}

	if err == nil {
		return
	}

	if re, ok := err.(*RelayError); ok {
		h.sendNumeric(c, re.Numeric, re.Params)
		return
	}

	log.Printf("client %d: unexpected error handling %s: %s", c.ID, m.Command, err)
	h.sendNumeric(c, replies.UnknownCommand, []string{m.Command, "Internal error"})
}

// gate enforces the registration precondition shared by channel-affecting
// commands (spec.md §4.E "Registration gate").
func (h *Hub) gate(c *Client, m wire.Message, fn handlerFunc) error {
	if !c.Registered {
		return errNotRegistered()
	}
	return fn(c, m)
}

// sendNumeric builds and sends a numeric reply: the server prefix, the
// target's nick (or "*" if unregistered), then params (spec.md GLOSSARY
// "Numeric reply"). It reads Client fields (via displayNick) and so must
// only ever be called from the hub's own goroutine (Run); callers on any
// other goroutine must go through publishProtocolError instead.
func (h *Hub) sendNumeric(c *Client, numeric int, params []string) {
	full := append([]string{c.displayNick()}, params...)
	c.out.Send(h.serverName, numeric, full)
}

func lowerNick(s string) string {
	return asciiLower(s)
}

// asciiLower is used for registry keys. Nicknames are already validated
// and NFC-normalised by internal/names before reaching here; a simple
// byte-wise ASCII fold is sufficient for case-insensitive uniqueness of
// the common case while leaving non-ASCII characters untouched.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c - 'A' + 'a'
		}
	}
	return string(b)
}
