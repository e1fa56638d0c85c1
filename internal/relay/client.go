package relay

import (
	"fmt"
	"time"
)

// sender is the write-side handle a Client holds onto its connection
// endpoint. The hub never reaches into endpoint internals -- it only ever
// calls Send/Close, per spec.md DESIGN NOTES §9's one-way ownership rule
// (Client -> Server is replaced by this handle instead of a back-pointer
// into mutable hub state).
type sender interface {
	Send(prefix string, command interface{}, params []string)
	Close()
}

// Client is one connected, possibly-registered connection. It is owned
// exclusively by the Hub; nothing outside the hub's event loop may mutate
// it (spec.md §3's "no operation outside the dispatcher mutates ...").
type Client struct {
	ID uint64

	RemoteHost string
	LocalHost  string

	// VHost overrides RemoteHost in the mask if set.
	VHost string

	Nick     string
	User     string
	RealName string

	Registered bool

	// Channels the client currently belongs to, by canonical (lowercase)
	// name. Gives O(1) "client -> channel set" per spec.md DESIGN NOTES §9.
	Channels map[string]*Channel

	ConnectedAt time.Time

	out sender
}

func newClient(id uint64, remoteHost, localHost string, out sender) *Client {
	return &Client{
		ID:          id,
		RemoteHost:  remoteHost,
		LocalHost:   localHost,
		Channels:    make(map[string]*Channel),
		ConnectedAt: time.Now(),
		out:         out,
	}
}

// Mask returns the client's sender identity, nick!user@host.
func (c *Client) Mask() string {
	host := c.RemoteHost
	if c.VHost != "" {
		host = c.VHost
	}
	return fmt.Sprintf("%s!%s@%s", c.Nick, c.User, host)
}

// displayNick returns the client's nick, or "*" if it has none yet -- the
// target used in numeric replies to unregistered clients (spec.md GLOSSARY
// "Numeric reply").
func (c *Client) displayNick() string {
	if c.Nick == "" {
		return "*"
	}
	return c.Nick
}
