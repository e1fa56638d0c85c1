package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summercat/relayd/internal/replies"
	"github.com/summercat/relayd/internal/wire"
)

// fakeSender records every outbound message for assertions instead of
// going over a real socket, mirroring how the teacher's tests use
// testify/require against in-memory state rather than wire bytes.
type fakeSender struct {
	sent   []outboundMsg
	closed bool
}

func (f *fakeSender) Send(prefix string, command interface{}, params []string) {
	f.sent = append(f.sent, outboundMsg{prefix: prefix, command: command, params: params})
}

func (f *fakeSender) Close() {
	f.closed = true
}

func (f *fakeSender) numerics() []int {
	var out []int
	for _, m := range f.sent {
		if n, ok := m.command.(int); ok {
			out = append(out, n)
		}
	}
	return out
}

func (f *fakeSender) last() outboundMsg {
	return f.sent[len(f.sent)-1]
}

func newTestHub() *Hub {
	return NewHub(Config{
		ServerName:  "irc.example.test",
		ServerInfo:  "test server",
		Version:     "relayd-test",
		CreatedDate: "2026-01-01",
	})
}

// connectClient synthesizes a client as the hub would see it from
// Endpoint.Serve, without a real net.Conn.
func connectClient(h *Hub, id uint64) (*Client, *fakeSender) {
	fs := &fakeSender{}
	c := newClient(id, "127.0.0.1", "127.0.0.1", fs)
	h.onNewClient(c)
	return c, fs
}

func register(t *testing.T, h *Hub, id uint64, nick string) (*Client, *fakeSender) {
	t.Helper()
	c, fs := connectClient(h, id)
	h.onMessage(c, wire.Message{Command: "NICK", Params: []string{nick}})
	h.onMessage(c, wire.Message{Command: "USER", Params: []string{"u", "0", "*", "Real Name"}})
	require.True(t, c.Registered)
	return c, fs
}

func TestRegistrationSequence(t *testing.T) {
	h := newTestHub()
	_, fs := register(t, h, 1, "alice")

	got := fs.numerics()
	want := []int{
		replies.Welcome, replies.YourHost, replies.Created, replies.MyInfo,
		replies.ISupport, replies.MOTDStart, replies.EndOfMOTD,
	}
	assert.Equal(t, want, got)
}

func TestNicknameCollision(t *testing.T) {
	h := newTestHub()
	register(t, h, 1, "alice")

	c2, fs2 := connectClient(h, 2)
	h.onMessage(c2, wire.Message{Command: "NICK", Params: []string{"alice"}})

	require.Len(t, fs2.sent, 1)
	assert.Equal(t, replies.NicknameInUse, fs2.last().command)
	assert.False(t, c2.Registered)
}

func TestNickIsIdempotent(t *testing.T) {
	h := newTestHub()
	c, fs := register(t, h, 1, "alice")

	before := len(fs.sent)
	h.onMessage(c, wire.Message{Command: "NICK", Params: []string{"alice"}})
	assert.Equal(t, before, len(fs.sent), "re-sending the same nick must be a no-op")
}

func TestUnregisteredCommandRejected(t *testing.T) {
	h := newTestHub()
	c, fs := connectClient(h, 1)

	h.onMessage(c, wire.Message{Command: "JOIN", Params: []string{"#general"}})

	require.Len(t, fs.sent, 1)
	assert.Equal(t, replies.NotRegistered, fs.last().command)
}

func TestJoinAndNames(t *testing.T) {
	h := newTestHub()
	c1, fs1 := register(t, h, 1, "alice")
	c2, fs2 := register(t, h, 2, "bob")

	h.onMessage(c1, wire.Message{Command: "JOIN", Params: []string{"#general"}})
	h.onMessage(c2, wire.Message{Command: "JOIN", Params: []string{"#general"}})

	// alice sees bob's JOIN broadcast.
	found := false
	for _, m := range fs1.sent {
		if m.command == "JOIN" {
			found = true
			assert.Equal(t, []string{"#general"}, m.params)
		}
	}
	assert.True(t, found, "alice should observe bob's JOIN")

	last2 := fs2.numerics()
	assert.Contains(t, last2, replies.NamReply)
	assert.Contains(t, last2, replies.EndOfNames)

	ch, ok := h.channels["#general"]
	require.True(t, ok)
	assert.True(t, ch.has(c1.ID))
	assert.True(t, ch.has(c2.ID))
}

func TestPrivmsgBroadcastToChannel(t *testing.T) {
	h := newTestHub()
	c1, _ := register(t, h, 1, "alice")
	c2, fs2 := register(t, h, 2, "bob")

	h.onMessage(c1, wire.Message{Command: "JOIN", Params: []string{"#general"}})
	h.onMessage(c2, wire.Message{Command: "JOIN", Params: []string{"#general"}})
	fs2.sent = nil

	h.onMessage(c1, wire.Message{Command: "PRIVMSG", Params: []string{"#general", "hello"}})

	require.Len(t, fs2.sent, 1)
	msg := fs2.last()
	assert.Equal(t, "PRIVMSG", msg.command)
	assert.Equal(t, []string{"#general", "hello"}, msg.params)
}

func TestPrivmsgToNickIsSilentlyDropped(t *testing.T) {
	h := newTestHub()
	c1, fs1 := register(t, h, 1, "alice")
	_, fs2 := register(t, h, 2, "bob")
	fs1.sent, fs2.sent = nil, nil

	h.onMessage(c1, wire.Message{Command: "PRIVMSG", Params: []string{"bob", "hi"}})

	assert.Empty(t, fs1.sent)
	assert.Empty(t, fs2.sent)
}

func TestNickChangeBroadcastsToVisibilitySet(t *testing.T) {
	h := newTestHub()
	c1, fs1 := register(t, h, 1, "alice")
	c2, fs2 := register(t, h, 2, "bob")

	h.onMessage(c1, wire.Message{Command: "JOIN", Params: []string{"#general"}})
	h.onMessage(c2, wire.Message{Command: "JOIN", Params: []string{"#general"}})
	fs1.sent, fs2.sent = nil, nil

	h.onMessage(c1, wire.Message{Command: "NICK", Params: []string{"alicia"}})

	// The peer receives it...
	require.Len(t, fs2.sent, 1)
	msg := fs2.last()
	assert.Equal(t, "NICK", msg.command)
	assert.Equal(t, []string{"alicia"}, msg.params)
	assert.Equal(t, "alice", (wire.Message{Prefix: msg.prefix}).SourceNick())

	// ...and so does the renaming client itself (spec.md §4.E: the
	// recipients are the visibility set "including the client itself").
	require.Len(t, fs1.sent, 1)
	selfMsg := fs1.last()
	assert.Equal(t, "NICK", selfMsg.command)
	assert.Equal(t, []string{"alicia"}, selfMsg.params)
	assert.Equal(t, "alice", (wire.Message{Prefix: selfMsg.prefix}).SourceNick())
}

func TestQuitBroadcastsThenCleansUp(t *testing.T) {
	h := newTestHub()
	c1, fs1 := register(t, h, 1, "alice")
	c2, fs2 := register(t, h, 2, "bob")

	h.onMessage(c1, wire.Message{Command: "JOIN", Params: []string{"#general"}})
	h.onMessage(c2, wire.Message{Command: "JOIN", Params: []string{"#general"}})
	fs2.sent = nil

	h.onMessage(c1, wire.Message{Command: "QUIT", Params: []string{"bye"}})
	require.Len(t, fs2.sent, 1)
	assert.Equal(t, "QUIT", fs2.last().command)
	assert.True(t, fs1.closed)

	h.onLostClient(c1)
	_, stillThere := h.nicks["alice"]
	assert.False(t, stillThere)
	ch := h.channels["#general"]
	require.NotNil(t, ch)
	assert.False(t, ch.has(c1.ID))
}

func TestLostClientWithoutQuitDoesNotBroadcast(t *testing.T) {
	h := newTestHub()
	c1, _ := register(t, h, 1, "alice")
	c2, fs2 := register(t, h, 2, "bob")

	h.onMessage(c1, wire.Message{Command: "JOIN", Params: []string{"#general"}})
	h.onMessage(c2, wire.Message{Command: "JOIN", Params: []string{"#general"}})
	fs2.sent = nil

	h.onLostClient(c1)

	assert.Empty(t, fs2.sent, "abrupt disconnect must not broadcast to the visibility set")
	_, exists := h.clients[c1.ID]
	assert.False(t, exists)
}

func TestPartRequiresMembership(t *testing.T) {
	h := newTestHub()
	c, fs := register(t, h, 1, "alice")

	h.onMessage(c, wire.Message{Command: "PART", Params: []string{"#nope"}})

	require.Len(t, fs.sent, 1)
	assert.Equal(t, replies.NoSuchChannel, fs.last().command)
}

func TestPingRepliesWithPong(t *testing.T) {
	h := newTestHub()
	c, fs := register(t, h, 1, "alice")
	fs.sent = nil

	h.onMessage(c, wire.Message{Command: "PING", Params: []string{"irc.example.test"}})

	require.Len(t, fs.sent, 1)
	assert.Equal(t, "PONG", fs.last().command)
}

func TestUnknownCommandRepliesWithNumeric(t *testing.T) {
	h := newTestHub()
	c, fs := register(t, h, 1, "alice")
	fs.sent = nil

	h.onMessage(c, wire.Message{Command: "FROBNICATE"})

	require.Len(t, fs.sent, 1)
	assert.Equal(t, replies.UnknownCommand, fs.last().command)
}
