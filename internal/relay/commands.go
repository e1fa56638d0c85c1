package relay

import (
	"sort"
	"strings"

	"github.com/summercat/relayd/internal/names"
	"github.com/summercat/relayd/internal/replies"
	"github.com/summercat/relayd/internal/wire"
)

// cmdNick handles NICK: initial registration, a later nick change, or the
// "no nickname given" edge case (spec.md §4.E). A NICK to a client's own
// current nick (compared case-insensitively) is accepted as a no-op -- it is
// not treated as a collision against itself.
func (h *Hub) cmdNick(c *Client, m wire.Message) error {
	if len(m.Params) < 1 || m.Params[0] == "" {
		return errNoNicknameGiven()
	}

	nick, err := names.Nickname(m.Params[0])
	if err != nil {
		return errFromNameValidation(err)
	}

	if c.Nick != "" && lowerNick(nick) == lowerNick(c.Nick) {
		return nil
	}

	if cur, exists := h.nicks[lowerNick(nick)]; exists && cur.ID != c.ID {
		return errNicknameInUse(nick)
	}

	oldNick := c.Nick
	hadNick := oldNick != ""
	oldMask := c.Mask()

	if hadNick {
		delete(h.nicks, lowerNick(oldNick))
	}
	c.Nick = nick
	h.nicks[lowerNick(nick)] = c

	if hadNick {
		// Recipients are the visibility set plus the renaming client itself
		// (spec.md §4.E: "the union of members ... including the client
		// itself").
		recipients := append(h.visibilitySet(c), c.ID)
		for _, id := range recipients {
			if target, ok := h.clients[id]; ok {
				target.out.Send(oldMask, "NICK", []string{nick})
			}
		}
	}

	if !c.Registered && c.Nick != "" && c.User != "" {
		h.completeRegistration(c)
	}

	return nil
}

// cmdUser handles USER: the second half of registration (spec.md §4.E).
func (h *Hub) cmdUser(c *Client, m wire.Message) error {
	if c.Registered {
		return nil
	}

	if len(m.Params) < 4 {
		return errNeedMoreParams("USER")
	}

	c.User = m.Params[0]
	c.RealName = m.Params[3]

	if c.Nick != "" && c.User != "" {
		h.completeRegistration(c)
	}

	return nil
}

// completeRegistration sends the welcome numeric sequence once both NICK
// and USER have been seen (spec.md §4.E, GLOSSARY "Registration").
func (h *Hub) completeRegistration(c *Client) {
	c.Registered = true

	h.sendNumeric(c, replies.Welcome, replies.WelcomeParams(c.Mask()))
	h.sendNumeric(c, replies.YourHost, replies.YourHostParams(h.serverName, h.version))
	h.sendNumeric(c, replies.Created, replies.CreatedParams(h.createdDate))
	h.sendNumeric(c, replies.MyInfo, replies.MyInfoParams(h.serverName, h.version))
	h.sendNumeric(c, replies.ISupport, replies.ISupportParams())

	lines := h.motd.Lines()
	h.sendNumeric(c, replies.MOTDStart, replies.MOTDStartParams(h.serverName))
	for _, line := range lines {
		h.sendNumeric(c, replies.MOTD, replies.MOTDLineParams(line))
	}
	h.sendNumeric(c, replies.EndOfMOTD, replies.EndOfMOTDParams())
}

// cmdJoin handles JOIN: validate the channel name, create it if absent,
// add the client, broadcast JOIN to every member (including the joiner),
// then answer with NAMES (spec.md §4.E).
func (h *Hub) cmdJoin(c *Client, m wire.Message) error {
	if len(m.Params) < 1 || m.Params[0] == "" {
		return errNeedMoreParams("JOIN")
	}

	channel, err := names.Channel(m.Params[0])
	if err != nil {
		return errFromNameValidation(err)
	}

	key := lowerNick(channel)
	ch, exists := h.channels[key]
	mode := modeNone
	if !exists {
		ch = newChannel(channel)
		h.channels[key] = ch
		mode = modeOp
	}

	if ch.has(c.ID) {
		return nil
	}

	ch.add(c, mode)
	c.Channels[key] = ch

	for _, id := range ch.memberIDs() {
		if target, ok := h.clients[id]; ok {
			target.out.Send(c.Mask(), "JOIN", []string{channel})
		}
	}

	h.sendNames(c, ch)

	return nil
}

// sendNames answers with RPL_NAMREPLY (possibly several, though this core
// never splits the list) and RPL_ENDOFNAMES for ch.
func (h *Hub) sendNames(c *Client, ch *Channel) {
	var entries []string
	for _, id := range ch.memberIDs() {
		member, ok := h.clients[id]
		if !ok {
			continue
		}
		prefix := ch.members[id].String()
		entries = append(entries, prefix+member.Nick)
	}
	sort.Strings(entries)

	h.sendNumeric(c, replies.NamReply, replies.NamReplyParams(ch.Name, strings.Join(entries, " ")))
	h.sendNumeric(c, replies.EndOfNames, replies.EndOfNamesParams(ch.Name))
}

// cmdPart handles PART: the client must currently be a member, else this
// is NoSuchChannel.
func (h *Hub) cmdPart(c *Client, m wire.Message) error {
	if len(m.Params) < 1 || m.Params[0] == "" {
		return errNeedMoreParams("PART")
	}

	channel, err := names.Channel(m.Params[0])
	if err != nil {
		return errFromNameValidation(err)
	}

	key := lowerNick(channel)
	ch, exists := h.channels[key]
	if !exists || !ch.has(c.ID) {
		return errNoSuchChannel(channel)
	}

	for _, id := range ch.memberIDs() {
		if target, ok := h.clients[id]; ok {
			target.out.Send(c.Mask(), "PART", []string{ch.Name})
		}
	}

	ch.remove(c.ID)
	delete(c.Channels, key)

	if ch.isEmpty() {
		delete(h.channels, key)
	}

	return nil
}

// cmdPrivmsg handles PRIVMSG. Only channel targets are relayed; a nick
// target or a channel the sender hasn't joined is silently dropped rather
// than answered with an error (spec.md §4.E "PRIVMSG to a nick... is
// silently dropped", applied here to channels the sender is not in too).
func (h *Hub) cmdPrivmsg(c *Client, m wire.Message) error {
	return h.relayChannelOrDrop(c, m, "PRIVMSG")
}

// cmdNotice handles NOTICE identically to PRIVMSG except it never produces
// an error reply, even for missing parameters (spec.md GLOSSARY "NOTICE
// semantics").
func (h *Hub) cmdNotice(c *Client, m wire.Message) error {
	if !c.Registered {
		return nil
	}
	_ = h.relayChannelOrDrop(c, m, "NOTICE")
	return nil
}

func (h *Hub) relayChannelOrDrop(c *Client, m wire.Message, command string) error {
	if len(m.Params) < 2 {
		if command == "NOTICE" {
			return nil
		}
		return errNeedMoreParams(command)
	}

	target := m.Params[0]
	text := m.Params[1]

	if !strings.HasPrefix(target, "#") {
		return nil
	}

	key := lowerNick(target)
	ch, exists := h.channels[key]
	if !exists || !ch.has(c.ID) {
		return nil
	}

	for _, id := range ch.memberIDs() {
		if id == c.ID {
			continue
		}
		if member, ok := h.clients[id]; ok {
			member.out.Send(c.Mask(), command, []string{ch.Name, text})
		}
	}

	return nil
}

// cmdQuit handles an explicit QUIT: broadcast to the visibility set, then
// close the connection, which drives LOST_CLIENT cleanup (spec.md §4.E
// distinguishes this from an abrupt disconnect).
func (h *Hub) cmdQuit(c *Client, m wire.Message) error {
	reason := "Client Quit"
	if len(m.Params) > 0 && m.Params[0] != "" {
		reason = m.Params[0]
	}

	vis := h.visibilitySet(c)
	for _, id := range vis {
		if target, ok := h.clients[id]; ok {
			target.out.Send(c.Mask(), "QUIT", []string{reason})
		}
	}

	c.out.Close()
	return nil
}

// cmdPing answers PING with "PONG :server-name" immediately (spec.md §4.E).
func (h *Hub) cmdPing(c *Client, m wire.Message) error {
	c.out.Send(h.serverName, "PONG", []string{h.serverName})
	return nil
}

// visibilitySet returns, in no particular order and without duplicates,
// the IDs of every client (other than c) who shares at least one channel
// with c -- the fan-out set for NICK changes and QUIT (spec.md §4.E).
func (h *Hub) visibilitySet(c *Client) []uint64 {
	seen := make(map[uint64]bool)
	var out []uint64

	for _, ch := range c.Channels {
		for _, id := range ch.memberIDs() {
			if id == c.ID || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}

	return out
}
