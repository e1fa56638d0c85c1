package relay

import "time"

// memberMode is the single-character NAMES prefix. It is cosmetic only --
// the core enforces no privilege based on it (spec.md §3).
type memberMode byte

const (
	modeNone   memberMode = 0
	modeVoice  memberMode = '+'
	modeOp     memberMode = '@'
)

func (m memberMode) String() string {
	if m == modeNone {
		return ""
	}
	return string(m)
}

// Channel holds the membership list for one channel, indexed by client ID
// for O(1) fan-out and cleanup (spec.md DESIGN NOTES §9), instead of the
// teacher's flat (channel, client, mode) triple scan.
type Channel struct {
	// Name is the display-cased form of however it was first JOINed.
	Name string

	CreatedAt time.Time

	// members maps client ID to that client's membership mode.
	members map[uint64]memberMode
	// order preserves JOIN order; fan-out visits members in this order.
	// NAMES output is sorted separately (see sendNames).
	order []uint64
}

func newChannel(name string) *Channel {
	return &Channel{
		Name:      name,
		CreatedAt: time.Now(),
		members:   make(map[uint64]memberMode),
	}
}

func (ch *Channel) add(client *Client, mode memberMode) {
	if _, exists := ch.members[client.ID]; exists {
		return
	}
	ch.members[client.ID] = mode
	ch.order = append(ch.order, client.ID)
}

func (ch *Channel) remove(clientID uint64) {
	if _, exists := ch.members[clientID]; !exists {
		return
	}
	delete(ch.members, clientID)
	for i, id := range ch.order {
		if id == clientID {
			ch.order = append(ch.order[:i], ch.order[i+1:]...)
			break
		}
	}
}

func (ch *Channel) has(clientID uint64) bool {
	_, exists := ch.members[clientID]
	return exists
}

func (ch *Channel) isEmpty() bool {
	return len(ch.members) == 0
}

// memberIDs returns member client IDs in join order.
func (ch *Channel) memberIDs() []uint64 {
	out := make([]uint64, len(ch.order))
	copy(out, ch.order)
	return out
}
