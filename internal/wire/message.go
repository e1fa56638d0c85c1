// Package wire implements the line-oriented IRC wire codec: parsing a raw
// protocol line into a Message and serialising a Message back to the wire.
package wire

import (
	"fmt"
	"strings"
)

// MaxLineLength is the maximum protocol message length, including the
// trailing CRLF.
const MaxLineLength = 512

// Message holds one parsed (or to-be-serialised) protocol message. See
// RFC 1459/2812 section 2.3.1.
type Message struct {
	// Prefix is blank if the message had none.
	Prefix string

	// Command is the IRC verb, upper-cased, or a 3 digit numeric.
	Command string

	// Params has at most 15 elements. Only the last may contain spaces.
	Params []string
}

func (m Message) String() string {
	return fmt.Sprintf("Prefix [%s] Command [%s] Params %q", m.Prefix, m.Command,
		m.Params)
}

// SourceNick returns the nickname portion of the prefix, or "" if the prefix
// is blank or has no nickname portion.
func (m Message) SourceNick() string {
	idx := strings.IndexByte(m.Prefix, '!')
	if idx == -1 {
		return ""
	}
	return m.Prefix[:idx]
}
