package wire

import (
	"fmt"
	"strings"
)

// Encode serialises prefix/command/params into a wire line terminated by
// CRLF.
//
// command may be a string (uppercased unless it is a 3 digit numeric) or an
// int in [0, 999] (formatted as exactly three zero-padded digits).
//
// The last parameter is prefixed with ':' if it is empty, contains a space,
// or itself begins with ':'. It is an error for any earlier parameter to
// require that treatment, since only the final parameter may contain spaces.
func Encode(prefix string, command interface{}, params []string) (string, error) {
	var cmd string
	switch c := command.(type) {
	case string:
		if isNumericToken(c) {
			cmd = c
		} else {
			cmd = strings.ToUpper(c)
		}
	case int:
		if c < 0 || c > 999 {
			return "", fmt.Errorf("numeric command out of range: %d", c)
		}
		cmd = fmt.Sprintf("%03d", c)
	default:
		return "", fmt.Errorf("unsupported command type %T", command)
	}

	if cmd == "" {
		return "", fmt.Errorf("command is empty")
	}

	if len(params) > 15 {
		return "", fmt.Errorf("too many parameters (%d)", len(params))
	}

	var b strings.Builder
	if prefix != "" {
		b.WriteByte(':')
		b.WriteString(prefix)
		b.WriteByte(' ')
	}
	b.WriteString(cmd)

	for i, p := range params {
		needsColon := p == "" || strings.IndexByte(p, ' ') != -1 ||
			(len(p) > 0 && p[0] == ':')
		if needsColon && i+1 != len(params) {
			return "", fmt.Errorf(
				"parameter %d needs ':' prefix but is not the last parameter", i)
		}
		b.WriteByte(' ')
		if needsColon {
			b.WriteByte(':')
		}
		b.WriteString(p)
	}

	b.WriteString("\r\n")

	if b.Len() > MaxLineLength {
		return "", fmt.Errorf("encoded message exceeds %d bytes", MaxLineLength)
	}

	return b.String(), nil
}

// Message.Encode serialises the message using its own fields.
func (m Message) Encode() (string, error) {
	return Encode(m.Prefix, m.Command, m.Params)
}

func isNumericToken(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
