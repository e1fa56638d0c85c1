package wire

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is returned (possibly wrapped) by ParseLine when the line
// cannot be parsed into a Message at all: empty input, a prefix with no
// following command, or a command token that is missing.
var ErrMalformed = errors.New("malformed message")

// ParseLine parses one wire line, already stripped of its CR/LF terminator,
// into a Message.
//
// Grammar (see RFC 1459/2812 section 2.3.1, restricted to a single line):
//
//	line    := [':' prefix SPACE] command SPACE params
//	prefix  := servername | nick ['!' user] ['@' host]
//	command := letter+ | digit digit digit
//	params  := param (SPACE param)*  with at most one trailing ':'-prefixed param
func ParseLine(line string) (Message, error) {
	if line == "" {
		return Message{}, fmt.Errorf("empty line: %w", ErrMalformed)
	}

	if len(line) > MaxLineLength-2 {
		return Message{}, fmt.Errorf("line exceeds %d bytes: %w", MaxLineLength,
			ErrMalformed)
	}

	var msg Message
	idx := 0

	if line[0] == ':' {
		sp := strings.IndexByte(line, ' ')
		if sp <= 1 {
			return Message{}, fmt.Errorf("prefix with no following command: %w",
				ErrMalformed)
		}
		msg.Prefix = line[1:sp]
		idx = sp + 1
	}

	if idx >= len(line) {
		return Message{}, fmt.Errorf("missing command: %w", ErrMalformed)
	}

	cmdTok, next := nextToken(line, idx)
	if cmdTok == "" {
		return Message{}, fmt.Errorf("empty command: %w", ErrMalformed)
	}
	msg.Command = strings.ToUpper(cmdTok)

	params, err := parseParams(line, next)
	if err != nil {
		return Message{}, err
	}
	msg.Params = params

	return msg, nil
}

// nextToken returns the whitespace-delimited token starting at idx and the
// index just after the token's terminating space (or len(line) if there was
// none).
func nextToken(line string, idx int) (string, int) {
	sp := strings.IndexByte(line[idx:], ' ')
	if sp == -1 {
		return line[idx:], len(line)
	}
	return line[idx : idx+sp], idx + sp + 1
}

// parseParams parses the parameter list starting at idx, which points just
// past the command token (and its separating space, if any).
func parseParams(line string, idx int) ([]string, error) {
	if idx >= len(line) {
		return nil, nil
	}

	rest := line[idx:]

	var params []string

	if rest[0] == ':' {
		params = []string{rest[1:]}
	} else if at := strings.Index(rest, " :"); at != -1 {
		middle := rest[:at]
		if middle != "" {
			params = strings.Fields(middle)
		}
		params = append(params, rest[at+2:])
	} else {
		params = strings.Fields(rest)
	}

	if len(params) > 15 {
		return nil, fmt.Errorf("too many parameters (%d): %w", len(params),
			ErrMalformed)
	}

	return params, nil
}
