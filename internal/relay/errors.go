package relay

import (
	"fmt"

	"github.com/summercat/relayd/internal/names"
	"github.com/summercat/relayd/internal/replies"
)

// RelayError is a structured protocol error: a numeric reply code plus the
// parameters to send with it. Command handlers return these instead of
// writing to the connection directly, so the hub has exactly one
// conversion point from error to wire reply (spec.md §7, DESIGN NOTES §9).
type RelayError struct {
	Numeric int
	Params  []string
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("numeric %d %v", e.Numeric, e.Params)
}

func errNeedMoreParams(command string) *RelayError {
	return &RelayError{
		Numeric: replies.NeedMoreParams,
		Params:  []string{command, "Not enough parameters"},
	}
}

func errNotRegistered() *RelayError {
	return &RelayError{
		Numeric: replies.NotRegistered,
		Params:  []string{"You are not registered."},
	}
}

func errUnknownCommand(command string) *RelayError {
	return &RelayError{
		Numeric: replies.UnknownCommand,
		Params:  []string{command, "Unknown command"},
	}
}

func errNicknameInUse(nick string) *RelayError {
	return &RelayError{
		Numeric: replies.NicknameInUse,
		Params:  []string{nick, "Nickname already in use"},
	}
}

func errNoNicknameGiven() *RelayError {
	return &RelayError{
		Numeric: replies.NoNicknameGiven,
		Params:  []string{"No nickname given"},
	}
}

func errNoSuchChannel(channel string) *RelayError {
	return &RelayError{
		Numeric: replies.NoSuchChannel,
		Params:  []string{channel, "No such channel"},
	}
}

// errFromNameValidation converts a names.Error into the matching RelayError
// numeric (432 for nicks, 403 for channels), per spec.md §4.B/§7.
func errFromNameValidation(err error) *RelayError {
	var ve *names.Error
	if !asNamesError(err, &ve) {
		return &RelayError{Numeric: replies.ErroneousNickname, Params: []string{"*", "Invalid name"}}
	}

	if ve.Kind == names.KindChannel {
		return &RelayError{
			Numeric: replies.NoSuchChannel,
			Params:  []string{ve.Input, "Invalid channel name"},
		}
	}

	return &RelayError{
		Numeric: replies.ErroneousNickname,
		Params:  []string{ve.Input, "Erroneous nickname"},
	}
}

func asNamesError(err error, target **names.Error) bool {
	ve, ok := err.(*names.Error)
	if !ok {
		return false
	}
	*target = ve
	return true
}
