// Package names validates and normalises IRC nicknames and channel names.
//
// Both are normalised to Unicode NFC and checked against an allow-listed set
// of Unicode general categories; they differ only in whether the leading
// '#' is required (channels) or forbidden (nicknames), and in whether the
// "other punctuation" category (Po) is permitted (channels only).
package names

import (
	"fmt"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Kind distinguishes the two validation failure modes spec.md gives
// distinct numeric replies for.
type Kind int

const (
	// KindNick is an invalid nickname (maps to numeric 432).
	KindNick Kind = iota
	// KindChannel is an invalid channel name (maps to numeric 403).
	KindChannel
)

// Error reports why a nickname or channel name was rejected, carrying the
// offending character and its Unicode category name for diagnostics.
type Error struct {
	Kind  Kind
	Input string
	// Rune is the offending character. Zero if the input was empty or
	// the '#' sigil rule was violated.
	Rune rune
	// Category is the Unicode general category name of Rune, blank if
	// not applicable.
	Category string
}

func (e *Error) Error() string {
	if e.Rune == 0 {
		return fmt.Sprintf("invalid name %q", e.Input)
	}
	return fmt.Sprintf("invalid character %q (category %s) in %q", e.Rune,
		e.Category, e.Input)
}

// nickCategories is the allow-list for nicknames: letters, numbers, and the
// connector/dash/close punctuation categories. Po (other punctuation) is
// deliberately excluded -- this is what distinguishes nicks from channels.
var nickCategories = []*unicode.RangeTable{
	unicode.L, unicode.N, unicode.Pc, unicode.Pd, unicode.Pe,
}

// channelCategories is the allow-list for the remainder of a channel name
// (after the leading '#'): the same as nicks, plus Po.
var channelCategories = []*unicode.RangeTable{
	unicode.L, unicode.N, unicode.Pc, unicode.Pd, unicode.Pe, unicode.Po,
}

// Nickname validates and NFC-normalises a nickname. It must not begin with
// '#' and must consist only of letters, numbers, or Pc/Pd/Pe punctuation.
func Nickname(s string) (string, error) {
	if s == "" {
		return "", &Error{Kind: KindNick, Input: s}
	}

	normalized := norm.NFC.String(s)

	if normalized[0] == '#' {
		return "", &Error{Kind: KindNick, Input: s}
	}

	for _, r := range normalized {
		if !unicode.In(r, nickCategories...) {
			return "", &Error{
				Kind:     KindNick,
				Input:    s,
				Rune:     r,
				Category: categoryName(r),
			}
		}
	}

	return normalized, nil
}

// Channel validates and NFC-normalises a channel name. It must begin with
// '#' and the remainder must be non-empty and consist only of letters,
// numbers, or Pc/Pd/Pe/Po punctuation.
func Channel(s string) (string, error) {
	if s == "" {
		return "", &Error{Kind: KindChannel, Input: s}
	}

	normalized := norm.NFC.String(s)

	if normalized[0] != '#' {
		return "", &Error{Kind: KindChannel, Input: s}
	}

	rest := normalized[1:]
	if rest == "" {
		return "", &Error{Kind: KindChannel, Input: s}
	}

	for _, r := range rest {
		if !unicode.In(r, channelCategories...) {
			return "", &Error{
				Kind:     KindChannel,
				Input:    s,
				Rune:     r,
				Category: categoryName(r),
			}
		}
	}

	return normalized, nil
}

// categoryName returns the best-effort general category name for r, used
// only for diagnostics on Error.
func categoryName(r rune) string {
	for name, table := range unicode.Categories {
		if len(name) == 2 && unicode.Is(table, r) {
			return name
		}
	}
	return "unknown"
}
