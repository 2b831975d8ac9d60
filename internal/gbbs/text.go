package gbbs

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// displayRune maps GBBS line endings to LF and replaces control characters
// the board never meant to show with U+FFFD.
func displayRune(r rune) rune {
	switch {
	case r == '\r':
		return '\n'
	case r == '\n', r == '\t':
		return r
	case r < 0x20, r == 0x7F:
		return utf8.RuneError
	}
	return r
}

var isNul = runes.Predicate(func(r rune) bool { return r == 0 })

// Render converts decoded bytes into display text. NUL padding is dropped,
// CR becomes LF and other control bytes are replaced rather than failing
// the message.
func Render(raw []byte) string {
	t := transform.Chain(runes.Remove(isNul), runes.Map(displayRune))
	out, _, err := transform.Bytes(t, raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

// SplitMail splits a decoded mail chain on EOT. Every fragment before an
// EOT is returned verbatim; the fragment after the last EOT is returned only
// when it carries something besides NUL padding.
func SplitMail(raw []byte) [][]byte {
	parts := bytes.Split(raw, []byte{EOT})
	last := parts[len(parts)-1]
	if len(bytes.Trim(last, "\x00")) == 0 {
		parts = parts[:len(parts)-1]
	}
	return parts
}
