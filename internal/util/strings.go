// Package util holds the text helpers shared by the notification and
// summary renderers.
package util

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Ellipsis marks truncated text.
const Ellipsis = "..."

// wordBoundaryWindow is how far back from the cut TruncateRunes looks for
// whitespace, as a fraction of maxLen.
const wordBoundaryWindow = 4

// TruncateRunes limits s to maxLen runes including the ellipsis. The cut
// moves back to the last whitespace when one falls in the final quarter of
// the limit, so messages do not end mid-word. ANSI sequences are counted as
// text; use TruncateANSI for styled output.
func TruncateRunes(s string, maxLen int) string {
	if maxLen <= len(Ellipsis) {
		return Ellipsis
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	cut := maxLen - len(Ellipsis)
	floor := cut - cut/wordBoundaryWindow
	for i := cut; i > floor; i-- {
		if unicode.IsSpace(runes[i]) {
			return strings.TrimRightFunc(string(runes[:i]), unicode.IsSpace) + Ellipsis
		}
	}
	return string(runes[:cut]) + Ellipsis
}

// TruncateANSI limits s to maxWidth terminal columns, keeping escape
// sequences intact and counting wide characters by their display width.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= len(Ellipsis) {
		return Ellipsis
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	return ansi.Truncate(s, maxWidth, Ellipsis)
}

// MaskSecret hides all but the last visible characters of a token. Short
// tokens are hidden entirely and an empty one reads "(not set)".
func MaskSecret(secret string, visible int) string {
	const mask = "****"
	switch {
	case secret == "":
		return "(not set)"
	case len(secret) <= visible*2:
		return mask
	default:
		return mask + secret[len(secret)-visible:]
	}
}
