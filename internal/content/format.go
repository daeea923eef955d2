// Package content renders the final push text for a message: sentence-break
// normalization for narrow chat bubbles plus the optional amount annotation.
// Both passes are idempotent, so re-formatting an already formatted body is a
// no-op.
package content

import (
	"strings"

	"github.com/hsinyuc/linecast/internal/domain/message"
)

const amountLabel = "金額"

var symbols = map[message.Currency]string{
	message.CurrencyTWD: "NT$",
	message.CurrencyUSD: "US$",
	message.CurrencyAUD: "AU$",
}

// Format normalizes sentence breaks in body and, when both currency and
// amount are set, appends "金額: <symbol><amount>" unless that exact rendering
// already appears in the text. An unrecognized currency code has no symbol;
// the amount is appended bare.
func Format(body string, currency message.Currency, amount string) string {
	out := breakSentences(body)
	if currency == "" || amount == "" {
		return out
	}
	rendered := symbols[currency] + amount
	if strings.Contains(out, rendered) {
		return out
	}
	return out + "\n\n" + amountLabel + ": " + rendered
}

// breakSentences inserts a line break after sentence-terminal punctuation
// that is not already followed by one. A latin full stop only counts when
// followed by whitespace, so decimals and URLs stay intact.
func breakSentences(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 16)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		b.WriteRune(r)

		var next rune
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch r {
		case '。', '！', '？', '!', '?':
			if next != 0 && next != '\n' {
				b.WriteRune('\n')
			}
		case '.':
			if next == ' ' || next == '　' {
				j := i + 1
				for j < len(runes) && (runes[j] == ' ' || runes[j] == '　') {
					j++
				}
				if j < len(runes) {
					b.WriteRune('\n')
					i = j - 1
				}
			}
		}
	}
	return b.String()
}
