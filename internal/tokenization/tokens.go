package tokenization

import (
	"strings"

	"github.com/samcharles93/tokend/internal/tokenizer"
)

// IntoTokens projects a raw encoding onto the original input text,
// producing one SimpleToken per position. Special tokens have no
// source span and carry their vocabulary text; everything else is
// sliced out of the input by byte offset and decoded leniently, so
// offsets landing inside a damaged byte sequence can never fail.
func IntoTokens(enc tokenizer.Encoding, input string) []SimpleToken {
	out := make([]SimpleToken, 0, enc.Len())
	for i := range enc.IDs {
		if enc.SpecialMask[i] == 1 {
			out = append(out, SimpleToken{
				ID:      enc.IDs[i],
				Text:    enc.Tokens[i],
				Special: true,
			})
			continue
		}
		start := enc.Offsets[i].Start
		stop := enc.Offsets[i].Stop
		out = append(out, SimpleToken{
			ID:      enc.IDs[i],
			Text:    sliceLossy(input, start, stop),
			Special: false,
			Start:   &start,
			Stop:    &stop,
		})
	}
	return out
}

// sliceLossy extracts input[start:stop), clamping out-of-range offsets
// and replacing invalid UTF-8 rather than failing.
func sliceLossy(input string, start, stop int) string {
	if start < 0 {
		start = 0
	}
	if stop > len(input) {
		stop = len(input)
	}
	if start >= stop {
		return ""
	}
	return strings.ToValidUTF8(input[start:stop], "�")
}
