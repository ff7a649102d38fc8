package tokenization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/tokend/internal/tokenizer"
)

func TestIntoTokens(t *testing.T) {
	t.Parallel()

	enc := tokenizer.Encoding{
		IDs:         []uint32{9, 4, 5},
		TypeIDs:     []uint32{0, 0, 0},
		Offsets:     []tokenizer.Offset{{}, {Start: 0, Stop: 2}, {Start: 2, Stop: 3}},
		SpecialMask: []uint32{1, 0, 0},
		Tokens:      []string{"<s>", "he", "Ġ"},
	}

	tokens := IntoTokens(enc, "he x")
	require.Len(t, tokens, 3)

	// Special tokens carry their vocabulary text and no span.
	assert.Equal(t, "<s>", tokens[0].Text)
	assert.True(t, tokens[0].Special)
	assert.Nil(t, tokens[0].Start)
	assert.Nil(t, tokens[0].Stop)

	assert.Equal(t, "he", tokens[1].Text)
	assert.False(t, tokens[1].Special)
	require.NotNil(t, tokens[1].Start)
	require.NotNil(t, tokens[1].Stop)
	assert.Equal(t, 0, *tokens[1].Start)
	assert.Equal(t, 2, *tokens[1].Stop)

	// The text comes from the input, not the vocabulary.
	assert.Equal(t, " ", tokens[2].Text)
}

func TestIntoTokensLossySlicing(t *testing.T) {
	t.Parallel()

	enc := tokenizer.Encoding{
		IDs:         []uint32{1, 2},
		TypeIDs:     []uint32{0, 0},
		Offsets:     []tokenizer.Offset{{Start: 0, Stop: 1}, {Start: 0, Stop: 99}},
		SpecialMask: []uint32{0, 0},
		Tokens:      []string{"a", "b"},
	}

	// "é" is two bytes; an offset splitting it yields a replacement
	// character, and out-of-range offsets are clamped.
	tokens := IntoTokens(enc, "é")
	require.Len(t, tokens, 2)
	assert.Equal(t, "�", tokens[0].Text)
	assert.Equal(t, "é", tokens[1].Text)
}

func TestSliceLossy(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "bc", sliceLossy("abcd", 1, 3))
	assert.Equal(t, "", sliceLossy("abcd", 3, 1))
	assert.Equal(t, "abcd", sliceLossy("abcd", -5, 99))
}
