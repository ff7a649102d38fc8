package tokenization

import (
	"fmt"
	"unicode/utf8"
)

// EncodingInput is the tagged union of accepted inputs: a single text,
// a sentence pair, or pre-tokenized ids. The set of variants is closed;
// switches over it use an exhaustive default panic so a new variant is
// a compile-visible change everywhere it matters.
type EncodingInput interface {
	isEncodingInput()
}

// SingleInput is one text sequence.
type SingleInput string

// DualInput is a sentence pair, tokenized as two type-id sequences.
type DualInput struct {
	A string
	B string
}

// IdsInput is a pre-tokenized id sequence.
type IdsInput []uint32

func (SingleInput) isEncodingInput() {}
func (DualInput) isEncodingInput()   {}
func (IdsInput) isEncodingInput()    {}

func inputIsEmpty(in EncodingInput) bool {
	switch v := in.(type) {
	case SingleInput:
		return len(v) == 0
	case DualInput:
		return len(v.A) == 0 && len(v.B) == 0
	case IdsInput:
		return len(v) == 0
	default:
		panic(fmt.Sprintf("tokenization: unknown input variant %T", in))
	}
}

// countChars measures the input against the character ceiling. Dual
// inputs sum both strings; id sequences count one unit per id.
func countChars(in EncodingInput) int {
	switch v := in.(type) {
	case SingleInput:
		return utf8.RuneCountInString(string(v))
	case DualInput:
		return utf8.RuneCountInString(v.A) + utf8.RuneCountInString(v.B)
	case IdsInput:
		return len(v)
	default:
		panic(fmt.Sprintf("tokenization: unknown input variant %T", in))
	}
}

// applyLimit truncates oversized text inputs to the character budget,
// half per side for pairs. Id inputs are exempt. The cut never lands
// inside a multi-byte character.
func applyLimit(in EncodingInput, limit int) EncodingInput {
	switch v := in.(type) {
	case SingleInput:
		return SingleInput(truncateAtBoundary(string(v), limit))
	case DualInput:
		return DualInput{
			A: truncateAtBoundary(v.A, limit/2),
			B: truncateAtBoundary(v.B, limit/2),
		}
	case IdsInput:
		return v
	default:
		panic(fmt.Sprintf("tokenization: unknown input variant %T", in))
	}
}

// truncateAtBoundary cuts s to at most limit bytes, backing up to the
// nearest rune boundary so the result stays valid UTF-8.
func truncateAtBoundary(s string, limit int) string {
	if limit < 0 {
		limit = 0
	}
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// ValidEncoding is a model-ready encode result: three equal-length
// sequences whose length never exceeds the configured max input length.
// PositionIDs[i] == positionOffset + i.
type ValidEncoding struct {
	InputIDs     []uint32
	TokenTypeIDs []uint32
	PositionIDs  []uint32
}

// SimpleToken is one token of a tokenize result in human-readable
// form. Start and Stop are byte offsets into the original input; they
// are nil for special tokens, which have no source span.
type SimpleToken struct {
	ID      uint32 `json:"id"`
	Text    string `json:"text"`
	Special bool   `json:"special"`
	Start   *int   `json:"start"`
	Stop    *int   `json:"stop"`
}
