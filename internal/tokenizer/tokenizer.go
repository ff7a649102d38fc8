package tokenizer

// Offset is a [start, stop) byte range into the original input text.
type Offset struct {
	Start int
	Stop  int
}

// Encoding is the raw output of a tokenizer for one input.
// All slices have the same length.
type Encoding struct {
	IDs         []uint32
	TypeIDs     []uint32
	Offsets     []Offset
	SpecialMask []uint32
	Tokens      []string
}

// Len returns the number of tokens in the encoding.
func (e Encoding) Len() int { return len(e.IDs) }

func (e *Encoding) push(id, typeID uint32, off Offset, special bool, token string) {
	var mask uint32
	if special {
		mask = 1
	}
	e.IDs = append(e.IDs, id)
	e.TypeIDs = append(e.TypeIDs, typeID)
	e.Offsets = append(e.Offsets, off)
	e.SpecialMask = append(e.SpecialMask, mask)
	e.Tokens = append(e.Tokens, token)
}

// EncodeInput is a single text or a sentence pair.
type EncodeInput struct {
	Text   string
	Pair   string
	IsPair bool
}

// Single wraps one text for encoding.
func Single(text string) EncodeInput {
	return EncodeInput{Text: text}
}

// Pair wraps a sentence pair for encoding. The second sequence is
// assigned token type id 1.
func Pair(a, b string) EncodeInput {
	return EncodeInput{Text: a, Pair: b, IsPair: true}
}

// Tokenizer converts text to encodings and token ids back to text.
//
// Implementations must make Clone cheap: the vocabulary and merge
// tables are shared read-only, only per-instance scratch state is
// duplicated. A clone is safe to use from a different goroutine than
// its origin as long as each instance has a single owner.
type Tokenizer interface {
	Encode(input EncodeInput, addSpecialTokens bool, trunc *Truncation) (Encoding, error)
	Decode(ids []uint32, skipSpecialTokens bool) (string, error)
	Clone() Tokenizer
}
