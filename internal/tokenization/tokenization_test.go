package tokenization

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/tokend/internal/logger"
	"github.com/samcharles93/tokend/internal/tokenizer"
)

// runeTokenizer maps every rune to one token whose id is the rune
// value. Deterministic and reversible, so expectations can be written
// by hand without a real vocabulary.
type runeTokenizer struct {
	gate    chan struct{} // when non-nil, Encode blocks until the gate closes
	started chan struct{}
}

func (f *runeTokenizer) Encode(in tokenizer.EncodeInput, _ bool, trunc *tokenizer.Truncation) (tokenizer.Encoding, error) {
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.gate != nil {
		<-f.gate
	}

	var enc tokenizer.Encoding
	appendRunes := func(text string, typeID uint32) {
		cursor := 0
		for _, r := range text {
			size := len(string(r))
			enc.IDs = append(enc.IDs, uint32(r))
			enc.TypeIDs = append(enc.TypeIDs, typeID)
			enc.Offsets = append(enc.Offsets, tokenizer.Offset{Start: cursor, Stop: cursor + size})
			enc.SpecialMask = append(enc.SpecialMask, 0)
			enc.Tokens = append(enc.Tokens, string(r))
			cursor += size
		}
	}
	appendRunes(in.Text, 0)
	if in.IsPair {
		appendRunes(in.Pair, 1)
	}

	if trunc != nil && enc.Len() > trunc.MaxLength {
		n := trunc.MaxLength
		if trunc.Direction == tokenizer.TruncateLeft {
			enc = sliceEncoding(enc, enc.Len()-n, enc.Len())
		} else {
			enc = sliceEncoding(enc, 0, n)
		}
	}
	return enc, nil
}

func (f *runeTokenizer) Decode(ids []uint32, _ bool) (string, error) {
	var b strings.Builder
	for _, id := range ids {
		b.WriteRune(rune(id))
	}
	return b.String(), nil
}

func (f *runeTokenizer) Clone() tokenizer.Tokenizer { return f }

func sliceEncoding(e tokenizer.Encoding, lo, hi int) tokenizer.Encoding {
	return tokenizer.Encoding{
		IDs:         e.IDs[lo:hi],
		TypeIDs:     e.TypeIDs[lo:hi],
		Offsets:     e.Offsets[lo:hi],
		SpecialMask: e.SpecialMask[lo:hi],
		Tokens:      e.Tokens[lo:hi],
	}
}

func quietCtx() context.Context {
	return logger.WithContext(context.Background(), logger.New(slog.DiscardHandler))
}

func newTestPool(t *testing.T, tok tokenizer.Tokenizer, cfg Config) *Tokenization {
	t.Helper()
	pool := New(quietCtx(), tok, cfg)
	t.Cleanup(pool.Close)
	return pool
}

func TestEncodeSingle(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, &runeTokenizer{}, Config{Workers: 1, MaxInputLength: 16})

	enc, err := pool.Encode(context.Background(), SingleInput("hi"), false, tokenizer.TruncateRight, "")
	require.NoError(t, err)
	assert.Equal(t, []uint32{'h', 'i'}, enc.InputIDs)
	assert.Equal(t, []uint32{0, 0}, enc.TokenTypeIDs)
	assert.Equal(t, []uint32{0, 1}, enc.PositionIDs)
}

func TestEncodePositionOffset(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, &runeTokenizer{}, Config{Workers: 1, MaxInputLength: 16, PositionOffset: 5})

	enc, err := pool.Encode(context.Background(), SingleInput("abc"), false, tokenizer.TruncateRight, "")
	require.NoError(t, err)
	assert.Equal(t, []uint32{5, 6, 7}, enc.PositionIDs)
}

func TestEncodeDualInput(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, &runeTokenizer{}, Config{Workers: 1, MaxInputLength: 16})

	enc, err := pool.Encode(context.Background(), DualInput{A: "ab", B: "cd"}, false, tokenizer.TruncateRight, "")
	require.NoError(t, err)
	assert.Equal(t, []uint32{'a', 'b', 'c', 'd'}, enc.InputIDs)
	assert.Equal(t, []uint32{0, 0, 1, 1}, enc.TokenTypeIDs)
}

func TestEncodeTokenLimit(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, &runeTokenizer{}, Config{Workers: 1, MaxInputLength: 8})

	_, err := pool.Encode(context.Background(), SingleInput(strings.Repeat("a", 12)), false, tokenizer.TruncateRight, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	var limitErr *TokenLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.EqualError(t, err, "`inputs` must have less than 8 tokens. Given: 12")
}

func TestEncodeCharacterLimit(t *testing.T) {
	t.Parallel()

	// maxCharMultiplier * 2 = 500 characters.
	pool := newTestPool(t, &runeTokenizer{}, Config{Workers: 1, MaxInputLength: 2})

	_, err := pool.Encode(context.Background(), SingleInput(strings.Repeat("a", 501)), false, tokenizer.TruncateRight, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.EqualError(t, err, "`inputs` must have less than 500 characters. Given: 501")
}

func TestEncodeTruncatesOversizedInput(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, &runeTokenizer{}, Config{Workers: 1, MaxInputLength: 2})

	enc, err := pool.Encode(context.Background(), SingleInput(strings.Repeat("a", 501)), true, tokenizer.TruncateRight, "")
	require.NoError(t, err)
	assert.Equal(t, []uint32{'a', 'a'}, enc.InputIDs)
	assert.Equal(t, []uint32{0, 1}, enc.PositionIDs)
}

func TestTokenizeAppliesPrompt(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, &runeTokenizer{}, Config{
		Workers:        1,
		MaxInputLength: 64,
		Prompts:        map[string]string{"query": "Represent this: "},
	})

	text, enc, err := pool.Tokenize(context.Background(), SingleInput("hello"), true, "query")
	require.NoError(t, err)
	assert.Equal(t, "Represent this: hello", text)
	assert.Equal(t, 21, enc.Len())
}

func TestTokenizeDefaultPrompt(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, &runeTokenizer{}, Config{
		Workers:        1,
		MaxInputLength: 64,
		DefaultPrompt:  "d: ",
	})

	text, _, err := pool.Tokenize(context.Background(), SingleInput("hi"), true, "")
	require.NoError(t, err)
	assert.Equal(t, "d: hi", text)
}

func TestIdsInputWithPrompt(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, &runeTokenizer{}, Config{
		Workers:        1,
		MaxInputLength: 64,
		Prompts:        map[string]string{"query": "q: "},
	})

	// Pre-tokenized "hi" is decoded, prefixed and re-encoded.
	text, enc, err := pool.Tokenize(context.Background(), IdsInput{'h', 'i'}, true, "query")
	require.NoError(t, err)
	assert.Equal(t, "q: hi", text)
	assert.Equal(t, []uint32{'q', ':', ' ', 'h', 'i'}, enc.IDs)
}

func TestDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, &runeTokenizer{}, Config{Workers: 1, MaxInputLength: 16})

	text, err := pool.Decode(context.Background(), []uint32{'h', 'i'}, true)
	require.NoError(t, err)
	assert.Equal(t, "hi", text)
}

// TestValidationBeforeDispatch uses a pool with no running workers and
// an unbuffered queue: if any of these inputs were dispatched, the call
// would block instead of returning an error.
func TestValidationBeforeDispatch(t *testing.T) {
	t.Parallel()

	pool := &Tokenization{
		requests: make(chan request),
		prompts:  map[string]string{"b": "x", "a": "y"},
	}
	ctx := context.Background()

	_, err := pool.Encode(ctx, SingleInput(""), false, tokenizer.TruncateRight, "")
	assert.EqualError(t, err, "`inputs` cannot be empty")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = pool.Encode(ctx, nil, false, tokenizer.TruncateRight, "")
	assert.EqualError(t, err, "`inputs` cannot be empty")

	_, _, err = pool.Tokenize(ctx, DualInput{}, true, "")
	assert.EqualError(t, err, "`inputs` cannot be empty")

	_, err = pool.Decode(ctx, nil, true)
	assert.EqualError(t, err, "`input_ids` cannot be empty")

	_, err = pool.Encode(ctx, SingleInput("hi"), false, tokenizer.TruncateRight, "nope")
	assert.EqualError(t, err, "`prompt_name` is set to `nope` but it was not found in the configured prompts. Available prompts: [a b]")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = pool.Encode(ctx, DualInput{A: "x", B: "y"}, false, tokenizer.TruncateRight, "a")
	assert.EqualError(t, err, "`prompt_name` cannot be set with dual inputs")
	assert.ErrorIs(t, err, ErrValidation)

	// Without a prompt table the message points at the configuration.
	bare := &Tokenization{requests: make(chan request)}
	_, err = bare.Encode(ctx, SingleInput("hi"), false, tokenizer.TruncateRight, "nope")
	assert.EqualError(t, err, "`prompt_name` is set to `nope` but no prompts were found in the configuration")
}

func TestAbandonedContext(t *testing.T) {
	t.Parallel()

	pool := &Tokenization{requests: make(chan request)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pool.Encode(ctx, SingleInput("hi"), false, tokenizer.TruncateRight, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSubmitAfterClosePanics(t *testing.T) {
	t.Parallel()

	pool := New(quietCtx(), &runeTokenizer{}, Config{Workers: 1, MaxInputLength: 16})
	pool.Close()

	assert.Panics(t, func() {
		_, _ = pool.Encode(context.Background(), SingleInput("hi"), false, tokenizer.TruncateRight, "")
	})
}

func TestBackpressureBlocksWhenQueueFull(t *testing.T) {
	t.Parallel()

	tok := &runeTokenizer{
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	pool := newTestPool(t, tok, Config{Workers: 1, MaxInputLength: 16})

	// Occupy the single worker.
	go func() {
		_, _ = pool.Encode(context.Background(), SingleInput("x"), false, tokenizer.TruncateRight, "")
	}()
	<-tok.started

	// Fill the queue behind it.
	for i := 0; i < cap(pool.requests); i++ {
		pool.requests <- &decodeRequest{
			ids:  []uint32{'x'},
			ctx:  context.Background(),
			resp: make(chan decodeResult, 1),
		}
	}

	// The next submission cannot enqueue until the worker drains.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := pool.Decode(ctx, []uint32{'x'}, true)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Release the worker; the queue drains and new submissions succeed.
	close(tok.gate)
	text, err := pool.Decode(context.Background(), []uint32{'h', 'i'}, true)
	require.NoError(t, err)
	assert.Equal(t, "hi", text)
}

func TestConcurrentEncodes(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, &runeTokenizer{}, Config{Workers: 4, MaxInputLength: 16})

	const callers = 32
	errs := make([]error, callers)
	encs := make([]ValidEncoding, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			encs[i], errs[i] = pool.Encode(context.Background(), SingleInput("hello"), false, tokenizer.TruncateRight, "")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Len(t, encs[i].InputIDs, 5)
	}
}
