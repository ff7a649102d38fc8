package tokenization

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/samcharles93/tokend/internal/logger"
	"github.com/samcharles93/tokend/internal/tokenizer"
)

// workerConfig is the immutable per-pool state shared read-only by
// every worker.
type workerConfig struct {
	maxInputLength int
	positionOffset int
	inputLength    prometheus.Observer
}

// worker drains the shared queue until it is closed, processing each
// request to completion on its private tokenizer clone.
//
// Reply channels are buffered with capacity one, so the send never
// blocks: a caller that abandoned its request simply never reads the
// value. When the caller's context is already dead on dequeue, the
// work is skipped entirely.
func (t *Tokenization) worker(tok tokenizer.Tokenizer, cfg workerConfig) {
	for req := range t.requests {
		switch r := req.(type) {
		case *encodeRequest:
			if r.ctx.Err() != nil {
				continue
			}
			enc, err := encodeInput(tok, cfg, r)
			if err != nil {
				logger.FromContext(r.ctx).Debug("encode request failed", "err", err)
			}
			r.resp <- encodeResult{enc: enc, err: err}
		case *tokenizeRequest:
			if r.ctx.Err() != nil {
				continue
			}
			text, enc, err := tokenizeInput(tok, cfg, r.input, r.addSpecialTokens, nil, r.prompt)
			if err != nil {
				logger.FromContext(r.ctx).Debug("tokenize request failed", "err", err)
			}
			r.resp <- tokenizeResult{text: text, enc: enc, err: err}
		case *decodeRequest:
			if r.ctx.Err() != nil {
				continue
			}
			text, err := tok.Decode(r.ids, r.skipSpecialTokens)
			if err != nil {
				logger.FromContext(r.ctx).Debug("decode request failed", "err", err)
			}
			r.resp <- decodeResult{text: text, err: err}
		default:
			panic(fmt.Sprintf("tokenization: unknown request variant %T", req))
		}
	}
}

// encodeInput runs the full encode pipeline: tokenize with optional
// truncation, enforce the token ceiling, record the observed length
// and build the position ids.
func encodeInput(tok tokenizer.Tokenizer, cfg workerConfig, r *encodeRequest) (ValidEncoding, error) {
	var trunc *tokenizer.Truncation
	if r.truncate {
		trunc = &tokenizer.Truncation{
			Direction: r.direction,
			MaxLength: cfg.maxInputLength,
			Strategy:  tokenizer.LongestFirst,
			Stride:    0,
		}
	}

	_, enc, err := tokenizeInput(tok, cfg, r.input, true, trunc, r.prompt)
	if err != nil {
		return ValidEncoding{}, err
	}

	seqLen := enc.Len()
	if seqLen > cfg.maxInputLength {
		return ValidEncoding{}, &TokenLimitError{Limit: cfg.maxInputLength, Count: seqLen}
	}

	if cfg.inputLength != nil {
		cfg.inputLength.Observe(float64(seqLen))
	}

	positionIDs := make([]uint32, seqLen)
	for i := range positionIDs {
		positionIDs[i] = uint32(cfg.positionOffset + i)
	}
	return ValidEncoding{
		InputIDs:     enc.IDs,
		TokenTypeIDs: enc.TypeIDs,
		PositionIDs:  positionIDs,
	}, nil
}

// tokenizeInput enforces the character ceiling (truncating when
// permitted), injects the resolved prompt and encodes the input.
// Tokenizer failures pass through unchanged. The token ceiling is
// deliberately not checked here; only the full encode path applies it.
func tokenizeInput(tok tokenizer.Tokenizer, cfg workerConfig, input EncodingInput, addSpecialTokens bool, trunc *tokenizer.Truncation, prompt string) (string, tokenizer.Encoding, error) {
	limit := cfg.maxInputLength * maxCharMultiplier
	if chars := countChars(input); chars > limit {
		if trunc == nil {
			return "", tokenizer.Encoding{}, &CharacterLimitError{Limit: limit, Count: chars}
		}
		input = applyLimit(input, limit)
	}

	switch v := input.(type) {
	case SingleInput:
		text := prompt + string(v)
		enc, err := tok.Encode(tokenizer.Single(text), addSpecialTokens, trunc)
		if err != nil {
			return "", tokenizer.Encoding{}, err
		}
		return text, enc, nil

	case DualInput:
		enc, err := tok.Encode(tokenizer.Pair(v.A, v.B), addSpecialTokens, trunc)
		if err != nil {
			return "", tokenizer.Encoding{}, err
		}
		return "", enc, nil

	case IdsInput:
		// Pre-tokenized input is decoded back to text and re-encoded so
		// prompts and truncation apply uniformly.
		if prompt != "" {
			text, err := tok.Decode([]uint32(v), true)
			if err != nil {
				return "", tokenizer.Encoding{}, err
			}
			text = prompt + text
			enc, err := tok.Encode(tokenizer.Single(text), true, trunc)
			if err != nil {
				return "", tokenizer.Encoding{}, err
			}
			return text, enc, nil
		}
		text, err := tok.Decode([]uint32(v), false)
		if err != nil {
			return "", tokenizer.Encoding{}, err
		}
		enc, err := tok.Encode(tokenizer.Single(text), false, trunc)
		if err != nil {
			return "", tokenizer.Encoding{}, err
		}
		return text, enc, nil

	default:
		panic(fmt.Sprintf("tokenization: unknown input variant %T", input))
	}
}
