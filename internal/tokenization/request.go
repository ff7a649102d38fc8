package tokenization

import (
	"context"

	"github.com/samcharles93/tokend/internal/tokenizer"
)

// request is the envelope placed on the shared queue. Exactly three
// variants exist, one per public operation; the worker switch over
// them panics on anything else so a new variant cannot be added
// without handling it.
//
// Every envelope carries the submitting caller's context. The worker
// re-enters it for logging attribution and to detect callers that have
// already given up.
type request interface {
	isRequest()
}

type encodeRequest struct {
	input     EncodingInput
	truncate  bool
	direction tokenizer.TruncationDirection
	// prompt is the already-resolved literal prefix; resolution happens
	// before enqueue so bad prompt names never occupy a worker.
	prompt string
	ctx    context.Context
	resp   chan encodeResult
}

type encodeResult struct {
	enc ValidEncoding
	err error
}

type tokenizeRequest struct {
	input            EncodingInput
	addSpecialTokens bool
	prompt           string
	ctx              context.Context
	resp             chan tokenizeResult
}

type tokenizeResult struct {
	// text is the resolved input that was tokenized, prompt included.
	// Empty for dual inputs, which have no single resolved form.
	text string
	enc  tokenizer.Encoding
	err  error
}

type decodeRequest struct {
	ids               []uint32
	skipSpecialTokens bool
	ctx               context.Context
	resp              chan decodeResult
}

type decodeResult struct {
	text string
	err  error
}

func (*encodeRequest) isRequest()   {}
func (*tokenizeRequest) isRequest() {}
func (*decodeRequest) isRequest()   {}
