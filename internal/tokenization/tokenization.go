package tokenization

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/samcharles93/tokend/internal/logger"
	"github.com/samcharles93/tokend/internal/tokenizer"
)

const (
	defaultWorkers = 4

	// queueDepthPerWorker sizes the request queue relative to the pool.
	// The queue is the sole backpressure point: submissions block once
	// it fills.
	queueDepthPerWorker = 4

	// maxCharMultiplier bounds worst-case token-to-character expansion.
	// Used as a cheap sanity gate before tokenization.
	maxCharMultiplier = 250
)

// Config holds the pool configuration. Prompts and DefaultPrompt are
// immutable for the life of the pool and shared by every worker.
type Config struct {
	// Workers is the number of tokenization goroutines. Fixed at
	// construction; there is no dynamic scaling.
	Workers int
	// MaxInputLength is the token ceiling for validated encodings.
	MaxInputLength int
	// PositionOffset shifts the generated position ids.
	PositionOffset int
	// DefaultPrompt is prepended when no prompt name is given.
	DefaultPrompt string
	// Prompts maps prompt names to literal prefixes.
	Prompts map[string]string
	// InputLength receives the token count of every validated encode
	// request. May be nil.
	InputLength prometheus.Observer
}

// Tokenization validates and dispatches tokenization work to a fixed
// pool of workers, each owning a private tokenizer clone. It is the
// only type callers interact with.
type Tokenization struct {
	requests chan request
	wg       sync.WaitGroup

	// Immutable for the life of the pool; shared by reference.
	defaultPrompt string
	prompts       map[string]string
}

// New starts the worker pool. Each worker gets its own clone of tok;
// the underlying vocabulary is shared read-only, so cloning duplicates
// only mutable scratch state.
func New(ctx context.Context, tok tokenizer.Tokenizer, cfg Config) *Tokenization {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	logger.FromContext(ctx).Info("starting tokenization workers", "workers", workers)

	t := &Tokenization{
		requests:      make(chan request, workers*queueDepthPerWorker),
		defaultPrompt: cfg.DefaultPrompt,
		prompts:       cfg.Prompts,
	}
	wc := workerConfig{
		maxInputLength: cfg.MaxInputLength,
		positionOffset: cfg.PositionOffset,
		inputLength:    cfg.InputLength,
	}
	for i := 0; i < workers; i++ {
		clone := tok.Clone()
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.worker(clone, wc)
		}()
	}
	return t
}

// Close shuts the pool down. It must only be called once no caller can
// submit again: a submission racing Close is a protocol violation and
// crashes on the closed queue rather than losing the request silently.
func (t *Tokenization) Close() {
	close(t.requests)
	t.wg.Wait()
}

// Encode converts the input into a model-ready encoding, enforcing the
// character ceiling, optional truncation and the token ceiling.
func (t *Tokenization) Encode(ctx context.Context, input EncodingInput, truncate bool, direction tokenizer.TruncationDirection, promptName string) (ValidEncoding, error) {
	if input == nil || inputIsEmpty(input) {
		return ValidEncoding{}, &EmptyInputError{Field: "inputs"}
	}
	prompt, err := t.resolve(promptName, input)
	if err != nil {
		return ValidEncoding{}, err
	}
	req := &encodeRequest{
		input:     input,
		truncate:  truncate,
		direction: direction,
		prompt:    prompt,
		ctx:       ctx,
		resp:      make(chan encodeResult, 1),
	}
	res, err := submit(ctx, t.requests, req, req.resp)
	if err != nil {
		return ValidEncoding{}, err
	}
	return res.enc, res.err
}

// Tokenize returns the resolved input text (prompt applied, empty for
// dual inputs) and the raw encoding without the token-ceiling check.
func (t *Tokenization) Tokenize(ctx context.Context, input EncodingInput, addSpecialTokens bool, promptName string) (string, tokenizer.Encoding, error) {
	if input == nil || inputIsEmpty(input) {
		return "", tokenizer.Encoding{}, &EmptyInputError{Field: "inputs"}
	}
	prompt, err := t.resolve(promptName, input)
	if err != nil {
		return "", tokenizer.Encoding{}, err
	}
	req := &tokenizeRequest{
		input:            input,
		addSpecialTokens: addSpecialTokens,
		prompt:           prompt,
		ctx:              ctx,
		resp:             make(chan tokenizeResult, 1),
	}
	res, err := submit(ctx, t.requests, req, req.resp)
	if err != nil {
		return "", tokenizer.Encoding{}, err
	}
	return res.text, res.enc, res.err
}

// Decode converts ids back into text.
func (t *Tokenization) Decode(ctx context.Context, ids []uint32, skipSpecialTokens bool) (string, error) {
	if len(ids) == 0 {
		return "", &EmptyInputError{Field: "input_ids"}
	}
	req := &decodeRequest{
		ids:               ids,
		skipSpecialTokens: skipSpecialTokens,
		ctx:               ctx,
		resp:              make(chan decodeResult, 1),
	}
	res, err := submit(ctx, t.requests, req, req.resp)
	if err != nil {
		return "", err
	}
	return res.text, res.err
}

// resolve turns a prompt name into the literal prefix and rejects the
// structurally impossible prompt-plus-pair combination, all before the
// request can reach the queue.
func (t *Tokenization) resolve(promptName string, input EncodingInput) (string, error) {
	prompt, err := resolvePrompt(promptName, t.defaultPrompt, t.prompts)
	if err != nil {
		return "", err
	}
	if _, dual := input.(DualInput); dual && prompt != "" {
		return "", &PromptWithDualInputError{}
	}
	return prompt, nil
}

// submit enqueues the request and awaits its reply. Enqueueing blocks
// while the queue is full; the caller's context can abandon the wait
// at either stage, in which case the worker detects the dead context
// and discards the reply.
//
// A reply channel closed without a value means a worker dropped a
// request without responding. That breaks the one-reply-per-request
// invariant, so it is a bug worth crashing on, not an error to return.
func submit[R any](ctx context.Context, queue chan<- request, req request, resp <-chan R) (R, error) {
	var zero R
	select {
	case queue <- req:
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	select {
	case res, ok := <-resp:
		if !ok {
			panic("tokenization: worker dropped a request without replying. This is a bug.")
		}
		return res, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
