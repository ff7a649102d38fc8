package tokenization

import (
	"errors"
	"fmt"
	"sort"
)

// ErrValidation is the sentinel for every caller-recoverable input
// error produced by this package. Callers classify with
// errors.Is(err, ErrValidation); anything else coming out of the pool
// is a tokenizer failure passed through unchanged.
var ErrValidation = errors.New("validation")

// EmptyInputError reports an empty text or id sequence. It is returned
// before the request is ever enqueued.
type EmptyInputError struct {
	Field string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("`%s` cannot be empty", e.Field)
}

func (e *EmptyInputError) Unwrap() error { return ErrValidation }

// UnknownPromptError reports a prompt name that could not be resolved.
type UnknownPromptError struct {
	Name      string
	Available []string
}

func (e *UnknownPromptError) Error() string {
	if e.Available == nil {
		return fmt.Sprintf("`prompt_name` is set to `%s` but no prompts were found in the configuration", e.Name)
	}
	names := append([]string(nil), e.Available...)
	sort.Strings(names)
	return fmt.Sprintf("`prompt_name` is set to `%s` but it was not found in the configured prompts. Available prompts: %v", e.Name, names)
}

func (e *UnknownPromptError) Unwrap() error { return ErrValidation }

// PromptWithDualInputError reports a prompt combined with a sentence
// pair; prefixing is only defined for single-sequence inputs.
type PromptWithDualInputError struct{}

func (e *PromptWithDualInputError) Error() string {
	return "`prompt_name` cannot be set with dual inputs"
}

func (e *PromptWithDualInputError) Unwrap() error { return ErrValidation }

// CharacterLimitError reports an input that exceeds the pre-tokenization
// character ceiling with truncation disabled.
type CharacterLimitError struct {
	Limit int
	Count int
}

func (e *CharacterLimitError) Error() string {
	return fmt.Sprintf("`inputs` must have less than %d characters. Given: %d", e.Limit, e.Count)
}

func (e *CharacterLimitError) Unwrap() error { return ErrValidation }

// TokenLimitError reports an encoding that exceeds the token ceiling.
type TokenLimitError struct {
	Limit int
	Count int
}

func (e *TokenLimitError) Error() string {
	return fmt.Sprintf("`inputs` must have less than %d tokens. Given: %d", e.Limit, e.Count)
}

func (e *TokenLimitError) Unwrap() error { return ErrValidation }
