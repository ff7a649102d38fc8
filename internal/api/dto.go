package api

import "github.com/samcharles93/tokend/internal/tokenization"

// TokenizeRequest tokenizes a single text, a sentence pair, or a
// pre-tokenized id sequence.
type TokenizeRequest struct {
	Input            string   `json:"input"`
	Pair             string   `json:"pair,omitempty"`
	IDs              []uint32 `json:"ids,omitempty"`
	AddSpecialTokens *bool    `json:"add_special_tokens,omitempty"`
	PromptName       string   `json:"prompt_name,omitempty"`
}

type TokenizeResponse struct {
	// Text is the resolved input that was tokenized, prompt included.
	// Omitted for pairs.
	Text   string                     `json:"text,omitempty"`
	Tokens []tokenization.SimpleToken `json:"tokens"`
}

// EncodeRequest produces a model-ready encoding.
type EncodeRequest struct {
	Input               string   `json:"input"`
	Pair                string   `json:"pair,omitempty"`
	IDs                 []uint32 `json:"ids,omitempty"`
	Truncate            bool     `json:"truncate,omitempty"`
	TruncationDirection string   `json:"truncation_direction,omitempty"`
	PromptName          string   `json:"prompt_name,omitempty"`
}

type EncodeResponse struct {
	InputIDs     []uint32 `json:"input_ids"`
	TokenTypeIDs []uint32 `json:"token_type_ids"`
	PositionIDs  []uint32 `json:"position_ids"`
}

// DecodeRequest converts token ids back into text.
type DecodeRequest struct {
	IDs               []uint32 `json:"ids"`
	SkipSpecialTokens *bool    `json:"skip_special_tokens,omitempty"`
}

type DecodeResponse struct {
	Text string `json:"text"`
}

// APIError is the error payload for every non-2xx response.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
