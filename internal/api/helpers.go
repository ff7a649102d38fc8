package api

import (
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/tokend/internal/tokenization"
	"github.com/samcharles93/tokend/internal/tokenizer"
)

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "validation", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": APIError{Message: msg, Type: errType},
	})
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

// RequestID tags every request and response with an id for log
// correlation, honoring an id supplied by the caller.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			id := c.Request().Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set("X-Request-ID", id)
			return next(c)
		}
	}
}

// buildInput maps the wire fields onto the input union. Ids win over
// text, a pair wins over a single.
func buildInput(input, pair string, ids []uint32) tokenization.EncodingInput {
	switch {
	case len(ids) > 0:
		return tokenization.IdsInput(ids)
	case pair != "":
		return tokenization.DualInput{A: input, B: pair}
	default:
		return tokenization.SingleInput(input)
	}
}

// projectDual splits a pair encoding by token type id and projects
// each half against its own source text.
func projectDual(enc tokenizer.Encoding, a, b string) []tokenization.SimpleToken {
	var first, second tokenizer.Encoding
	for i := range enc.IDs {
		dst := &first
		if enc.TypeIDs[i] == 1 {
			dst = &second
		}
		dst.IDs = append(dst.IDs, enc.IDs[i])
		dst.TypeIDs = append(dst.TypeIDs, enc.TypeIDs[i])
		dst.Offsets = append(dst.Offsets, enc.Offsets[i])
		dst.SpecialMask = append(dst.SpecialMask, enc.SpecialMask[i])
		dst.Tokens = append(dst.Tokens, enc.Tokens[i])
	}
	tokens := tokenization.IntoTokens(first, a)
	return append(tokens, tokenization.IntoTokens(second, b)...)
}
