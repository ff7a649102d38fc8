package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samcharles93/tokend/internal/tokenization"
	"github.com/samcharles93/tokend/internal/tokenizer"
)

// Server exposes the tokenization pool over HTTP. It owns no
// tokenization state of its own; every route delegates to the pool.
type Server struct {
	pool     *tokenization.Tokenization
	gatherer prometheus.Gatherer
}

func NewServer(pool *tokenization.Tokenization, gatherer prometheus.Gatherer) *Server {
	return &Server{pool: pool, gatherer: gatherer}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/tokenize", s.handleTokenize)
	e.POST("/encode", s.handleEncode)
	e.POST("/decode", s.handleDecode)
	e.GET("/health", s.handleHealth)
	if s.gatherer != nil {
		e.GET("/metrics", s.handleMetrics)
	}
}

func (s *Server) handleTokenize(c *echo.Context) error {
	req, err := decodeJSON[TokenizeRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	addSpecial := true
	if req.AddSpecialTokens != nil {
		addSpecial = *req.AddSpecialTokens
	}

	input := buildInput(req.Input, req.Pair, req.IDs)
	text, enc, err := s.pool.Tokenize(c.Request().Context(), input, addSpecial, req.PromptName)
	if err != nil {
		return writeTokenizationError(c, err)
	}

	var tokens []tokenization.SimpleToken
	if req.Pair != "" && len(req.IDs) == 0 {
		tokens = projectDual(enc, req.Input, req.Pair)
	} else {
		tokens = tokenization.IntoTokens(enc, text)
	}
	return c.JSON(http.StatusOK, TokenizeResponse{Text: text, Tokens: tokens})
}

func (s *Server) handleEncode(c *echo.Context) error {
	req, err := decodeJSON[EncodeRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	direction, err := tokenizer.ParseTruncationDirection(req.TruncationDirection)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	input := buildInput(req.Input, req.Pair, req.IDs)
	enc, err := s.pool.Encode(c.Request().Context(), input, req.Truncate, direction, req.PromptName)
	if err != nil {
		return writeTokenizationError(c, err)
	}
	return c.JSON(http.StatusOK, EncodeResponse{
		InputIDs:     enc.InputIDs,
		TokenTypeIDs: enc.TokenTypeIDs,
		PositionIDs:  enc.PositionIDs,
	})
}

func (s *Server) handleDecode(c *echo.Context) error {
	req, err := decodeJSON[DecodeRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	skip := true
	if req.SkipSpecialTokens != nil {
		skip = *req.SkipSpecialTokens
	}

	text, err := s.pool.Decode(c.Request().Context(), req.IDs, skip)
	if err != nil {
		return writeTokenizationError(c, err)
	}
	return c.JSON(http.StatusOK, DecodeResponse{Text: text})
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(c *echo.Context) error {
	h := promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
	h.ServeHTTP(c.Response(), c.Request())
	return nil
}

func writeTokenizationError(c *echo.Context, err error) error {
	if errors.Is(err, tokenization.ErrValidation) {
		return writeBadRequest(c, err.Error())
	}
	return writeError(c, http.StatusInternalServerError, "tokenizer", err.Error())
}
