package api

import (
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/bazm/internal/generator"
	"github.com/samcharles93/bazm/internal/metrics"
)

func (s *Server) handleCreatePoem(c *echo.Context) error {
	body, err := readBody(c.Request().Body)
	if err != nil {
		return s.writeInvalid(c, err)
	}
	if err := validatePoemRequest(body); err != nil {
		return s.writeInvalid(c, err)
	}
	in, err := decodeJSON[PoemRequest](body)
	if err != nil {
		return s.writeInvalid(c, err)
	}

	req := s.cfg.Defaults
	req.SeedText = in.SeedText
	if in.NumLines != nil {
		req.NumLines = *in.NumLines
	}
	if in.WordsPerLine != nil {
		req.WordsPerLine = *in.WordsPerLine
	}
	if in.Temperature != nil {
		req.Temperature = *in.Temperature
	}
	if err := s.cfg.Limits.Check(req); err != nil {
		return s.writeInvalid(c, err)
	}

	res, err := s.generate(c.Request().Context(), req)
	if err != nil {
		return s.writeFailure(c, err)
	}
	return c.JSON(http.StatusOK, PoemResponse{
		ID:           newPoemID(),
		Object:       "poem",
		CreatedAt:    s.clock().Unix(),
		SeedText:     req.SeedText,
		NumLines:     req.NumLines,
		WordsPerLine: req.WordsPerLine,
		Temperature:  req.Temperature,
		Lines:        res.Lines,
		Text:         res.Text(),
		HTML:         res.HTML(),
	})
}

// writeInvalid rejects a request before generation starts.
func (s *Server) writeInvalid(c *echo.Context, err error) error {
	s.metrics.ObserveGeneration(metrics.OutcomeInvalidInput, 0, 0)
	return writeBadRequest(c, err.Error())
}

func (s *Server) writeFailure(c *echo.Context, err error) error {
	f := classify(err)
	return writeError(c, f.status, f.errType, err.Error(), "", "")
}

var _ PoemGenerator = (*generator.Generator)(nil)
