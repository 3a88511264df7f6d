package api

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/bazm/internal/generator"
	"github.com/samcharles93/bazm/internal/webui"
)

const (
	msgMissingSeed = "Please enter a seed text to generate poetry."
	msgServerError = "Poetry generation failed. Please try again."
)

func (s *Server) handleIndex(c *echo.Context) error {
	return s.renderPage(c, http.StatusOK, s.page(s.cfg.Defaults))
}

func (s *Server) handleForm(c *echo.Context) error {
	req, err := s.parseForm(c)
	if err != nil {
		page := s.page(req)
		page.Error = err.Error()
		s.metrics.ObserveGeneration(classify(err).outcome, 0, 0)
		return s.renderPage(c, http.StatusBadRequest, page)
	}
	if err := s.cfg.Limits.Check(req); err != nil {
		page := s.page(req)
		page.Error = err.Error()
		s.metrics.ObserveGeneration(classify(err).outcome, 0, 0)
		return s.renderPage(c, http.StatusBadRequest, page)
	}

	page := s.page(req)
	res, err := s.generate(c.Request().Context(), req)
	if err != nil {
		f := classify(err)
		page.Error = msgServerError
		if f.status < http.StatusInternalServerError {
			page.Error = err.Error()
		}
		return s.renderPage(c, f.status, page)
	}
	page.Lines = res.Lines
	return s.renderPage(c, http.StatusOK, page)
}

// parseForm reads the four form fields. Missing numeric fields take the
// defaults; the returned request is usable for re-rendering even on error.
func (s *Server) parseForm(c *echo.Context) (generator.Request, error) {
	req := s.cfg.Defaults
	req.SeedText = c.FormValue("seed_text")

	var err error
	if req.NumLines, err = formInt(c, "num_lines", req.NumLines); err != nil {
		return req, err
	}
	if req.WordsPerLine, err = formInt(c, "words_per_line", req.WordsPerLine); err != nil {
		return req, err
	}
	if v := strings.TrimSpace(c.FormValue("temperature")); v != "" {
		t, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			return req, newInvalidRequest("temperature must be a number")
		}
		req.Temperature = t
	}
	if strings.TrimSpace(req.SeedText) == "" {
		return req, newInvalidRequest(msgMissingSeed)
	}
	return req, nil
}

func formInt(c *echo.Context, name string, def int) (int, error) {
	v := strings.TrimSpace(c.FormValue(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, newInvalidRequest(name + " must be a whole number")
	}
	return n, nil
}

func (s *Server) page(req generator.Request) webui.Page {
	return webui.Page{
		SeedText:     req.SeedText,
		NumLines:     req.NumLines,
		WordsPerLine: req.WordsPerLine,
		Temperature:  req.Temperature,
		Bounds: webui.Bounds{
			MaxLines:        s.cfg.Limits.MaxLines,
			MaxWordsPerLine: s.cfg.Limits.MaxWordsPerLine,
			MinTemperature:  s.cfg.Limits.MinTemperature,
			MaxTemperature:  s.cfg.Limits.MaxTemperature,
		},
	}
}

func (s *Server) renderPage(c *echo.Context, status int, page webui.Page) error {
	var buf bytes.Buffer
	if err := webui.Render(&buf, page); err != nil {
		return err
	}
	return c.HTML(status, buf.String())
}
