// Package webui provides the embedded page template and static files for
// the Bazm-e-Shayari web form.
package webui

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"
)

//go:embed static/* templates/*
var content embed.FS

var pageTemplate = template.Must(template.ParseFS(content, "templates/index.html"))

// Field bounds offered by the form.
type Bounds struct {
	MaxLines        int
	MaxWordsPerLine int
	MinTemperature  float64
	MaxTemperature  float64
}

// Page is the data rendered by the index template.
type Page struct {
	SeedText     string
	NumLines     int
	WordsPerLine int
	Temperature  float64
	Bounds       Bounds

	// Lines is the generated poem. It is rendered one line per row,
	// separated by <br>.
	Lines []string
	Error string
}

// Render writes the index page.
func Render(w io.Writer, page Page) error {
	return pageTemplate.ExecuteTemplate(w, "index.html", page)
}

// StaticFS returns an http.FileSystem for the embedded static files.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		// This should never happen because we control the embed path
		panic(err)
	}
	return http.FS(sub)
}
