package api

import "github.com/samcharles93/bazm/internal/seqmodel"

// PoemRequest is the body of POST /v1/poems. Omitted fields take the
// server defaults.
type PoemRequest struct {
	SeedText     string   `json:"seed_text"`
	NumLines     *int     `json:"num_lines,omitempty"`
	WordsPerLine *int     `json:"words_per_line,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
}

type PoemResponse struct {
	ID           string   `json:"id"`
	Object       string   `json:"object"`
	CreatedAt    int64    `json:"created_at"`
	SeedText     string   `json:"seed_text"`
	NumLines     int      `json:"num_lines"`
	WordsPerLine int      `json:"words_per_line"`
	Temperature  float64  `json:"temperature"`
	Lines        []string `json:"lines"`
	Text         string   `json:"text"`
	HTML         string   `json:"html"`
}

// ModelInfo is served by GET /v1/model.
type ModelInfo struct {
	seqmodel.Info
	Words     int    `json:"vocabulary_words"`
	ModelPath string `json:"model_path,omitempty"`
	VocabPath string `json:"vocab_path,omitempty"`
}

type ResponseError struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}
