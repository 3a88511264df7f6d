package api

import (
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
)

// maxBodyBytes bounds request bodies read by the JSON API.
const maxBodyBytes = 64 << 10

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "", "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

func readBody(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBodyBytes+1))
	if err != nil {
		return nil, newInvalidRequest("read request body: " + err.Error())
	}
	if len(data) > maxBodyBytes {
		return nil, newInvalidRequest("request body too large")
	}
	return data, nil
}

func decodeJSON[T any](data []byte) (T, error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return out, newInvalidRequest("malformed JSON body: " + err.Error())
	}
	return out, nil
}

func newPoemID() string {
	return "poem_" + uuid.NewString()
}
