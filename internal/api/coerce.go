package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"futureweaver/domain/core"
	"futureweaver/domain/records"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps the size of a request body
const MaxBodyBytes = 1 << 20

// body is a decoded JSON request object
type body map[string]interface{}

// readBody binds the request as a JSON object. An empty body reads as {}.
func readBody(c *gin.Context) (body, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	var b body
	if err := c.ShouldBindJSON(&b); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return body{}, nil
		case errors.As(err, &tooLarge):
			return nil, core.NewInvalidInputError("body", fmt.Sprintf("exceeds %d bytes", MaxBodyBytes))
		}
		return nil, core.NewInvalidInputError("body", "must be a JSON object")
	}
	if b == nil {
		return nil, core.NewInvalidInputError("body", "must be a JSON object")
	}
	return b, nil
}

// number reads key as a number or numeric string. Missing and null take def.
func (b body) number(key string, def float64) (float64, error) {
	switch v := b[key].(type) {
	case nil:
		return def, nil
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, core.NewInvalidInputError(key, "must be a number")
		}
		return f, nil
	default:
		return 0, core.NewInvalidInputError(key, "must be a number")
	}
}

// flag reads key as a boolean, a number (non-zero is true) or "true"/"false"
func (b body) flag(key string, def bool) (bool, error) {
	switch v := b[key].(type) {
	case nil:
		return def, nil
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, core.NewInvalidInputError(key, "must be a boolean")
}

// text reads key as text; numbers are formatted without a trailing .0
func (b body) text(key, def string) string {
	v, ok := b[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return records.FormatValue(v)
}

func (b body) has(key string) bool {
	v, ok := b[key]
	return ok && v != nil
}

func (b body) record() records.Record {
	return records.Record(b)
}
