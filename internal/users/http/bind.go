package http

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// bindStrictJSON decodes the request body rejecting unknown fields and
// trailing data, then runs gin's struct validation.
func bindStrictJSON(c *gin.Context, dst interface{}) error {
	if c.Request.Body == nil {
		return errors.New("request body is required")
	}

	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}

	return binding.Validator.ValidateStruct(dst)
}
