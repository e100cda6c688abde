package httpx

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HTTPError is the standard JSON error body.
// swagger:model
type HTTPError struct {
	// Error message
	// example: not found
	Error string `json:"error"`
	// Extra context, only populated outside production
	Details string `json:"details,omitempty"`
}

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, HTTPError{Error: msg})
}

// Internal answers 500. The underlying error is always logged; it is
// echoed in the body only when verbose (non-production) mode is on.
func Internal(c *gin.Context, verbose bool, msg string, err error) {
	log.Printf("[http] rid=%s %s %s: %v", RID(c), c.Request.Method, msg, err)
	body := HTTPError{Error: msg}
	if verbose && err != nil {
		body.Details = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}
