// Package response defines the JSON envelope every API handler answers
// with: payloads go out as-is on 200, failures as {"error": {message,
// code}} so clients can branch on the stable code string.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError carries a human-readable message and a stable machine code
// such as "unauthorized" or "search_failed".
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError writes the error envelope. A nil err still produces a
// message so the client never sees an empty body.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
