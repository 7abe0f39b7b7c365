// Package reply writes the JSON envelope shared by every API endpoint:
// {"error": bool, "message": string, "data": ...}, plus a per-field
// "fields" map on validation failures.
package reply

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mediashelf/mediashelf/pkg/fields"
)

type Envelope struct {
	Error   bool                   `json:"error"`
	Message string                 `json:"message"`
	Data    interface{}            `json:"data"`
	Fields  map[string]FieldStatus `json:"fields,omitempty"`
}

// FieldStatus reports whether one input field was accepted.
type FieldStatus struct {
	Valid bool   `json:"valid"`
	Hint  string `json:"hint"`
}

func OK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{Message: message, Data: data})
}

// Fail writes an error envelope. data is the empty value the client expects
// in place of the real payload, e.g. [] for listings.
func Fail(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{Error: true, Message: message, Data: data})
}

// Abort is Fail for middleware: it also stops the handler chain.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Error: true, Message: message, Data: gin.H{}})
}

// Invalid writes a 400 with a status entry for every name in known; fields
// present in fe are marked invalid with their reason as the hint. Fields in fe
// that are not listed in known are reported too.
func Invalid(c *gin.Context, message string, fe *fields.Error, known ...string) {
	out := make(map[string]FieldStatus, len(known))
	for _, name := range known {
		out[name] = FieldStatus{Valid: true}
	}
	if fe != nil {
		for name, reason := range fe.Fields {
			out[name] = FieldStatus{Valid: false, Hint: name + " " + reason}
		}
	}
	c.JSON(http.StatusBadRequest, Envelope{Error: true, Message: message, Data: gin.H{}, Fields: out})
}
