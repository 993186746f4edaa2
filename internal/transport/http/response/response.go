package response

import "github.com/gin-gonic/gin"

// Envelope is the single response schema for every endpoint: success bodies
// carry data, error bodies carry a message. Error detail (Err) is populated
// only when Debug is on; production clients get the message alone.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Err     string `json:"error,omitempty"`
}

// Debug controls whether underlying error strings leak into responses.
// Set once at startup from the app environment.
var Debug bool

func OK(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

func Message(c *gin.Context, status int, msg string) {
	c.JSON(status, Envelope{Success: true, Message: msg})
}

func Fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: msg})
}

func FailErr(c *gin.Context, status int, msg string, err error) {
	e := Envelope{Success: false, Message: msg}
	if Debug && err != nil {
		e.Err = err.Error()
	}
	c.AbortWithStatusJSON(status, e)
}
