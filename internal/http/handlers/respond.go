package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/vmihailenco/msgpack/v5"
)

const msgpackContentType = "application/x-msgpack"

// respond writes JSON, or MessagePack keyed by the json tags when the caller
// passes format=msgpack. Bulky series endpoints use it.
func respond(c *gin.Context, status int, data any) {
	if c.Query("format") != "msgpack" {
		c.JSON(status, data)
		return
	}
	c.Header("Content-Type", msgpackContentType)
	c.Status(status)
	enc := msgpack.NewEncoder(c.Writer)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(data); err != nil {
		_ = c.Error(err)
	}
}
