package web

import (
	"github.com/gin-gonic/gin"
)

// document es el cuerpo de entrada JSON:API: {data:{type?, attributes:{...}}}.
type document[T any] struct {
	Data *struct {
		Type       string `json:"type"`
		Attributes *T     `json:"attributes"`
	} `json:"data"`
}

// BindAttributes lee data.attributes. Devuelve false y ya ha respondido 400 si falta.
func BindAttributes[T any](c *gin.Context) (*T, bool) {
	var body document[T]
	if err := c.ShouldBindJSON(&body); err != nil {
		RequestError(c, "Validation failed", "Invalid request body")
		return nil, false
	}
	if body.Data == nil || body.Data.Attributes == nil {
		RequestError(c, "Validation failed", "Request data is required")
		return nil, false
	}
	return body.Data.Attributes, true
}
