package utils

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

// ContentType es el media type de JSON:API.
const ContentType = "application/vnd.api+json"

// Resource es un recurso JSON:API.
type Resource struct {
	Type       string      `json:"type"`
	ID         string      `json:"id"`
	Attributes interface{} `json:"attributes"`
}

// ErrorObject define la estructura estándar para las respuestas de error.
type ErrorObject struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Status string `json:"status"`
}

// SendResource envía un único recurso en data.
func SendResource(c *gin.Context, statusCode int, res Resource) {
	send(c, statusCode, gin.H{"data": res})
}

// SendCollection envía una lista; una lista vacía sale como [] y no como null.
func SendCollection(c *gin.Context, statusCode int, list []Resource) {
	if list == nil {
		list = []Resource{}
	}
	send(c, statusCode, gin.H{"data": list})
}

// SendError envía una respuesta de error con un formato estandarizado.
func SendError(c *gin.Context, statusCode int, title, detail string) {
	send(c, statusCode, gin.H{
		"errors": []ErrorObject{{
			Title:  title,
			Detail: detail,
			Status: strconv.Itoa(statusCode),
		}},
	})
}

// --- Helpers específicos para errores comunes ---

func SendBadRequest(c *gin.Context, title, detail string) {
	SendError(c, http.StatusBadRequest, title, detail)
}

func SendNotFound(c *gin.Context, title, detail string) {
	SendError(c, http.StatusNotFound, title, detail)
}

func send(c *gin.Context, statusCode int, body interface{}) {
	c.Header("Content-Type", ContentType)
	c.Render(statusCode, render.JSON{Data: body})
}
