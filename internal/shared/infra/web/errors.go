package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
	"github.com/davicafu/taskdesk/pkg/utils"
)

// StatusOf traduce la clase del error a código HTTP.
func StatusOf(err error) int {
	switch sharedDomain.KindOf(err) {
	case sharedDomain.KindValidation:
		return http.StatusBadRequest
	case sharedDomain.KindNotFound:
		return http.StatusNotFound
	case sharedDomain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

var titles = map[int]string{
	http.StatusBadRequest:          "Validation Error",
	http.StatusNotFound:            "Not Found",
	http.StatusConflict:            "Conflict",
	http.StatusInternalServerError: "Internal Server Error",
}

// Fail escribe el error en el sobre JSON:API. La causa de los 5xx solo va al log.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	status := StatusOf(err)
	utils.SendError(c, status, titles[status], sharedDomain.PublicMessage(err))
}

// RequestError es un 400 que nace en la capa HTTP, antes de llegar al servicio.
func RequestError(c *gin.Context, title, detail string) {
	utils.SendBadRequest(c, title, detail)
}
