package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/taskdesk/pkg/utils"
)

// GinZapMiddleware registra cada petición. Las respuestas 5xx salen como error.
func GinZapMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("http request", fields...)
			return
		}

		logger.Info("http request", fields...)
	}
}

// ValidateUUIDParams corta la petición con 400 si algún parámetro no es un UUID v4.
// El valor ya parseado queda en el contexto para ParamUUID.
func ValidateUUIDParams(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range names {
			id, ok := parseUUIDv4(c.Param(name))
			if !ok {
				utils.SendBadRequest(c, "Invalid ID", "Invalid ID format")
				c.Abort()
				return
			}
			c.Set(paramKey(name), id)
		}
		c.Next()
	}
}

// ParamUUID devuelve el parámetro validado por ValidateUUIDParams.
func ParamUUID(c *gin.Context, name string) uuid.UUID {
	if v, ok := c.Get(paramKey(name)); ok {
		return v.(uuid.UUID)
	}
	id, _ := uuid.Parse(c.Param(name))
	return id
}

func parseUUIDv4(raw string) (uuid.UUID, bool) {
	// uuid.Parse acepta también llaves y urn:uuid:, aquí solo vale la forma canónica
	if len(raw) != 36 {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil || id.Version() != 4 || id.Variant() != uuid.RFC4122 {
		return uuid.Nil, false
	}
	return id, true
}

func paramKey(name string) string {
	return "param." + name
}

// NotFoundRoute responde a rutas inexistentes con el mismo sobre de error.
func NotFoundRoute(c *gin.Context) {
	utils.SendNotFound(c, "Not Found", "Route "+c.Request.URL.Path+" not found")
}

// CORS añade las cabeceras CORS y contesta los preflight OPTIONS con 204.
// Con "*" en origins se acepta cualquier origen; si no, solo los de la lista.
func CORS(origins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Expose-Headers", "Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
