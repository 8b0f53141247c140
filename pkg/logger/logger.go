package logger

import (
	"go.uber.org/zap"
)

var log *zap.Logger

// Init inicializa el logger global
func Init() {
	var err error
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"            // Logs estructurados en JSON
	cfg.EncoderConfig.TimeKey = "ts" // timestamp
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.CallerKey = "caller"

	log, err = cfg.Build(zap.Fields(zap.String("service", "taskdesk")))
	if err != nil {
		panic(err)
	}
	// zap.L() queda apuntando al mismo logger
	zap.ReplaceGlobals(log)
}

// Sugar retorna un logger más “friendly” para usar con printf-like
func Sugar() *zap.SugaredLogger {
	return Logger().Sugar()
}

// Logger retorna el logger estructurado. Sin Init devuelve un logger que no escribe nada.
func Logger() *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
