package utils

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// UnmarshalAndHandle decodifica el payload de un evento y, si es válido, se lo pasa al handler.
func UnmarshalAndHandle[T any](log *zap.Logger, data json.RawMessage, handler func(T)) {
	var evt T
	if err := json.Unmarshal(data, &evt); err != nil {
		log.Warn("Failed to unmarshal event data",
			zap.String("target", fmt.Sprintf("%T", evt)),
			zap.Error(err))
		return
	}
	handler(evt)
}
