package respond

import (
	"encoding/json"
	"net/http"

	"github.com/umtracker/platform/pkg/common/logger"
	"github.com/umtracker/platform/pkg/common/models"
)

// JSON writes data inside the success envelope.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	write(w, status, models.APIResponse{Status: models.StatusSuccess, Data: data})
}

// Error writes message inside the error envelope.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, models.APIResponse{Status: models.StatusError, Message: message})
}

func write(w http.ResponseWriter, status int, body models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.WithError(err).Warn("failed to encode response")
	}
}
